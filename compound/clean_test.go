package compound

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormund/fragvault/catalog"
)

func TestClean_RemovesDeadResourcesAndFragments(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := Upload(ctx, eng, "doomed", bytes.NewReader(randomBytes(100)), UploadOptions{})
	require.NoError(t, err)
	require.NoError(t, Delete(eng, "doomed", DeleteOptions{}))

	report, err := Clean(ctx, eng, false)
	require.NoError(t, err)
	assert.Greater(t, report.ResourcesDeleted, 0)
	assert.Greater(t, report.FragmentsDeleted, 0)

	stats, err := Statistic(eng)
	require.NoError(t, err)
	assert.Zero(t, stats.FragmentCount)
	assert.Zero(t, stats.ResourceCount)

	keys, err := eng.Backend.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys, "dead resources must be deleted from the backend too")
}

func TestClean_KeepsResourcesWithLiveFragments(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(100)
	_, err := Upload(ctx, eng, "a", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)
	_, err = Upload(ctx, eng, "b", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	require.NoError(t, Delete(eng, "a", DeleteOptions{}))

	report, err := Clean(ctx, eng, false)
	require.NoError(t, err)
	assert.Zero(t, report.ResourcesDeleted, "fragments shared with b are still live")

	var out bytes.Buffer
	require.NoError(t, Download(ctx, eng, "b", &out))
	assert.Equal(t, data, out.Bytes())
}

func TestClean_DefragmentRelocatesScatteredCompound(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// FragmentSize 8 and MaxFragmentsPerResource 4 scatter 200 bytes over
	// enough resources to cross the test engine's DefragmentThreshold of 2.
	data := randomBytes(200)
	_, err := Upload(ctx, eng, "scattered", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	report, err := Clean(ctx, eng, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CompoundsDefragmented)
	assert.Greater(t, report.FragmentsRelocated, 0)
	assert.Greater(t, report.ResourcesDeleted, 0, "the stale resources are reclaimed in the same run")

	// Relocation must not disturb reference counts or reconstruction.
	require.NoError(t, eng.Catalog.View(func(tx *catalog.Tx) error {
		c, err := tx.GetCompound("scattered")
		require.NoError(t, err)
		seen := make(map[catalog.Hash]int64)
		for _, h := range c.FragmentSequence {
			seen[h]++
		}
		for h, want := range seen {
			f, err := tx.GetFragment(h)
			require.NoError(t, err)
			assert.Equal(t, want, f.Refcount)
		}
		return nil
	}))

	var out bytes.Buffer
	require.NoError(t, Download(ctx, eng, "scattered", &out))
	assert.Equal(t, data, out.Bytes())
}

func TestDownload_TamperedResourceSurfacesItsID(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	victim := randomBytes(60)
	_, err := Upload(ctx, eng, "victim", bytes.NewReader(victim), UploadOptions{})
	require.NoError(t, err)

	bystander := make([]byte, 60)
	for i := range bystander {
		bystander[i] = byte(i * 13)
	}
	_, err = Upload(ctx, eng, "bystander", bytes.NewReader(bystander), UploadOptions{})
	require.NoError(t, err)

	// Truncate one of the victim's blobs in place: fetch it, store the
	// truncated copy, and point the catalog row at the new key.
	c, err := findCompound(eng, "victim")
	require.NoError(t, err)

	var tamperedID string
	require.NoError(t, eng.Catalog.Update(func(tx *catalog.Tx) error {
		f, err := tx.GetFragment(c.FragmentSequence[0])
		require.NoError(t, err)
		res, err := tx.GetResource(f.Ref.ResourceID)
		require.NoError(t, err)
		tamperedID = res.ID

		blob, err := eng.Backend.Get(ctx, res.BackendKey)
		require.NoError(t, err)
		require.NoError(t, eng.Backend.Delete(ctx, res.BackendKey))
		newKey, err := eng.Backend.Put(ctx, blob[:len(blob)/2])
		require.NoError(t, err)

		res.BackendKey = newKey
		return tx.PutResource(res)
	}))

	var out bytes.Buffer
	err = Download(ctx, eng, "victim", &out)
	var corrupt *ResourceCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, tamperedID, corrupt.ResourceID)

	// An unrelated compound is untouched by the tampering.
	out.Reset()
	require.NoError(t, Download(ctx, eng, "bystander", &out))
	assert.Equal(t, bystander, out.Bytes())
}

func TestStatistic_CountsAndDedupRatio(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(80) // 10 fragments of 8 bytes
	_, err := Upload(ctx, eng, "one", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	stats, err := Statistic(eng)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompoundCount)
	assert.Equal(t, 10, stats.FragmentCount)
	assert.Equal(t, int64(80), stats.TotalLogicalSize)
	assert.InDelta(t, 1.0, stats.DedupRatio, 0.01)

	_, err = Upload(ctx, eng, "two", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	stats, err = Statistic(eng)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CompoundCount)
	assert.Equal(t, 10, stats.FragmentCount, "identical stream adds no fragments")
	assert.InDelta(t, 2.0, stats.DedupRatio, 0.01)
}
