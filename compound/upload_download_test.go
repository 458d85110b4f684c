package compound

import (
	"bytes"
	"context"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/engine"
)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	// A fixed seed-free PRNG would need math/rand; deterministic content is
	// fine here since these tests only care about byte-exact round trips,
	// not statistical randomness.
	for i := range b {
		b[i] = byte((i*31 + 7) % 251)
	}
	return b
}

func TestUploadDownload_RoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(100)
	_, err := Upload(ctx, eng, "stream-a", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Download(ctx, eng, "stream-a", &out))
	assert.Equal(t, data, out.Bytes())
}

func TestUploadDownload_ShortFinalFragmentNotPadded(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(19) // FragmentSize 8: two full fragments + one 3-byte tail
	_, err := Upload(ctx, eng, "short", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	c, err := findCompound(eng, "short")
	require.NoError(t, err)
	require.NoError(t, eng.Catalog.View(func(tx *catalog.Tx) error {
		last, err := tx.GetFragment(c.FragmentSequence[len(c.FragmentSequence)-1])
		require.NoError(t, err)
		assert.Equal(t, int64(3), last.Size)
		return nil
	}))

	var out bytes.Buffer
	require.NoError(t, Download(ctx, eng, "short", &out))
	assert.Equal(t, data, out.Bytes())
}

func TestUpload_DedupZeroNewFragmentsOnReupload(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(200)
	_, err := Upload(ctx, eng, "first", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	statsBefore, err := Statistic(eng)
	require.NoError(t, err)

	_, err = Upload(ctx, eng, "second", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	statsAfter, err := Statistic(eng)
	require.NoError(t, err)

	assert.Equal(t, statsBefore.FragmentCount, statsAfter.FragmentCount, "dedup: identical stream must create zero new fragments")
	assert.Equal(t, statsBefore.CompoundCount+1, statsAfter.CompoundCount)
	assert.InDelta(t, 2.0, statsAfter.DedupRatio, 0.01)
}

func TestUpload_WithoutOverwriteFailsOnExistingName(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := Upload(ctx, eng, "dup", bytes.NewReader(randomBytes(10)), UploadOptions{})
	require.NoError(t, err)

	_, err = Upload(ctx, eng, "dup", bytes.NewReader(randomBytes(10)), UploadOptions{})
	assert.ErrorIs(t, err, ErrCompoundExists)
}

func TestUpload_UpdateModeSkipsUnchangedStream(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(50)
	first, err := Upload(ctx, eng, "tracked", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	second, err := Upload(ctx, eng, "tracked", bytes.NewReader(data), UploadOptions{Update: true})
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "unchanged stream under update mode must not rewrite the compound")
}

func TestUpload_UpdateModeRewritesChangedStream(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := Upload(ctx, eng, "tracked", bytes.NewReader(randomBytes(50)), UploadOptions{})
	require.NoError(t, err)

	changed := randomBytes(60)
	updated, err := Upload(ctx, eng, "tracked", bytes.NewReader(changed), UploadOptions{Update: true})
	require.NoError(t, err)
	assert.Equal(t, int64(60), updated.TotalSize)

	var out bytes.Buffer
	require.NoError(t, Download(ctx, eng, "tracked", &out))
	assert.Equal(t, changed, out.Bytes())
}

func TestDownload_UnknownNameFails(t *testing.T) {
	eng := newTestEngine(t)
	err := Download(context.Background(), eng, "nope", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrCompoundNotFound)
}

func TestDownload_TotalHashMismatchSurfacesCompoundCorrupt(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := Upload(ctx, eng, "broken", bytes.NewReader(randomBytes(30)), UploadOptions{})
	require.NoError(t, err)

	require.NoError(t, eng.Catalog.Update(func(tx *catalog.Tx) error {
		c, err := tx.GetCompound("broken")
		if err != nil {
			return err
		}
		c.TotalHash = sha256.Sum256([]byte("not the real hash"))
		return tx.PutCompound(c)
	}))

	err = Download(ctx, eng, "broken", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrCompoundCorrupt)
}

func findCompound(eng *engine.Engine, name string) (*catalog.Compound, error) {
	var c *catalog.Compound
	err := eng.Catalog.View(func(tx *catalog.Tx) error {
		got, err := tx.GetCompound(name)
		if err != nil {
			return err
		}
		c = got
		return nil
	})
	return c, err
}
