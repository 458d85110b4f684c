package compound

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormund/fragvault/catalog"
)

func TestList_ReturnsSortedCompounds(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	for _, name := range []string{"zebra", "apple", "mango"} {
		_, err := Upload(ctx, eng, name, bytes.NewReader(randomBytes(10)), UploadOptions{})
		require.NoError(t, err)
	}

	compounds, err := List(eng)
	require.NoError(t, err)
	require.Len(t, compounds, 3)
	assert.Equal(t, []string{"apple", "mango", "zebra"}, []string{compounds[0].Name, compounds[1].Name, compounds[2].Name})
}

func TestDelete_StrictModeFailsOnUnknownName(t *testing.T) {
	eng := newTestEngine(t)
	err := Delete(eng, "ghost", DeleteOptions{})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestDelete_IdempotentModeIsNoOpOnUnknownName(t *testing.T) {
	eng := newTestEngine(t)
	err := Delete(eng, "ghost", DeleteOptions{Idempotent: true})
	assert.NoError(t, err)
}

func TestDelete_DecrementsFragmentRefcounts(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	data := randomBytes(40)
	_, err := Upload(ctx, eng, "a", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)
	_, err = Upload(ctx, eng, "b", bytes.NewReader(data), UploadOptions{})
	require.NoError(t, err)

	c, err := findCompound(eng, "a")
	require.NoError(t, err)

	require.NoError(t, Delete(eng, "a", DeleteOptions{}))

	require.NoError(t, eng.Catalog.View(func(tx *catalog.Tx) error {
		for _, h := range c.FragmentSequence {
			f, err := tx.GetFragment(h)
			require.NoError(t, err)
			assert.Equal(t, int64(1), f.Refcount, "fragment still referenced once by compound b")
		}
		return nil
	}))

	_, err = findCompound(eng, "a")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRename_MovesCompoundUnderNewName(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := Upload(ctx, eng, "old-name", bytes.NewReader(randomBytes(20)), UploadOptions{})
	require.NoError(t, err)

	require.NoError(t, Rename(eng, "old-name", "new-name"))

	_, err = findCompound(eng, "old-name")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	renamed, err := findCompound(eng, "new-name")
	require.NoError(t, err)
	assert.Equal(t, "new-name", renamed.Name)
}

func TestRename_FailsIfTargetExists(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := Upload(ctx, eng, "a", bytes.NewReader(randomBytes(10)), UploadOptions{})
	require.NoError(t, err)
	_, err = Upload(ctx, eng, "b", bytes.NewReader(randomBytes(10)), UploadOptions{})
	require.NoError(t, err)

	err = Rename(eng, "a", "b")
	assert.ErrorIs(t, err, ErrCompoundExists)
}

func TestRename_FailsIfSourceMissing(t *testing.T) {
	eng := newTestEngine(t)
	err := Rename(eng, "ghost", "whatever")
	assert.ErrorIs(t, err, ErrCompoundNotFound)
}
