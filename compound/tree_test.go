package compound

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0700))
		require.NoError(t, os.WriteFile(p, data, 0600))
	}
	return root
}

func TestUploadTree_OneCompoundPerFile(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	root := writeTree(t, map[string][]byte{
		"a.txt":      randomBytes(30),
		"sub/b.txt":  randomBytes(40),
		"sub/deep/c": randomBytes(10),
	})

	report, err := UploadTree(ctx, eng, "docs", root, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Uploaded)
	assert.Zero(t, report.Skipped)

	compounds, err := List(eng)
	require.NoError(t, err)
	require.Len(t, compounds, 3)
	assert.Equal(t, "docs/a.txt", compounds[0].Name)
	assert.Equal(t, "docs/sub/b.txt", compounds[1].Name)
	assert.Equal(t, "docs/sub/deep/c", compounds[2].Name)
}

func TestUploadTree_UpdateSkipsUnchangedFiles(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	root := writeTree(t, map[string][]byte{
		"stable.bin":  randomBytes(50),
		"changed.bin": randomBytes(50),
	})

	_, err := UploadTree(ctx, eng, "backup", root, UploadOptions{})
	require.NoError(t, err)

	statsBefore, err := Statistic(eng)
	require.NoError(t, err)

	changed := randomBytes(70)
	require.NoError(t, os.WriteFile(filepath.Join(root, "changed.bin"), changed, 0600))

	report, err := UploadTree(ctx, eng, "backup", root, UploadOptions{Update: true, Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)
	assert.Equal(t, 1, report.Skipped)

	// The skipped file's fragments are untouched; only the changed file's
	// new tail bytes add fragments.
	statsAfter, err := Statistic(eng)
	require.NoError(t, err)
	assert.Greater(t, statsAfter.FragmentCount, statsBefore.FragmentCount)

	var out bytes.Buffer
	require.NoError(t, Download(ctx, eng, "backup/changed.bin", &out))
	assert.Equal(t, changed, out.Bytes())
}

func TestUploadTree_SecondIdenticalRunSkipsEverything(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	root := writeTree(t, map[string][]byte{"only.bin": randomBytes(40)})

	_, err := UploadTree(ctx, eng, "mirror", root, UploadOptions{})
	require.NoError(t, err)

	keysBefore, err := eng.Backend.List(ctx)
	require.NoError(t, err)

	report, err := UploadTree(ctx, eng, "mirror", root, UploadOptions{Update: true})
	require.NoError(t, err)
	assert.Zero(t, report.Uploaded)
	assert.Equal(t, 1, report.Skipped)

	keysAfter, err := eng.Backend.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, keysBefore, keysAfter, "unchanged files must not touch the backend")
}
