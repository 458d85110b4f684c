package compound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/engine"
)

// TreeReport tallies what an UploadTree run did per file.
type TreeReport struct {
	Uploaded int
	Skipped  int
}

// UploadTree walks root and uploads every regular file as its own compound,
// named prefix joined with the file's slash-separated path relative to
// root. In Update mode each file is read once to compute its SHA-256; a
// file whose digest matches the stored compound's TotalHash is skipped
// without touching the backend, and only changed files are rewritten.
func UploadTree(ctx context.Context, eng *engine.Engine, prefix, root string, opts UploadOptions) (TreeReport, error) {
	var report TreeReport
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("compound: walk %s: %w", p, walkErr)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("compound: walk %s: %w", p, err)
		}
		name := path.Join(prefix, filepath.ToSlash(rel))

		uploaded, err := uploadTreeFile(ctx, eng, name, p, opts)
		if err != nil {
			return err
		}
		if uploaded {
			report.Uploaded++
		} else {
			report.Skipped++
		}
		return nil
	})
	return report, err
}

// uploadTreeFile uploads one file of a tree, reporting whether it actually
// wrote anything. The Update digest check runs here, against the file read
// into memory, so Upload is only entered once the file is known to differ.
func uploadTreeFile(ctx context.Context, eng *engine.Engine, name, filePath string, opts UploadOptions) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("compound: open %s: %w", filePath, err)
	}
	defer f.Close()

	if !opts.Update {
		_, err := Upload(ctx, eng, name, f, opts)
		return err == nil, err
	}

	var existing *catalog.Compound
	if verr := eng.Catalog.View(func(tx *catalog.Tx) error {
		c, err := tx.GetCompound(name)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil
			}
			return err
		}
		existing = c
		return nil
	}); verr != nil {
		return false, verr
	}

	data, sum, err := bufferAndHash(f)
	if err != nil {
		return false, err
	}
	if existing != nil && sum == existing.TotalHash {
		return false, nil
	}

	// Update no longer has anything to compare; clear it so Upload does
	// not buffer and hash the same bytes a second time.
	opts.Update = false
	opts.Overwrite = true
	_, err = Upload(ctx, eng, name, bytes.NewReader(data), opts)
	return err == nil, err
}
