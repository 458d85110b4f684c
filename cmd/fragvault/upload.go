package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/config"
	"github.com/tormund/fragvault/engine"
)

func runUpload(ctx context.Context, eng *engine.Engine, logger *log.Logger, args []string) error {
	fs := pflag.NewFlagSet("upload", pflag.ContinueOnError)
	input := fs.StringP("input", "i", "-", "path to read, or - for stdin")
	name := fs.StringP("name", "n", "", "compound name (defaults to the input file's base name)")
	overwrite := fs.Bool("ow", false, "allow replacing an existing compound")
	update := fs.BoolP("update", "u", false, "skip upload if the source's sha256 matches the stored compound")
	fragSize := fs.String("fs", "", "fragment size, e.g. 1MB (defaults to the engine config)")
	resSize := fs.String("rs", "", "target resource size, e.g. 8MB (defaults to the engine config)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", compound.ErrUsage, err)
	}

	opts := compound.UploadOptions{Overwrite: *overwrite, Update: *update}
	if *fragSize != "" {
		n, err := config.ParseSize(*fragSize)
		if err != nil {
			return err
		}
		opts.FragmentSize = n
	}
	if *resSize != "" {
		n, err := config.ParseSize(*resSize)
		if err != nil {
			return err
		}
		opts.TargetResourceSize = n
	}

	var r io.Reader = os.Stdin
	resolvedName := *name
	if *input != "-" {
		info, err := os.Stat(*input)
		if err != nil {
			return fmt.Errorf("upload: stat %s: %w", *input, err)
		}
		if resolvedName == "" {
			resolvedName = filepath.Base(*input)
		}

		// A directory uploads as one compound per file, so update mode can
		// skip unchanged files individually.
		if info.IsDir() {
			report, err := compound.UploadTree(ctx, eng, resolvedName, *input, opts)
			if err != nil {
				return err
			}
			logger.Info("uploaded tree", "prefix", resolvedName, "files", report.Uploaded, "skipped", report.Skipped)
			return nil
		}

		f, err := os.Open(*input)
		if err != nil {
			return fmt.Errorf("upload: open %s: %w", *input, err)
		}
		defer f.Close()
		r = f
	}
	if resolvedName == "" {
		return fmt.Errorf("%w: -n is required when reading from stdin", compound.ErrUsage)
	}

	c, err := compound.Upload(ctx, eng, resolvedName, r, opts)
	if err != nil {
		return err
	}
	logger.Info("uploaded", "name", c.Name, "size", c.TotalSize, "fragments", len(c.FragmentSequence))
	return nil
}
