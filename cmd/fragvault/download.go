package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/engine"
)

func runDownload(ctx context.Context, eng *engine.Engine, logger *log.Logger, args []string) error {
	fs := pflag.NewFlagSet("download", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "compound name to retrieve (required)")
	output := fs.StringP("output", "o", "-", "path to write, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", compound.ErrUsage, err)
	}
	if *name == "" {
		return fmt.Errorf("%w: -n is required", compound.ErrUsage)
	}

	w := os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("download: create %s: %w", *output, err)
		}
		defer f.Close()
		w = f
	}

	if err := compound.Download(ctx, eng, *name, w); err != nil {
		return err
	}
	logger.Info("downloaded", "name", *name)
	return nil
}
