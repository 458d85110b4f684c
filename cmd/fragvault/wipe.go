package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/engine"
)

func runWipe(ctx context.Context, eng *engine.Engine, logger *log.Logger, args []string) error {
	fs := pflag.NewFlagSet("wipe", pflag.ContinueOnError)
	deleteBackend := fs.Bool("c", false, "also delete every resource's backend blob")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", compound.ErrUsage, err)
	}

	if err := eng.Wipe(ctx, *deleteBackend); err != nil {
		return err
	}
	logger.Info("wiped", "deleted_backend_data", *deleteBackend)
	return nil
}
