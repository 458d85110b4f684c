package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/engine"
)

func runClean(ctx context.Context, eng *engine.Engine, logger *log.Logger, args []string) error {
	fs := pflag.NewFlagSet("clean", pflag.ContinueOnError)
	defragment := fs.Bool("df", false, "also defragment compounds spanning too many resources")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", compound.ErrUsage, err)
	}

	report, err := compound.Clean(ctx, eng, *defragment)
	if err != nil {
		return err
	}
	logger.Info("clean complete",
		"resources_deleted", report.ResourcesDeleted,
		"fragments_deleted", report.FragmentsDeleted,
		"compounds_defragmented", report.CompoundsDefragmented,
		"fragments_relocated", report.FragmentsRelocated,
	)
	return nil
}
