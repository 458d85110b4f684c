package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/engine"
)

func runDelete(_ context.Context, eng *engine.Engine, logger *log.Logger, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "compound name to remove (required)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", compound.ErrUsage, err)
	}
	if *name == "" {
		return fmt.Errorf("%w: -n is required", compound.ErrUsage)
	}

	if err := compound.Delete(eng, *name, compound.DeleteOptions{}); err != nil {
		return err
	}
	logger.Info("deleted", "name", *name)
	return nil
}
