package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/engine"
)

func runList(_ context.Context, eng *engine.Engine, _ *log.Logger, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	details := fs.Bool("details", false, "also print size and fragment count per compound")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", compound.ErrUsage, err)
	}

	compounds, err := compound.List(eng)
	if err != nil {
		return err
	}

	for _, c := range compounds {
		if *details {
			fmt.Printf("%s\t%d bytes\t%d fragments\n", c.Name, c.TotalSize, len(c.FragmentSequence))
		} else {
			fmt.Println(c.Name)
		}
	}
	return nil
}
