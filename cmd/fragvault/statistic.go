package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tormund/fragvault/compound"
	"github.com/tormund/fragvault/engine"
)

func runStatistic(_ context.Context, eng *engine.Engine, _ *log.Logger, _ []string) error {
	stats, err := compound.Statistic(eng)
	if err != nil {
		return err
	}

	fmt.Printf("compounds:        %d\n", stats.CompoundCount)
	fmt.Printf("fragments:        %d\n", stats.FragmentCount)
	fmt.Printf("resources:        %d\n", stats.ResourceCount)
	fmt.Printf("logical size:     %d bytes\n", stats.TotalLogicalSize)
	fmt.Printf("fragment size:    %d bytes\n", stats.TotalFragmentSize)
	fmt.Printf("resource size:    %d bytes\n", stats.TotalResourceSize)
	fmt.Printf("dedup ratio:      %.2f\n", stats.DedupRatio)
	fmt.Printf("fill efficiency:  %.2f\n", stats.FillEfficiency)
	return nil
}
