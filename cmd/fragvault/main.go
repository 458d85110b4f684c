// Command fragvault is the CLI front end over the engine: upload, download,
// list, delete, clean, statistic, and wipe subcommands, each a pflag-based
// flag set. It owns argument parsing, exit-code mapping, and logging
// configuration; the library packages below it only return errors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tormund/fragvault/config"
	"github.com/tormund/fragvault/engine"
)

// subcommand is one CLI verb: it registers its own flags and runs against
// an already-open Engine.
type subcommand struct {
	name string
	help string
	run  func(ctx context.Context, eng *engine.Engine, logger *log.Logger, args []string) error
}

var subcommands = []subcommand{
	{"upload", "ingest a stream or file as a named compound", runUpload},
	{"download", "reconstruct and verify a compound", runDownload},
	{"list", "enumerate compounds", runList},
	{"delete", "remove a compound and decrement its fragment refcounts", runDelete},
	{"clean", "garbage-collect dead resources, optionally defragmenting", runClean},
	{"statistic", "print counts, sizes, dedup ratio, and fill efficiency", runStatistic},
	{"wipe", "drop the catalog, optionally also deleting backend resources", runWipe},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: fragvault <subcommand> [flags]")
		printSubcommandHelp()
		return exitUsage
	}

	name := args[0]
	rest := args[1:]

	var cmd *subcommand
	for i := range subcommands {
		if subcommands[i].name == name {
			cmd = &subcommands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "fragvault: unknown subcommand %q\n", name)
		printSubcommandHelp()
		return exitUsage
	}

	dataDir := config.DefaultDataDir()
	if v := os.Getenv("FRAGVAULT_DATA_DIR"); v != "" {
		dataDir = v
	}

	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil {
		cfg = config.DefaultConfig()
		cfg.DataDir = dataDir
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLogLevel(cfg.LogLevel),
	})

	eng, err := engine.Open(cfg)
	if err != nil {
		logger.Error("open engine", "err", err)
		return exitCodeFor(err)
	}
	defer eng.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.run(ctx, eng, logger, rest); err != nil {
		logger.Error(name, "err", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func printSubcommandHelp() {
	for _, c := range subcommands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.help)
	}
}

func parseLogLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
