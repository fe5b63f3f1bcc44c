package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aristath/portwatch/internal/config"
	"github.com/aristath/portwatch/internal/di"
	"github.com/aristath/portwatch/pkg/logger"
	"github.com/google/subcommands"
)

// commands lists every registered subcommand
var commands = []subcommands.Command{
	&importSchwabCmd{},
	&importSeekingAlphaCmd{},
	&importMotleyFoolCmd{},
	&watchlistsCmd{},
	&attentionCmd{},
	&cleanupCmd{},
	&backupCmd{},
	&runJobCmd{},
}

// stdout is where command results are written, swapped in tests
var stdout io.Writer = os.Stdout

// withContainer loads configuration, wires the container without a scheduler
// and runs fn. Logs go to stderr so stdout carries only the JSON result.
func withContainer(fn func(c *di.Container, jobs *di.JobInstances) error) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})
	logger.SetGlobalLogger(log)

	container, jobs, err := di.Wire(cfg, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	if err := fn(container, jobs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printJSON writes v as indented JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// singleFile returns the one positional file argument
func singleFile(f interface{ Args() []string }) (string, error) {
	if len(f.Args()) != 1 {
		return "", fmt.Errorf("exactly one file argument is required")
	}
	return f.Args()[0], nil
}
