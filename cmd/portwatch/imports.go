package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/portwatch/internal/di"
	"github.com/aristath/portwatch/internal/modules/imports"
	"github.com/google/subcommands"
)

type importSchwabCmd struct{}

func (*importSchwabCmd) Name() string     { return "import-schwab" }
func (*importSchwabCmd) Synopsis() string { return "import a Schwab positions export" }
func (*importSchwabCmd) Usage() string {
	return `import-schwab <file.csv>

  Upserts the positions of the account named in the export header, creating
  the account on first import, and links new holdings to every watchlist
  that recommends them.
`
}

func (*importSchwabCmd) SetFlags(*flag.FlagSet) {}

func (c *importSchwabCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	file, err := singleFile(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return withContainer(func(container *di.Container, _ *di.JobInstances) error {
		content, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		return reportImport(container.ImportService.ImportSchwab(ctx, string(content)))
	})
}

type importSeekingAlphaCmd struct {
	watchlist int64
}

func (*importSeekingAlphaCmd) Name() string     { return "import-seeking-alpha" }
func (*importSeekingAlphaCmd) Synopsis() string { return "import a Seeking Alpha ratings workbook" }
func (*importSeekingAlphaCmd) Usage() string {
	return `import-seeking-alpha -watchlist <id> <file.xlsx>

  Replaces the ratings of a seeking_alpha watchlist and reconciles its
  membership and position links.
`
}

func (c *importSeekingAlphaCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.watchlist, "watchlist", 0, "Target watchlist ID (required)")
}

func (c *importSeekingAlphaCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	file, err := singleFile(f)
	if err != nil || c.watchlist <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -watchlist and one file argument are required")
		return subcommands.ExitUsageError
	}
	return withContainer(func(container *di.Container, _ *di.JobInstances) error {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		return reportImport(container.ImportService.ImportSeekingAlpha(ctx, data, c.watchlist))
	})
}

type importMotleyFoolCmd struct {
	watchlist int64
}

func (*importMotleyFoolCmd) Name() string     { return "import-motley-fool" }
func (*importMotleyFoolCmd) Synopsis() string { return "import a Motley Fool scorecard export" }
func (*importMotleyFoolCmd) Usage() string {
	return `import-motley-fool -watchlist <id> <file.csv>

  Replaces the scorecards of a motley_fool watchlist and reconciles its
  membership and position links.
`
}

func (c *importMotleyFoolCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.watchlist, "watchlist", 0, "Target watchlist ID (required)")
}

func (c *importMotleyFoolCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	file, err := singleFile(f)
	if err != nil || c.watchlist <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -watchlist and one file argument are required")
		return subcommands.ExitUsageError
	}
	return withContainer(func(container *di.Container, _ *di.JobInstances) error {
		content, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		return reportImport(container.ImportService.ImportMotleyFool(ctx, string(content), c.watchlist))
	})
}

// reportImport prints the result and turns an unsuccessful import into an error
func reportImport(result *imports.Result, err error) error {
	if err != nil {
		return err
	}
	if printErr := printJSON(result); printErr != nil {
		return printErr
	}
	if !result.Success {
		return fmt.Errorf("import failed: %s", result.Message)
	}
	return nil
}
