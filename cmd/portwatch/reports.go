package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/portwatch/internal/di"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type watchlistsCmd struct {
	create     string
	source     string
	allocation string
}

func (*watchlistsCmd) Name() string     { return "watchlists" }
func (*watchlistsCmd) Synopsis() string { return "list or create watchlists" }
func (*watchlistsCmd) Usage() string {
	return `watchlists [-create <name> -source <seeking_alpha|motley_fool> [-allocation <dollars>]]

  Without flags, lists every watchlist. With -create, creates one.
`
}

func (c *watchlistsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.create, "create", "", "Name of a watchlist to create")
	f.StringVar(&c.source, "source", "", "Rating service of the new watchlist")
	f.StringVar(&c.allocation, "allocation", "", "Dollar allocation of the new watchlist")
}

func (c *watchlistsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var allocation *decimal.Decimal
	if c.allocation != "" {
		d, err := decimal.NewFromString(c.allocation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid allocation %q\n", c.allocation)
			return subcommands.ExitUsageError
		}
		allocation = &d
	}

	return withContainer(func(container *di.Container, _ *di.JobInstances) error {
		if c.create != "" {
			created, err := container.WatchlistRepo.Create(c.create, domain.WatchlistSource(c.source), allocation)
			if err != nil {
				return err
			}
			return printJSON(created)
		}
		list, err := container.WatchlistRepo.List()
		if err != nil {
			return err
		}
		if list == nil {
			list = []domain.Watchlist{}
		}
		return printJSON(list)
	})
}

type attentionCmd struct{}

func (*attentionCmd) Name() string     { return "attention" }
func (*attentionCmd) Synopsis() string { return "show dropped links and off-target holdings" }
func (*attentionCmd) Usage() string {
	return `attention

  Lists held positions whose watchlist dropped the symbol and watchlist
  members outside the allocation band.
`
}

func (*attentionCmd) SetFlags(*flag.FlagSet) {}

func (*attentionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withContainer(func(container *di.Container, _ *di.JobInstances) error {
		attention, err := container.SummaryService.NeedsAttention(ctx)
		if err != nil {
			return err
		}
		return printJSON(attention)
	})
}

type runJobCmd struct{}

func (*runJobCmd) Name() string     { return "run-job" }
func (*runJobCmd) Synopsis() string { return "run a maintenance job once" }
func (*runJobCmd) Usage() string {
	return `run-job <name>

  Jobs: orphan_symbol_cleanup, quote_cache_cleanup, database_backup, daily_maintenance
`
}

func (*runJobCmd) SetFlags(*flag.FlagSet) {}

func (*runJobCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one job name is required")
		return subcommands.ExitUsageError
	}
	name := f.Args()[0]
	return withContainer(func(_ *di.Container, jobs *di.JobInstances) error {
		job := jobs.ByName(name)
		if job == nil {
			return fmt.Errorf("unknown job %q", name)
		}
		if err := job.Run(); err != nil {
			return err
		}
		return printJSON(map[string]string{"job": name, "status": "success"})
	})
}
