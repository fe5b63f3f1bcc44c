package main

import (
	"context"
	"flag"

	"github.com/aristath/portwatch/internal/di"
	"github.com/google/subcommands"
)

type cleanupCmd struct{}

func (*cleanupCmd) Name() string     { return "cleanup" }
func (*cleanupCmd) Synopsis() string { return "delete orphan symbols and expired quotes" }
func (*cleanupCmd) Usage() string {
	return `cleanup

  Deletes symbols referenced by nothing and quote cache entries past their TTL.
`
}

func (*cleanupCmd) SetFlags(*flag.FlagSet) {}

func (*cleanupCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withContainer(func(container *di.Container, jobs *di.JobInstances) error {
		removed, err := jobs.OrphanCleanup.Cleanup()
		if err != nil {
			return err
		}
		expired, err := container.QuoteCache.DeleteExpired()
		if err != nil {
			return err
		}
		if removed == nil {
			removed = []string{}
		}
		return printJSON(map[string]interface{}{
			"orphan_symbols": removed,
			"expired_quotes": expired,
		})
	})
}

type backupCmd struct{}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "snapshot the database" }
func (*backupCmd) Usage() string {
	return `backup

  Writes a consistent snapshot to the backup directory, uploads it when a
  bucket is configured and rotates old snapshots.
`
}

func (*backupCmd) SetFlags(*flag.FlagSet) {}

func (*backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withContainer(func(container *di.Container, _ *di.JobInstances) error {
		info, err := container.BackupService.CreateBackup(ctx)
		if info != nil {
			if printErr := printJSON(info); printErr != nil {
				return printErr
			}
		}
		return err
	})
}
