package di

import (
	"fmt"

	"github.com/aristath/portwatch/internal/clientdata"
	"github.com/aristath/portwatch/internal/config"
	"github.com/aristath/portwatch/internal/modules/cleanup"
	"github.com/aristath/portwatch/internal/reliability"
	"github.com/aristath/portwatch/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the maintenance jobs and, when a scheduler is given, registers them
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		OrphanCleanup:     cleanup.NewOrphanSymbolJob(container.SymbolRepo, log),
		QuoteCacheCleanup: clientdata.NewCleanupJob(container.QuoteCache, log),
		Backup:            reliability.NewBackupJob(container.BackupService),
		Maintenance:       reliability.NewMaintenanceJob(container.DB, cfg.DataDir, log),
	}
	if sched == nil {
		return jobs, nil
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.CleanupSchedule, jobs.OrphanCleanup},
		{cfg.CleanupSchedule, jobs.QuoteCacheCleanup},
		{cfg.CleanupSchedule, jobs.Maintenance},
		{cfg.BackupSchedule, jobs.Backup},
	}
	for _, reg := range registrations {
		// An empty schedule disables the job
		if reg.schedule == "" {
			continue
		}
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", reg.job.Name(), err)
		}
	}
	return jobs, nil
}
