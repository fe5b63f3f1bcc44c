package di

import (
	"github.com/aristath/portwatch/internal/clientdata"
	"github.com/aristath/portwatch/internal/clients/quotes"
	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/modules/accounts"
	"github.com/aristath/portwatch/internal/modules/cleanup"
	"github.com/aristath/portwatch/internal/modules/imports"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/aristath/portwatch/internal/modules/ratings"
	"github.com/aristath/portwatch/internal/modules/transactions"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/aristath/portwatch/internal/ratelimit"
	"github.com/aristath/portwatch/internal/reliability"
	"github.com/aristath/portwatch/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server and the CLI.
type Container struct {
	DB *database.DB

	// Repositories
	SymbolRepo       *universe.SymbolRepository
	AccountRepo      *accounts.Repository
	PositionRepo     *portfolio.PositionRepository
	WatchlistRepo    *watchlists.Repository
	MemberRepo       *watchlists.MemberRepository
	SeekingAlphaRepo *ratings.SeekingAlphaRepository
	MotleyFoolRepo   *ratings.MotleyFoolRepository
	TransactionRepo  *transactions.Repository
	ImportRunRepo    *imports.RunRepository
	QuoteCache       *clientdata.QuoteCache

	// Clients
	QuoteLimiter *ratelimit.SlidingWindow
	QuoteClient  *quotes.Client

	// Services
	LinkManager    *links.Manager
	Reconciler     *links.Reconciler
	ImportService  *imports.Service
	SummaryService *portfolio.SummaryService
	BackupService  *reliability.BackupService
}

// Close releases the database
func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// JobInstances holds the scheduled jobs so they can also be triggered on demand
type JobInstances struct {
	OrphanCleanup     *cleanup.OrphanSymbolJob
	QuoteCacheCleanup *clientdata.CleanupJob
	Backup            *reliability.BackupJob
	Maintenance       *reliability.MaintenanceJob
}

// All returns every job
func (j *JobInstances) All() []scheduler.Job {
	if j == nil {
		return nil
	}
	return []scheduler.Job{j.OrphanCleanup, j.QuoteCacheCleanup, j.Backup, j.Maintenance}
}

// ByName returns the job with the given name, or nil
func (j *JobInstances) ByName(name string) scheduler.Job {
	for _, job := range j.All() {
		if job.Name() == name {
			return job
		}
	}
	return nil
}
