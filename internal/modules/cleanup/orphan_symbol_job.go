// Package cleanup provides data cleanup and maintenance functionality.
package cleanup

import (
	"fmt"

	"github.com/rs/zerolog"
)

// OrphanStore finds and removes symbols nothing refers to any more
type OrphanStore interface {
	ListOrphans() ([]string, error)
	DeleteOrphans() (int64, error)
}

// OrphanSymbolJob deletes symbols with no positions, active memberships, ratings or transactions.
// Runs daily.
type OrphanSymbolJob struct {
	store OrphanStore
	log   zerolog.Logger
}

// NewOrphanSymbolJob creates a new orphan symbol cleanup job
func NewOrphanSymbolJob(store OrphanStore, log zerolog.Logger) *OrphanSymbolJob {
	return &OrphanSymbolJob{
		store: store,
		log:   log.With().Str("job", "orphan_symbol_cleanup").Logger(),
	}
}

// Run executes the cleanup job
func (j *OrphanSymbolJob) Run() error {
	_, err := j.Cleanup()
	return err
}

// Cleanup deletes orphan symbols and returns the ones removed
func (j *OrphanSymbolJob) Cleanup() ([]string, error) {
	orphans, err := j.store.ListOrphans()
	if err != nil {
		return nil, fmt.Errorf("failed to find orphan symbols: %w", err)
	}
	if len(orphans) == 0 {
		j.log.Debug().Msg("No orphan symbols to clean up")
		return nil, nil
	}

	deleted, err := j.store.DeleteOrphans()
	if err != nil {
		return nil, fmt.Errorf("failed to delete orphan symbols: %w", err)
	}

	j.log.Info().
		Int64("deleted", deleted).
		Strs("symbols", orphans).
		Msg("Orphan symbol cleanup completed")
	return orphans, nil
}

// Name returns the job name for scheduler
func (j *OrphanSymbolJob) Name() string {
	return "orphan_symbol_cleanup"
}
