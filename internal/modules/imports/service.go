package imports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service runs the importers and records every invocation as an import run
type Service struct {
	schwab       *SchwabImporter
	seekingAlpha *SeekingAlphaImporter
	motleyFool   *MotleyFoolImporter
	runs         *RunRepository
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates the import service
func NewService(
	schwab *SchwabImporter,
	seekingAlpha *SeekingAlphaImporter,
	motleyFool *MotleyFoolImporter,
	runs *RunRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		schwab:       schwab,
		seekingAlpha: seekingAlpha,
		motleyFool:   motleyFool,
		runs:         runs,
		now:          time.Now,
		log:          log.With().Str("service", "imports").Logger(),
	}
}

// ImportSchwab imports a Schwab positions export
func (s *Service) ImportSchwab(ctx context.Context, content string) (*Result, error) {
	return s.record(SourceSchwab, "", func() (*Result, error) {
		return s.schwab.Import(ctx, content)
	})
}

// ImportSeekingAlpha imports a Seeking Alpha ratings workbook into a watchlist
func (s *Service) ImportSeekingAlpha(ctx context.Context, data []byte, watchlistID int64) (*Result, error) {
	return s.record(SourceSeekingAlpha, fmt.Sprintf("watchlist:%d", watchlistID), func() (*Result, error) {
		return s.seekingAlpha.Import(ctx, data, watchlistID)
	})
}

// ImportMotleyFool imports a Motley Fool scorecard CSV into a watchlist
func (s *Service) ImportMotleyFool(ctx context.Context, content string, watchlistID int64) (*Result, error) {
	return s.record(SourceMotleyFool, fmt.Sprintf("watchlist:%d", watchlistID), func() (*Result, error) {
		return s.motleyFool.Import(ctx, content, watchlistID)
	})
}

// Runs returns recent import runs
func (s *Service) Runs(limit int) ([]Run, error) {
	return s.runs.List(limit)
}

func (s *Service) record(source, target string, fn func() (*Result, error)) (*Result, error) {
	run := Run{ID: uuid.NewString(), Source: source, StartedAt: s.now()}

	result, err := fn()
	run.FinishedAt = s.now()

	switch {
	case err != nil:
		run.Message = err.Error()
	default:
		result.RunID = run.ID
		run.Success = result.Success
		run.Message = result.Message
		run.Errors = result.Errors
		if counts := firstCounts(result); counts != nil {
			run.Added = counts.Added
			run.Updated = counts.Updated
		}
		if result.Account != nil {
			target = "account:" + result.Account.Name
		}
	}
	if target != "" {
		run.Target = &target
	}

	if recordErr := s.runs.Record(run); recordErr != nil {
		s.log.Warn().Err(recordErr).Str("run_id", run.ID).Msg("Failed to record import run")
	}
	return result, err
}

func firstCounts(r *Result) *Counts {
	if r.Positions != nil {
		return r.Positions
	}
	return r.Symbols
}
