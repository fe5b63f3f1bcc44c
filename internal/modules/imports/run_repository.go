package imports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/rs/zerolog"
)

// Run is the audit record of one importer invocation
type Run struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Target     *string   `json:"target"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Errors     []string  `json:"errors"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunRepository stores import runs
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new import run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "import_run").Logger(),
	}
}

// Record inserts a run
func (r *RunRepository) Record(run Run) error {
	var errorsJSON sql.NullString
	if len(run.Errors) > 0 {
		encoded, err := json.Marshal(run.Errors)
		if err != nil {
			return fmt.Errorf("failed to encode run errors: %w", err)
		}
		errorsJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	success := 0
	if run.Success {
		success = 1
	}
	_, err := r.db.Exec(`INSERT INTO import_runs
		(id, source, target, success, message, errors, added, updated, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, database.NullString(run.Target), success, run.Message, errorsJSON,
		run.Added, run.Updated, run.StartedAt.Unix(), run.FinishedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record import run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first
func (r *RunRepository) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`SELECT id, source, target, success, message, errors, added, updated, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run                Run
			target, errorsJSON sql.NullString
			success            int
			started, finished  int64
		)
		if err := rows.Scan(&run.ID, &run.Source, &target, &success, &run.Message, &errorsJSON,
			&run.Added, &run.Updated, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		run.Target = database.StringPtr(target)
		run.Success = success == 1
		if errorsJSON.Valid {
			if err := json.Unmarshal([]byte(errorsJSON.String), &run.Errors); err != nil {
				r.log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to decode run errors")
			}
		}
		run.StartedAt = database.UnixTime(started)
		run.FinishedAt = database.UnixTime(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import runs: %w", err)
	}
	return runs, nil
}
