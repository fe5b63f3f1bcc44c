// Package accounts manages brokerage accounts.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles account database operations
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "account").Logger(),
	}
}

// Create inserts a new account. Names are unique.
func (r *Repository) Create(name, broker string, accountNumber *string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if broker == "" {
		return nil, fmt.Errorf("broker is required")
	}

	now := r.now().Unix()
	res, err := r.db.Exec(`INSERT INTO accounts (name, broker, account_number, created_at) VALUES (?, ?, ?, ?)`,
		name, broker, database.NullString(accountNumber), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read account id: %w", err)
	}

	r.log.Info().Int64("account_id", id).Str("name", name).Msg("Account created")
	return &domain.Account{
		ID:            id,
		Name:          name,
		Broker:        broker,
		AccountNumber: database.StringPtr(database.NullString(accountNumber)),
		CreatedAt:     database.UnixTime(now),
	}, nil
}

// GetOrCreate looks the account up by exact name and creates it if absent.
// Returns the account and whether it was created.
func (r *Repository) GetOrCreate(name, broker string, accountNumber *string) (*domain.Account, bool, error) {
	existing, err := r.GetByName(name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	created, err := r.Create(name, broker, accountNumber)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetByID returns an account, or nil if it does not exist
func (r *Repository) GetByID(id int64) (*domain.Account, error) {
	return r.scanAccount(r.db.QueryRow(accountSelect+` WHERE id = ?`, id))
}

// GetByName returns an account by exact name, or nil if it does not exist
func (r *Repository) GetByName(name string) (*domain.Account, error) {
	return r.scanAccount(r.db.QueryRow(accountSelect+` WHERE name = ?`, strings.TrimSpace(name)))
}

// List returns every account ordered by name
func (r *Repository) List() ([]domain.Account, error) {
	rows, err := r.db.Query(accountSelect + ` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		a, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return result, nil
}

// Delete removes an account and, by cascade, its positions and their links.
// Returns false if the account did not exist.
func (r *Repository) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		r.log.Info().Int64("account_id", id).Msg("Account deleted")
	}
	return n > 0, nil
}

const accountSelect = `SELECT id, name, broker, account_number, created_at FROM accounts`

func (r *Repository) scanAccount(row database.Scanner) (*domain.Account, error) {
	var (
		a         domain.Account
		number    sql.NullString
		createdAt int64
	)
	err := row.Scan(&a.ID, &a.Name, &a.Broker, &number, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.AccountNumber = database.StringPtr(number)
	a.CreatedAt = database.UnixTime(createdAt)
	return &a, nil
}
