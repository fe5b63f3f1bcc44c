package di

import (
	"fmt"

	"github.com/aristath/portwatch/internal/config"
	"github.com/aristath/portwatch/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabase opens the portwatch database and applies pending migrations
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "portwatch",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize portwatch database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
	}

	version, _ := db.SchemaVersion()
	log.Info().Str("path", db.Path()).Int("schema_version", version).Msg("Database initialized and schema applied")

	return &Container{DB: db}, nil
}
