package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/portwatch/internal/clients/quotes"
	"github.com/aristath/portwatch/internal/config"
	"github.com/aristath/portwatch/internal/modules/imports"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/aristath/portwatch/internal/ratelimit"
	"github.com/aristath/portwatch/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates the clients and services on top of the repositories
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.SymbolRepo == nil {
		return fmt.Errorf("repositories are not initialized")
	}

	// Quote collaborator
	container.QuoteLimiter = ratelimit.NewSlidingWindow(cfg.Quotes.RateLimit, time.Minute, nil)
	container.QuoteClient = quotes.NewClient(quotes.Config{
		BaseURL:  cfg.Quotes.BaseURL,
		APIKey:   cfg.Quotes.APIKey,
		CacheTTL: cfg.Quotes.CacheTTL,
	}, container.QuoteCache, container.QuoteLimiter, log)
	if cfg.Quotes.APIKey == "" {
		log.Info().Msg("QUOTE_API_KEY not set; live prices limited to cached quotes")
	}

	// Links
	container.LinkManager = links.NewManager(container.DB.Conn(), nil, log)
	container.Reconciler = links.NewReconciler(container.LinkManager, container.MemberRepo, container.PositionRepo, log)

	// Importers
	schwab := imports.NewSchwabImporter(
		container.AccountRepo,
		container.SymbolRepo,
		container.PositionRepo,
		container.MemberRepo,
		container.LinkManager,
		log,
	)
	seekingAlpha := imports.NewSeekingAlphaImporter(
		container.WatchlistRepo,
		container.MemberRepo,
		container.SymbolRepo,
		container.SeekingAlphaRepo,
		container.Reconciler,
		log,
	)
	motleyFool := imports.NewMotleyFoolImporter(
		container.WatchlistRepo,
		container.MemberRepo,
		container.SymbolRepo,
		container.MotleyFoolRepo,
		container.Reconciler,
		log,
	)
	container.ImportService = imports.NewService(schwab, seekingAlpha, motleyFool, container.ImportRunRepo, log)

	// Summary views
	container.SummaryService = portfolio.NewSummaryService(
		container.PositionRepo,
		container.SymbolRepo,
		container.WatchlistRepo,
		container.MemberRepo,
		container.LinkManager,
		container.QuoteClient,
		cfg.AllocationBandPct,
		log,
	)

	// Backups, optionally shipped to object storage
	var uploader reliability.Uploader
	if cfg.Backup.UploadEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s3Uploader, err := reliability.NewS3Uploader(ctx, reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Prefix:          cfg.Backup.Prefix,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize backup uploader: %w", err)
		}
		uploader = s3Uploader
	}
	container.BackupService = reliability.NewBackupService(container.DB, cfg.Backup.Dir, cfg.Backup.Retention, uploader, log)

	log.Debug().Msg("Services initialized")
	return nil
}
