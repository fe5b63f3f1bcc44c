package di

import (
	"fmt"

	"github.com/aristath/portwatch/internal/clientdata"
	"github.com/aristath/portwatch/internal/modules/accounts"
	"github.com/aristath/portwatch/internal/modules/imports"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/aristath/portwatch/internal/modules/ratings"
	"github.com/aristath/portwatch/internal/modules/transactions"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container database is not initialized")
	}
	conn := container.DB.Conn()

	container.SymbolRepo = universe.NewSymbolRepository(conn, log)
	container.AccountRepo = accounts.NewRepository(conn, log)
	container.PositionRepo = portfolio.NewPositionRepository(conn, log)
	container.WatchlistRepo = watchlists.NewRepository(conn, log)
	container.MemberRepo = watchlists.NewMemberRepository(conn, log)
	container.SeekingAlphaRepo = ratings.NewSeekingAlphaRepository(conn, log)
	container.MotleyFoolRepo = ratings.NewMotleyFoolRepository(conn, log)
	container.TransactionRepo = transactions.NewRepository(conn, container.SymbolRepo, log)
	container.ImportRunRepo = imports.NewRunRepository(conn, log)
	container.QuoteCache = clientdata.NewQuoteCache(conn)

	log.Debug().Msg("Repositories initialized")
	return nil
}
