package imports

import (
	"database/sql"
	"testing"

	"github.com/aristath/portwatch/internal/modules/accounts"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/aristath/portwatch/internal/modules/ratings"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/rs/zerolog"
)

type harness struct {
	conn         *sql.DB
	accounts     *accounts.Repository
	symbols      *universe.SymbolRepository
	positions    *portfolio.PositionRepository
	watchlists   *watchlists.Repository
	members      *watchlists.MemberRepository
	saRatings    *ratings.SeekingAlphaRepository
	mfRatings    *ratings.MotleyFoolRepository
	links        *links.Manager
	schwab       *SchwabImporter
	seekingAlpha *SeekingAlphaImporter
	motleyFool   *MotleyFoolImporter
	service      *Service
}

func newHarness(t *testing.T) (*harness, func()) {
	db, cleanup := testingpkg.NewTestDB(t)
	conn := db.Conn()
	log := zerolog.Nop()

	h := &harness{
		conn:       conn,
		accounts:   accounts.NewRepository(conn, log),
		symbols:    universe.NewSymbolRepository(conn, log),
		positions:  portfolio.NewPositionRepository(conn, log),
		watchlists: watchlists.NewRepository(conn, log),
		members:    watchlists.NewMemberRepository(conn, log),
		saRatings:  ratings.NewSeekingAlphaRepository(conn, log),
		mfRatings:  ratings.NewMotleyFoolRepository(conn, log),
		links:      links.NewManager(conn, nil, log),
	}
	reconciler := links.NewReconciler(h.links, h.members, h.positions, log)
	h.schwab = NewSchwabImporter(h.accounts, h.symbols, h.positions, h.members, h.links, log)
	h.seekingAlpha = NewSeekingAlphaImporter(h.watchlists, h.members, h.symbols, h.saRatings, reconciler, log)
	h.motleyFool = NewMotleyFoolImporter(h.watchlists, h.members, h.symbols, h.mfRatings, reconciler, log)
	h.service = NewService(h.schwab, h.seekingAlpha, h.motleyFool, NewRunRepository(conn, log), log)
	return h, cleanup
}
