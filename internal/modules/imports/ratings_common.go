package imports

import (
	"errors"
	"fmt"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/rs/zerolog"
)

// watchlistImport holds the collaborators shared by both ratings importers
type watchlistImport struct {
	watchlists *watchlists.Repository
	members    *watchlists.MemberRepository
	symbols    *universe.SymbolRepository
	reconciler *links.Reconciler
	log        zerolog.Logger
}

// resolve performs the referential check. A nil watchlist with a nil error
// means the import was rejected and result explains why.
func (w *watchlistImport) resolve(watchlistID int64, source domain.WatchlistSource) (*domain.Watchlist, *Result, error) {
	list, err := w.watchlists.Require(watchlistID, source)
	switch {
	case errors.Is(err, domain.ErrWatchlistNotFound):
		return nil, failed("Watchlist %d not found", watchlistID), nil
	case errors.Is(err, domain.ErrWrongSource):
		return nil, failed("%v", err), nil
	case err != nil:
		return nil, nil, err
	}
	return list, nil, nil
}

// admit upserts the symbol and ensures its active membership
func (w *watchlistImport) admit(watchlistID int64, update domain.SymbolUpdate) error {
	if _, _, err := w.symbols.Upsert(update); err != nil {
		return err
	}
	if _, err := w.members.EnsureActive(watchlistID, update.Symbol); err != nil {
		return err
	}
	return nil
}

// finish reconciles membership and writes the summary message.
// admitted holds symbols whose rows were stored, retained those whose rows were
// rejected but which must not lose an existing membership.
func (w *watchlistImport) finish(list *domain.Watchlist, admitted, retained []string, result *Result) {
	valid := result.Symbols.Added + result.Symbols.Updated
	result.Message = fmt.Sprintf("Imported %d ratings into %s (%d added, %d updated)",
		valid, list.Name, result.Symbols.Added, result.Symbols.Updated)

	// An export with no usable rows must not empty the watchlist
	if valid > 0 {
		rec, err := w.reconciler.Reconcile(list.ID, admitted, retained)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("membership reconciliation failed: %v", err))
		} else {
			result.Dropped = rec.Dropped
			result.Reinstated = rec.Reinstated
			if len(rec.Removed) > 0 {
				result.Message += fmt.Sprintf("; %d symbols left the watchlist", len(rec.Removed))
			}
		}
	}
	if len(result.Errors) > 0 {
		result.Message += fmt.Sprintf("; %d rows skipped", len(result.Errors))
	}

	w.log.Info().
		Str("watchlist", list.Name).
		Int("added", result.Symbols.Added).
		Int("updated", result.Symbols.Updated).
		Int64("dropped", result.Dropped).
		Int64("reinstated", result.Reinstated).
		Int("errors", len(result.Errors)).
		Msg("Ratings import complete")
}

func newRatingsResult(list *domain.Watchlist) *Result {
	return &Result{
		Success:   true,
		Symbols:   &Counts{},
		Watchlist: &WatchlistRef{ID: list.ID, Name: list.Name},
	}
}
