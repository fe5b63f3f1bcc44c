package links

import (
	"fmt"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
)

// MembershipStore is the subset of the membership repository the reconciler needs
type MembershipStore interface {
	ActiveSymbols(watchlistID int64) ([]string, error)
	Remove(watchlistID int64, symbol string) (bool, error)
}

// PositionFinder lists the positions held on a symbol
type PositionFinder interface {
	ListBySymbol(symbol string) ([]domain.Position, error)
}

// Reconciliation counts the link changes made for one watchlist import
type Reconciliation struct {
	Removed    []string `json:"removed"`
	Dropped    int64    `json:"dropped"`
	Reinstated int64    `json:"reinstated"`
	Linked     int      `json:"linked"`
}

// Reconciler applies a fresh watchlist export to membership and links.
// Members missing from the export lose their membership and their links are
// dropped. Imported symbols have their links reinstated or created.
type Reconciler struct {
	manager   *Manager
	members   MembershipStore
	positions PositionFinder
	log       zerolog.Logger
}

// NewReconciler creates a membership reconciler
func NewReconciler(manager *Manager, members MembershipStore, positions PositionFinder, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		manager:   manager,
		members:   members,
		positions: positions,
		log:       log.With().Str("service", "link_reconciler").Logger(),
	}
}

// Reconcile diffs the active membership of watchlistID against an import.
// admitted holds the symbols whose rows were imported; their memberships must
// already be active and their held positions are linked or reinstated.
// retained additionally holds symbols whose rows were rejected: they keep an
// existing membership but gain no links.
func (r *Reconciler) Reconcile(watchlistID int64, admitted, retained []string) (*Reconciliation, error) {
	link := normalizedSet(admitted)
	keep := normalizedSet(retained)
	for symbol := range link {
		keep[symbol] = true
	}

	active, err := r.members.ActiveSymbols(watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active members: %w", err)
	}

	result := &Reconciliation{}
	for _, symbol := range active {
		if keep[symbol] {
			continue
		}
		if _, err := r.members.Remove(watchlistID, symbol); err != nil {
			return nil, err
		}
		dropped, err := r.manager.MarkDroppedBySymbol(symbol, watchlistID)
		if err != nil {
			return nil, err
		}
		result.Removed = append(result.Removed, symbol)
		result.Dropped += dropped
	}

	for symbol := range link {
		reinstated, err := r.manager.ReactivateBySymbol(symbol, watchlistID)
		if err != nil {
			return nil, err
		}
		result.Reinstated += reinstated

		positions, err := r.positions.ListBySymbol(symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load positions for %s: %w", symbol, err)
		}
		for _, p := range positions {
			if !p.Shares.IsPositive() {
				continue
			}
			if _, err := r.manager.CreateLink(p.ID, watchlistID); err != nil {
				return nil, err
			}
			result.Linked++
		}
	}

	r.log.Info().
		Int64("watchlist_id", watchlistID).
		Int("removed", len(result.Removed)).
		Int64("dropped", result.Dropped).
		Int64("reinstated", result.Reinstated).
		Msg("Watchlist membership reconciled")
	return result, nil
}

func normalizedSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[symbols.Normalize(s)] = true
	}
	return set
}
