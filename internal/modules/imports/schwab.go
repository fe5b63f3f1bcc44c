package imports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/accounts"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
)

// SchwabBroker is the broker label of accounts created by the Schwab importer
const SchwabBroker = "Schwab"

var schwabHeaderPattern = regexp.MustCompile(`^"?Positions for account (.+?) \.\.\.([A-Za-z0-9]+)`)

// Rows that are not equity positions
var schwabSentinels = map[string]bool{
	"Cash & Cash Investments": true,
	"Account Total":           true,
}

// SchwabImporter imports a Schwab "Positions" CSV export for one account
type SchwabImporter struct {
	accounts  *accounts.Repository
	symbols   *universe.SymbolRepository
	positions *portfolio.PositionRepository
	members   *watchlists.MemberRepository
	links     *links.Manager
	log       zerolog.Logger
}

// NewSchwabImporter creates a Schwab position importer
func NewSchwabImporter(
	accountRepo *accounts.Repository,
	symbolRepo *universe.SymbolRepository,
	positionRepo *portfolio.PositionRepository,
	memberRepo *watchlists.MemberRepository,
	linkManager *links.Manager,
	log zerolog.Logger,
) *SchwabImporter {
	return &SchwabImporter{
		accounts:  accountRepo,
		symbols:   symbolRepo,
		positions: positionRepo,
		members:   memberRepo,
		links:     linkManager,
		log:       log.With().Str("importer", SourceSchwab).Logger(),
	}
}

// Import parses content and upserts its positions.
// The returned error is reserved for storage failures before any row was processed.
func (i *SchwabImporter) Import(ctx context.Context, content string) (*Result, error) {
	lines := splitLines(content)
	if len(lines) < 4 {
		return failed("Invalid Schwab export: expected an account header line, a blank line, a column header and at least one position row"), nil
	}

	match := schwabHeaderPattern.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if match == nil {
		return failed(`Invalid Schwab export: first line must look like "Positions for account NAME ...1234"`), nil
	}
	accountName := strings.TrimSpace(match[1])
	accountNumber := "..." + match[2]

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[1:], "\n")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return failed("Invalid Schwab export: missing column header row"), nil
	}
	idx := headerIndex(header)
	if !has(idx, "symbol") {
		return failed("Invalid Schwab export: missing Symbol column"), nil
	}
	if !has(idx, "quantity", "qty(quantity)", "qty") {
		return failed("Invalid Schwab export: missing Quantity column"), nil
	}

	account, created, err := i.accounts.GetOrCreate(accountName, SchwabBroker, &accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account %s: %w", accountName, err)
	}
	if created {
		i.log.Info().Str("account", accountName).Msg("Created account from import")
	}

	result := &Result{
		Success:   true,
		Positions: &Counts{},
		Account:   &AccountRef{ID: account.ID, Name: account.Name},
	}

	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.rowError(row, "", "malformed CSV: %v", err)
			continue
		}
		i.importRow(row, record, idx, account.ID, result)
	}

	total := result.Positions.Added + result.Positions.Updated
	result.Message = fmt.Sprintf("Imported %d positions into %s (%d added, %d updated)",
		total, account.Name, result.Positions.Added, result.Positions.Updated)
	if len(result.Errors) > 0 {
		result.Message += fmt.Sprintf("; %d rows skipped", len(result.Errors))
	}

	i.log.Info().
		Str("account", account.Name).
		Int("added", result.Positions.Added).
		Int("updated", result.Positions.Updated).
		Int("errors", len(result.Errors)).
		Msg("Schwab import complete")
	return result, nil
}

func (i *SchwabImporter) importRow(row int, record []string, idx map[string]int, accountID int64, result *Result) {
	rawSymbol := strings.TrimSpace(cell(record, idx, "symbol"))
	if rawSymbol == "" || schwabSentinels[rawSymbol] || strings.Contains(rawSymbol, "Total") || symbols.IsBlank(rawSymbol) {
		return
	}
	symbol := symbols.Normalize(rawSymbol)

	shares, err := parseShares(cell(record, idx, "quantity", "qty(quantity)", "qty"))
	if err != nil {
		result.rowError(row, symbol, "%v", err)
		return
	}
	costBasis, err := parseDecimal(cell(record, idx, "costbasis"))
	if err != nil {
		result.rowError(row, symbol, "invalid cost basis: %v", err)
		return
	}

	if _, _, err := i.symbols.Upsert(domain.SymbolUpdate{
		Symbol:      symbol,
		CompanyName: optionalText(cell(record, idx, "description")),
	}); err != nil {
		result.rowError(row, symbol, "%v", err)
		return
	}

	position, created, err := i.positions.Upsert(domain.PositionUpdate{
		AccountID: accountID,
		Symbol:    symbol,
		Shares:    shares,
		CostBasis: costBasis,
	})
	if err != nil {
		result.rowError(row, symbol, "%v", err)
		return
	}
	if created {
		result.Positions.Added++
	} else {
		result.Positions.Updated++
	}

	// Link the holding to every watchlist currently recommending it
	lists, err := i.members.ActiveWatchlistsForSymbol(symbol)
	if err != nil {
		result.rowError(row, symbol, "failed to load watchlists: %v", err)
		return
	}
	for _, w := range lists {
		if _, err := i.links.CreateLink(position.ID, w.ID); err != nil {
			result.rowError(row, symbol, "failed to link to watchlist %s: %v", w.Name, err)
		}
	}
}

// splitLines splits text into lines, tolerating CRLF and a BOM, and drops trailing blank lines
func splitLines(content string) []string {
	content = strings.TrimPrefix(content, bom)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
