package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/transactions"
	"github.com/aristath/portwatch/internal/modules/universe"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testingpkg.TestRouter, int64) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)

	repo := transactions.NewRepository(db.Conn(), universe.NewSymbolRepository(db.Conn(), zerolog.Nop()), zerolog.Nop())
	router := chi.NewRouter()
	NewHandler(repo, zerolog.Nop()).RegisterRoutes(router)
	return testingpkg.NewTestRouter(router, db.Conn()), testingpkg.SeedAccount(t, db.Conn(), "Individual")
}

func TestCreateAndList(t *testing.T) {
	tr, accountID := setup(t)

	body := fmt.Sprintf(`{"account_id":%d,"symbol":"aapl","type":"buy","shares":"4","price_per_share":"120.5","reason":"rebalance"}`, accountID)
	rec := tr.Do(t, http.MethodPost, "/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "AAPL", created.Symbol)
	assert.Equal(t, "482", created.TotalAmount.String())

	body = fmt.Sprintf(`{"account_id":%d,"symbol":"MSFT","type":"sell","shares":1,"price_per_share":300}`, accountID)
	require.Equal(t, http.StatusCreated, tr.Do(t, http.MethodPost, "/transactions", body).Code)

	rec = tr.Do(t, http.MethodGet, "/transactions?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = tr.Do(t, http.MethodGet, fmt.Sprintf("/transactions?account_id=%d", accountID), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	path := fmt.Sprintf("/transactions/%d", created.ID)
	assert.Equal(t, http.StatusOK, tr.Do(t, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNoContent, tr.Do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, tr.Do(t, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, tr.Do(t, http.MethodDelete, path, "").Code)
}

func TestCreate_Rejected(t *testing.T) {
	tr, accountID := setup(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{"shares":`, http.StatusBadRequest},
		{"bad type", fmt.Sprintf(`{"account_id":%d,"symbol":"AAPL","type":"hold","shares":"1","price_per_share":"1"}`, accountID), http.StatusBadRequest},
		{"zero shares", fmt.Sprintf(`{"account_id":%d,"symbol":"AAPL","type":"buy","shares":"0","price_per_share":"1"}`, accountID), http.StatusBadRequest},
		{"unknown account", `{"account_id":999,"symbol":"AAPL","type":"buy","shares":"1","price_per_share":"1"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Do(t, http.MethodPost, "/transactions", tt.body).Code)
		})
	}
}

func TestList_InvalidFilter(t *testing.T) {
	tr, _ := setup(t)
	assert.Equal(t, http.StatusBadRequest, tr.Do(t, http.MethodGet, "/transactions?account_id=abc", "").Code)

	rec := tr.Do(t, http.MethodGet, "/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
