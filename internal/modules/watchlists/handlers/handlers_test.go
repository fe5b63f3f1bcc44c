package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *testingpkg.TestRouter {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)

	router := chi.NewRouter()
	NewHandler(
		watchlists.NewRepository(db.Conn(), zerolog.Nop()),
		watchlists.NewMemberRepository(db.Conn(), zerolog.Nop()),
		zerolog.Nop(),
	).RegisterRoutes(router)
	return testingpkg.NewTestRouter(router, db.Conn())
}

func TestCreateAndList(t *testing.T) {
	tr := setup(t)

	rec := tr.Do(t, http.MethodPost, "/watchlists", `{"name":"SA Picks","source":"seeking_alpha","allocation":"5000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created WatchlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Allocation)
	assert.Equal(t, "5000", created.Allocation.String())

	testingpkg.SeedMember(t, tr.Conn, created.ID, "AAPL")
	testingpkg.SeedMember(t, tr.Conn, created.ID, "MSFT")

	rec = tr.Do(t, http.MethodGet, "/watchlists", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []WatchlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ActiveMembers)
}

func TestCreate_Rejected(t *testing.T) {
	tr := setup(t)
	testingpkg.SeedWatchlist(t, tr.Conn, "Taken", "motley_fool", 0)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown source", `{"name":"X","source":"zacks"}`, http.StatusBadRequest},
		{"missing name", `{"name":"","source":"motley_fool"}`, http.StatusBadRequest},
		{"negative allocation", `{"name":"Y","source":"motley_fool","allocation":"-1"}`, http.StatusBadRequest},
		{"duplicate", `{"name":"Taken","source":"motley_fool"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Do(t, http.MethodPost, "/watchlists", tt.body).Code)
		})
	}
}

func TestGetMembers(t *testing.T) {
	tr := setup(t)
	id := testingpkg.SeedWatchlist(t, tr.Conn, "MF", "motley_fool", 0)
	testingpkg.SeedMember(t, tr.Conn, id, "NVDA")
	path := "/watchlists/" + strconv.FormatInt(id, 10) + "/members"

	rec := tr.Do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var members []domain.WatchlistMember
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 1)
	assert.Equal(t, "NVDA", members[0].Symbol)

	rec = tr.Do(t, http.MethodGet, path+"?symbol=TSLA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, tr.Do(t, http.MethodGet, "/watchlists/999/members", "").Code)
}

func TestSetAllocation(t *testing.T) {
	tr := setup(t)
	id := testingpkg.SeedWatchlist(t, tr.Conn, "MF", "motley_fool", 0)
	path := "/watchlists/" + strconv.FormatInt(id, 10) + "/allocation"

	rec := tr.Do(t, http.MethodPut, path, `{"allocation":"2500.50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Watchlist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Allocation)
	assert.Equal(t, "2500.5", updated.Allocation.String())

	rec = tr.Do(t, http.MethodPut, path, `{"allocation":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Nil(t, updated.Allocation)

	assert.Equal(t, http.StatusBadRequest, tr.Do(t, http.MethodPut, path, `{"allocation":"-5"}`).Code)
	assert.Equal(t, http.StatusNotFound, tr.Do(t, http.MethodPut, "/watchlists/999/allocation", `{"allocation":"1"}`).Code)
}
