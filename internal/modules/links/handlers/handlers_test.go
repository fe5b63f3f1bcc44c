package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/links"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tr          *testingpkg.TestRouter
	positionID  int64
	watchlistID int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)

	router := chi.NewRouter()
	NewHandler(links.NewManager(db.Conn(), time.Now, zerolog.Nop()), zerolog.Nop()).RegisterRoutes(router)

	account := testingpkg.SeedAccount(t, db.Conn(), "Individual")
	return fixture{
		tr:          testingpkg.NewTestRouter(router, db.Conn()),
		positionID:  testingpkg.SeedPosition(t, db.Conn(), account, "AAPL", 5),
		watchlistID: testingpkg.SeedWatchlist(t, db.Conn(), "SA Picks", "seeking_alpha", 0),
	}
}

func (f fixture) path(suffix string) string {
	return fmt.Sprintf("/links/%d/%d%s", f.positionID, f.watchlistID, suffix)
}

func decodeLink(t *testing.T, body []byte) domain.Link {
	t.Helper()
	var link domain.Link
	require.NoError(t, json.Unmarshal(body, &link))
	return link
}

func TestLinkLifecycle(t *testing.T) {
	f := setup(t)

	rec := f.tr.Do(t, http.MethodPost, "/links", fmt.Sprintf(`{"position_id":%d,"watchlist_id":%d}`, f.positionID, f.watchlistID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.LinkActive, decodeLink(t, rec.Body.Bytes()).Status)

	// Reactivating an active link is not a transition
	assert.Equal(t, http.StatusNotFound, f.tr.Do(t, http.MethodPost, f.path("/reactivate"), "").Code)

	rec = f.tr.Do(t, http.MethodPost, f.path("/drop"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	dropped := decodeLink(t, rec.Body.Bytes())
	assert.Equal(t, domain.LinkDropped, dropped.Status)
	assert.NotNil(t, dropped.DroppedAt)

	rec = f.tr.Do(t, http.MethodGet, "/links/dropped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var details []domain.LinkDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	require.Len(t, details, 1)
	assert.Equal(t, "AAPL", details[0].Symbol)
	assert.Equal(t, "Individual", details[0].AccountName)

	rec = f.tr.Do(t, http.MethodPost, f.path("/reactivate"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	reactivated := decodeLink(t, rec.Body.Bytes())
	assert.Equal(t, domain.LinkActive, reactivated.Status)
	assert.Nil(t, reactivated.DroppedAt)

	rec = f.tr.Do(t, http.MethodGet, fmt.Sprintf("/links/position/%d", f.positionID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Link
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, f.tr.Do(t, http.MethodDelete, f.path(""), "").Code)
	assert.Equal(t, http.StatusNotFound, f.tr.Do(t, http.MethodGet, f.path(""), "").Code)
	assert.Equal(t, http.StatusNotFound, f.tr.Do(t, http.MethodDelete, f.path(""), "").Code)
}

func TestCreateLink_Rejected(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusBadRequest, f.tr.Do(t, http.MethodPost, "/links", `{"position_id":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.tr.Do(t, http.MethodPost, "/links", `[`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		f.tr.Do(t, http.MethodPost, "/links", fmt.Sprintf(`{"position_id":%d,"watchlist_id":999}`, f.positionID)).Code)
	assert.Equal(t, http.StatusBadRequest, f.tr.Do(t, http.MethodPost, "/links/x/1/drop", "").Code)
}

func TestListDropped_Empty(t *testing.T) {
	f := setup(t)
	rec := f.tr.Do(t, http.MethodGet, "/links/dropped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
