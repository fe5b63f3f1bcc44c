// Package handlers provides HTTP handlers for brokerage accounts.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/accounts"
	"github.com/aristath/portwatch/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles account HTTP requests
type Handler struct {
	accountRepo  *accounts.Repository
	positionRepo *portfolio.PositionRepository
	log          zerolog.Logger
}

// NewHandler creates a new account handler
func NewHandler(accountRepo *accounts.Repository, positionRepo *portfolio.PositionRepository, log zerolog.Logger) *Handler {
	return &Handler{
		accountRepo:  accountRepo,
		positionRepo: positionRepo,
		log:          log.With().Str("handler", "accounts").Logger(),
	}
}

// CreateAccountRequest is the body of POST /api/accounts
type CreateAccountRequest struct {
	Name          string  `json:"name"`
	Broker        string  `json:"broker"`
	AccountNumber *string `json:"account_number"`
}

// HandleListAccounts returns every account
// GET /api/accounts
func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.accountRepo.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.Account{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

// HandleCreateAccount creates an account
// POST /api/accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Broker) == "" {
		h.writeError(w, http.StatusBadRequest, "name and broker are required")
		return
	}

	existing, err := h.accountRepo.GetByName(req.Name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		h.writeError(w, http.StatusConflict, "account "+req.Name+" already exists")
		return
	}

	account, err := h.accountRepo.Create(req.Name, strings.TrimSpace(req.Broker), req.AccountNumber)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// HandleDeleteAccount deletes an account with its positions and links
// DELETE /api/accounts/{id}
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	found, err := h.accountRepo.Delete(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "account not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPositions returns the positions held in one account
// GET /api/accounts/{id}/positions
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	account, err := h.accountRepo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if account == nil {
		h.writeError(w, http.StatusNotFound, "account not found")
		return
	}

	positions, err := h.positionRepo.ListByAccount(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	h.writeJSON(w, http.StatusOK, positions)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
