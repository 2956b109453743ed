package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/auth"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

type LedgerHandler struct {
	ledgerStore *store.LedgerStore
	userStore   *store.UserStore
	broadcaster
}

func NewLedgerHandler(ls *store.LedgerStore, us *store.UserStore, notifier notify.Notifier, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerStore: ls,
		userStore:   us,
		broadcaster: broadcaster{notifier: notifier, logger: logger},
	}
}

// loadUser resolves {id}. Users may read their own ledger; admins any.
func (h *LedgerHandler) loadUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	if !auth.IsAdmin(r.Context()) && auth.UserID(r.Context()) != id {
		writeError(w, h.logger, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "read ledger", Entity: "user", ID: id,
		}, "")
		return nil, false
	}
	user, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get user")
		return nil, false
	}
	if user == nil {
		writeError(w, h.logger, apperr.NotFound("user", id), "")
		return nil, false
	}
	return user, true
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	bal, err := h.ledgerStore.Balance(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err, "failed to get balance")
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	txns, err := h.ledgerStore.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list transactions")
		return
	}
	if txns == nil {
		txns = []model.PointsTransaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

type adjustmentRequest struct {
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// Adjust appends a manual correction. Corrections never edit earlier entries.
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req adjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Points == 0 {
		writeError(w, h.logger, apperr.Validation("points", "must be non-zero"), "")
		return
	}
	if req.Description == "" {
		writeError(w, h.logger, apperr.Validation("description", "is required"), "")
		return
	}

	txn, err := h.ledgerStore.Record(r.Context(), model.PointsTransaction{
		UserID:      user.ID,
		Points:      req.Points,
		Source:      model.SourceAdjustment,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to record adjustment")
		return
	}

	h.logger.Info("points adjusted", "user_id", user.ID, "points", req.Points, "actor_id", auth.UserID(r.Context()))
	h.emit(r, "points", "adjusted", txn.ID, map[string]any{"user_id": user.ID, "points": req.Points})
	writeJSON(w, http.StatusCreated, txn)
}
