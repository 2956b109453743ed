package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/auth"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/redemption"
)

// maxBulkIDs caps one bulk request.
const maxBulkIDs = 200

type RedemptionHandler struct {
	svc    *redemption.Service
	logger *slog.Logger
}

func NewRedemptionHandler(svc *redemption.Service, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{svc: svc, logger: logger}
}

func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RedemptionStatus(r.URL.Query().Get("status"))
	reds, err := h.svc.List(r.Context(), auth.UserID(r.Context()), status)
	if err != nil {
		writeError(w, h.logger, err, "failed to list redemptions")
		return
	}
	if reds == nil {
		reds = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, reds)
}

// Mine lists the authenticated user's own redemptions.
func (h *RedemptionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	reds, err := h.svc.ListForUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to list redemptions")
		return
	}
	if reds == nil {
		reds = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, reds)
}

func (h *RedemptionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	red, err := h.svc.Approve(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to approve redemption")
		return
	}
	writeJSON(w, http.StatusOK, red)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *RedemptionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	red, err := h.svc.Reject(r.Context(), id, auth.UserID(r.Context()), req.Reason)
	if err != nil {
		writeError(w, h.logger, err, "failed to reject redemption")
		return
	}
	writeJSON(w, http.StatusOK, red)
}

type bulkRequest struct {
	IDs    []int64 `json:"ids"`
	Reason string  `json:"reason"`
}

func (req bulkRequest) validate() error {
	if len(req.IDs) == 0 {
		return apperr.Validation("ids", "at least one id is required")
	}
	if len(req.IDs) > maxBulkIDs {
		return apperr.Validation("ids", "too many ids")
	}
	return nil
}

func (h *RedemptionHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	res, err := h.svc.BulkApprove(r.Context(), req.IDs, auth.UserID(r.Context()))
	h.writeBulk(w, res, err, "failed to approve redemptions")
}

func (h *RedemptionHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	res, err := h.svc.BulkReject(r.Context(), req.IDs, auth.UserID(r.Context()), req.Reason)
	h.writeBulk(w, res, err, "failed to reject redemptions")
}

// partialBulkResponse reports a bulk decision that stopped after some members
// were already committed.
type partialBulkResponse struct {
	Result redemption.BulkResult `json:"result"`
	Error  string                `json:"error"`
}

// writeBulk answers 207 with the partial result when a bulk call stopped
// after touching some members, since those decisions are committed.
func (h *RedemptionHandler) writeBulk(w http.ResponseWriter, res redemption.BulkResult, err error, msg string) {
	if err == nil {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if len(res.Processed)+len(res.Skipped)+len(res.Failed) == 0 {
		writeError(w, h.logger, err, msg)
		return
	}

	h.logger.Error("bulk decision stopped early",
		"error", err, "processed", len(res.Processed), "skipped", len(res.Skipped), "failed", len(res.Failed))
	writeJSON(w, http.StatusMultiStatus, partialBulkResponse{
		Result: res,
		Error:  msg + ": stopped after " + strconv.Itoa(len(res.Processed)) + " processed",
	})
}

func (h *RedemptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err, "failed to delete redemption")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
