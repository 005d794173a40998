package handler

import (
	"net/http"
	"strconv"

	"github.com/forgo/tontine/api/internal/middleware"
	"github.com/forgo/tontine/api/internal/model"
	"github.com/forgo/tontine/api/internal/service"
)

// ReliabilityHandler exposes reliability scores and their history
type ReliabilityHandler struct {
	svc *service.ReliabilityService
}

// NewReliabilityHandler creates a new reliability handler
func NewReliabilityHandler(svc *service.ReliabilityService) *ReliabilityHandler {
	return &ReliabilityHandler{svc: svc}
}

// GetMine handles GET /v1/me/reliability - the caller's current standing
func (h *ReliabilityHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	report, err := h.svc.GetReport(ctx, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "reliability report"))
		return
	}

	WriteData(w, http.StatusOK, report, nil)
}

// GetHistory handles GET /v1/me/reliability/history - the caller's
// score events, newest first
func (h *ReliabilityHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.svc.GetHistory(ctx, userID, limit)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "reliability history"))
		return
	}

	WriteData(w, http.StatusOK, events, nil)
}

// GetUserScore handles GET /v1/users/{userId}/reliability - another
// user's current score. Only the score itself is visible; the full
// breakdown stays private to its owner.
func (h *ReliabilityHandler) GetUserScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if middleware.GetUserID(ctx) == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	targetID := r.PathValue("userId")
	report, err := h.svc.GetReport(ctx, targetID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "reliability score"))
		return
	}

	WriteData(w, http.StatusOK, map[string]any{
		"user_id": report.UserID,
		"score":   report.Score,
	}, nil)
}

// Recompute handles POST /v1/me/reliability/recompute - rebuild the
// caller's score from their full contribution history
func (h *ReliabilityHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	report, err := h.svc.Recompute(ctx, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "reliability recompute"))
		return
	}

	WriteData(w, http.StatusOK, report, nil)
}
