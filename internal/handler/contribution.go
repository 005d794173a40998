package handler

import (
	"net/http"

	"github.com/forgo/tontine/api/internal/middleware"
	"github.com/forgo/tontine/api/internal/model"
	"github.com/forgo/tontine/api/internal/service"
)

// ContributionHandler handles contribution HTTP requests. Bulk
// generation and group aggregates live here too since they share the
// same URL space.
type ContributionHandler struct {
	svc       *service.ContributionService
	generator *service.GeneratorService
	stats     *service.StatisticsService
}

// ContributionHandlerConfig holds dependencies for the contribution handler
type ContributionHandlerConfig struct {
	Service    *service.ContributionService
	Generator  *service.GeneratorService
	Statistics *service.StatisticsService
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(cfg ContributionHandlerConfig) *ContributionHandler {
	return &ContributionHandler{
		svc:       cfg.Service,
		generator: cfg.Generator,
		stats:     cfg.Statistics,
	}
}

// Create handles POST /v1/groups/{groupId}/contributions - record an
// ad-hoc contribution
func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	var req model.CreateContributionRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	contribution, err := h.svc.CreateContribution(ctx, userID, groupID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create contribution"))
		return
	}

	WriteData(w, http.StatusCreated, contribution, map[string]string{
		"self": "/v1/contributions/" + contribution.ID,
	})
}

// Generate handles POST /v1/groups/{groupId}/contributions/generate -
// materialize scheduled contributions for a window
func (h *ContributionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	var req model.GenerateContributionsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	created, err := h.generator.Generate(ctx, userID, groupID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "generate contributions"))
		return
	}

	WriteData(w, http.StatusCreated, created, nil)
}

// ListByGroup handles GET /v1/groups/{groupId}/contributions - list a
// group's contributions, optionally filtered by effective status
func (h *ContributionHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	status := model.ContributionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "status", Message: "status must be PENDING, PAID, CANCELLED, or OVERDUE"},
		}))
		return
	}

	contributions, err := h.svc.ListGroupContributions(ctx, userID, groupID, status)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list contributions"))
		return
	}

	WriteData(w, http.StatusOK, contributions, nil)
}

// ListOverdue handles GET /v1/groups/{groupId}/contributions/overdue
func (h *ContributionHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	contributions, err := h.stats.GetOverdue(ctx, userID, groupID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list overdue contributions"))
		return
	}

	WriteData(w, http.StatusOK, contributions, nil)
}

// Statistics handles GET /v1/groups/{groupId}/statistics
func (h *ContributionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	stats, err := h.stats.GetStatistics(ctx, userID, groupID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "group statistics"))
		return
	}

	WriteData(w, http.StatusOK, stats, nil)
}

// Get handles GET /v1/contributions/{contributionId}
func (h *ContributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	contributionID := r.PathValue("contributionId")
	if contributionID == "" {
		WriteError(w, model.NewBadRequestError("contribution ID required"))
		return
	}

	contribution, err := h.svc.GetContribution(ctx, userID, contributionID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get contribution"))
		return
	}

	WriteData(w, http.StatusOK, contribution, nil)
}

// MarkPaid handles POST /v1/contributions/{contributionId}/pay
func (h *ContributionHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	contributionID := r.PathValue("contributionId")
	if contributionID == "" {
		WriteError(w, model.NewBadRequestError("contribution ID required"))
		return
	}

	var req model.MarkPaidRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	contribution, err := h.svc.MarkAsPaid(ctx, userID, contributionID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "mark contribution paid"))
		return
	}

	WriteData(w, http.StatusOK, contribution, nil)
}

// AddPenalty handles POST /v1/contributions/{contributionId}/penalties
func (h *ContributionHandler) AddPenalty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	contributionID := r.PathValue("contributionId")
	if contributionID == "" {
		WriteError(w, model.NewBadRequestError("contribution ID required"))
		return
	}

	var req model.AddPenaltyRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	contribution, err := h.svc.AddPenalty(ctx, userID, contributionID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "add penalty"))
		return
	}

	WriteData(w, http.StatusOK, contribution, nil)
}

// Cancel handles POST /v1/contributions/{contributionId}/cancel
func (h *ContributionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	contributionID := r.PathValue("contributionId")
	if contributionID == "" {
		WriteError(w, model.NewBadRequestError("contribution ID required"))
		return
	}

	var req model.CancelContributionRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	contribution, err := h.svc.CancelContribution(ctx, userID, contributionID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "cancel contribution"))
		return
	}

	WriteData(w, http.StatusOK, contribution, nil)
}

// ListMine handles GET /v1/me/contributions - the caller's own
// contributions across groups, optionally narrowed by group_id
func (h *ContributionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.URL.Query().Get("group_id")

	contributions, err := h.svc.ListUserContributions(ctx, userID, groupID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list own contributions"))
		return
	}

	WriteData(w, http.StatusOK, contributions, nil)
}
