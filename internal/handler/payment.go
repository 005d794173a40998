package handler

import (
	"net/http"

	"github.com/forgo/tontine/api/internal/middleware"
	"github.com/forgo/tontine/api/internal/model"
	"github.com/forgo/tontine/api/internal/service"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	svc *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Create handles POST /v1/payments - record a pending payment
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreatePaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	payment, err := h.svc.CreatePayment(ctx, userID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create payment"))
		return
	}

	WriteData(w, http.StatusCreated, payment, map[string]string{
		"self": "/v1/payments/" + payment.ID,
	})
}

// List handles GET /v1/payments - the caller's payments
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	payments, err := h.svc.ListUserPayments(ctx, userID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list payments"))
		return
	}

	WriteData(w, http.StatusOK, payments, nil)
}

// Get handles GET /v1/payments/{paymentId}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	paymentID := r.PathValue("paymentId")
	if paymentID == "" {
		WriteError(w, model.NewBadRequestError("payment ID required"))
		return
	}

	payment, err := h.svc.GetPayment(ctx, userID, paymentID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get payment"))
		return
	}

	WriteData(w, http.StatusOK, payment, nil)
}

// Settle handles POST /v1/payments/{paymentId}/settle - record the
// provider's final outcome
func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	paymentID := r.PathValue("paymentId")
	if paymentID == "" {
		WriteError(w, model.NewBadRequestError("payment ID required"))
		return
	}

	var req model.SettlePaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	payment, err := h.svc.SettlePayment(ctx, userID, paymentID, req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "settle payment"))
		return
	}

	WriteData(w, http.StatusOK, payment, nil)
}
