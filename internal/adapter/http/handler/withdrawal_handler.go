package handler

import (
	"merchant-settlement-service/internal/adapter/http/dto"
	"merchant-settlement-service/internal/adapter/http/middleware"
	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"
	"merchant-settlement-service/pkg/apperror"
	"merchant-settlement-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WithdrawalHandler exposes merchant withdrawal operations.
type WithdrawalHandler struct {
	withdrawals ports.WithdrawalService
	log         zerolog.Logger
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawals ports.WithdrawalService, log zerolog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, log: log}
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	w, err := h.withdrawals.CreateWithdrawal(c.Request.Context(), ports.WithdrawalRequest{
		SourceTransactionID: req.SourceTransactionID,
		Amount:              req.Amount,
		Reason:              req.Reason,
		Metadata:            req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewWithdrawalResponse(w))
}

// Cancel handles POST /api/v1/withdrawals/:id/cancel.
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	w, err := h.withdrawals.CancelWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWithdrawalResponse(w))
}

// Get handles GET /api/v1/withdrawals/:id.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	w, err := h.withdrawals.GetWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWithdrawalResponse(w))
}

// List handles GET /api/v1/withdrawals for the authenticated merchant,
// optionally filtered by ?status=.
func (h *WithdrawalHandler) List(c *gin.Context) {
	merchantID := c.GetString(middleware.CtxMerchantID)

	var status *domain.WithdrawalStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.WithdrawalStatus(raw)
		switch s {
		case domain.WithdrawalStatusPending, domain.WithdrawalStatusSucceeded,
			domain.WithdrawalStatusFailed, domain.WithdrawalStatusCanceled:
			status = &s
		default:
			response.Error(c, apperror.Validation("unknown withdrawal status"))
			return
		}
	}

	list, err := h.withdrawals.ListWithdrawals(c.Request.Context(), merchantID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.WithdrawalResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewWithdrawalResponse(&list[i]))
	}
	response.OK(c, out)
}

// Balance handles GET /api/v1/balance for the authenticated merchant.
func (h *WithdrawalHandler) Balance(c *gin.Context) {
	merchantID := c.GetString(middleware.CtxMerchantID)

	b, err := h.withdrawals.GetBalance(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBalanceResponse(b))
}
