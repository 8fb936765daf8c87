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

// SettlementHandler accepts settlement submissions and appends them to the
// Event Log. The 202 it returns means "durably enqueued", never "settled".
type SettlementHandler struct {
	producer ports.EventProducer
	log      zerolog.Logger
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(producer ports.EventProducer, log zerolog.Logger) *SettlementHandler {
	return &SettlementHandler{producer: producer, log: log}
}

// Create handles POST /api/v1/settlements.
func (h *SettlementHandler) Create(c *gin.Context) {
	var req dto.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	entryID, err := h.producer.PublishSettlementRequested(c.Request.Context(), req.ToDomain())
	if err != nil {
		response.Error(c, err)
		return
	}

	admission := domain.AdmissionAdmitted
	if v, ok := c.Get(middleware.CtxAdmission); ok {
		if a, ok := v.(domain.Admission); ok {
			admission = a
		}
	}

	response.Accepted(c, dto.SettlementAcceptedResponse{
		EntryID:   entryID,
		PaymentID: req.PaymentID,
		Status:    "enqueued",
		Admission: admission.String(),
	})
}
