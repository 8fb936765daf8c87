package middleware

import (
	"context"
	"time"

	"merchant-settlement-service/internal/core/domain"
	"merchant-settlement-service/internal/core/ports"
	"merchant-settlement-service/pkg/apperror"
	"merchant-settlement-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderIdempotencyKey carries the client-chosen idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// CtxAdmission holds the admission outcome for downstream handlers.
const CtxAdmission = "admission"

// Idempotency is the admission filter for settlement submissions. Each
// request must carry an Idempotency-Key header; the first request under a
// given key claims it in the shared store and proceeds, later requests with
// the same key are rejected with a conflict. The claim is written before the
// event is appended, so a key is burned even when the append later fails.
//
// The filter fails open: when the claim store is unreachable or slow, the
// request proceeds with a degraded admission rather than being refused.
// Losing duplicate suppression is recoverable downstream; refusing payments
// is not.
func Idempotency(store ports.ClaimStore, ttl, timeout time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			response.Error(c, apperror.ErrMissingIdempotencyKey())
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		claimed, err := store.SetIfAbsent(ctx, key, ttl)
		if err != nil {
			log.Warn().Err(err).
				Str("idempotency_key", key).
				Msg("claim store unavailable, admitting request without duplicate suppression")
			c.Set(CtxAdmission, domain.AdmissionDegraded)
			c.Next()
			return
		}
		if !claimed {
			response.Error(c, apperror.ErrDuplicateRequest())
			c.Abort()
			return
		}

		c.Set(CtxAdmission, domain.AdmissionAdmitted)
		c.Next()
	}
}
