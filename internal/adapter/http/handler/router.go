package handler

import (
	"time"

	"merchant-settlement-service/internal/adapter/http/middleware"
	"merchant-settlement-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Settlements *SettlementHandler
	Withdrawals *WithdrawalHandler
	Health      *HealthHandler
	Tokens      ports.TokenService
	Claims      ports.ClaimStore
	ClaimTTL    time.Duration
	ClaimWait   time.Duration
	Mode        string
	Log         zerolog.Logger
}

// SetupRouter configures the gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(deps.Mode)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Log),
		middleware.Recovery(deps.Log),
	)

	router.GET("/health", deps.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admission := middleware.Idempotency(deps.Claims, deps.ClaimTTL, deps.ClaimWait, deps.Log)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(deps.Tokens))
	{
		v1.POST("/settlements", admission, deps.Settlements.Create)

		v1.POST("/withdrawals", admission, deps.Withdrawals.Create)
		v1.GET("/withdrawals", deps.Withdrawals.List)
		v1.GET("/withdrawals/:id", deps.Withdrawals.Get)
		v1.POST("/withdrawals/:id/cancel", admission, deps.Withdrawals.Cancel)
		v1.GET("/balance", deps.Withdrawals.Balance)
	}

	return router
}
