package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/upsidefi/metaswap/internal/api/handler"
	"github.com/upsidefi/metaswap/internal/api/middleware"
	"github.com/upsidefi/metaswap/internal/config"
	"github.com/upsidefi/metaswap/internal/service"
	"github.com/upsidefi/metaswap/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc     *service.AuthService
	RegistrySvc *service.RegistryService
	ExchangeSvc *service.ExchangeService
	TreasurySvc *service.TreasuryService
	LedgerSvc   *service.LedgerService
	Hub         *ws.Hub
	Cfg         *config.Config
}

// SetupRouter creates and configures the public Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(deps.AuthSvc)
	marketH := handler.NewMarketHandler(deps.RegistrySvc, deps.ExchangeSvc, deps.TreasurySvc)
	swapH := handler.NewSwapHandler(deps.ExchangeSvc)
	ledgerH := handler.NewLedgerHandler(deps.LedgerSvc)

	// ── JWT middleware (shared) ──────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for registration
	swapRL := middleware.RateLimitMiddleware(30) // 30 req/s per IP for swaps

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", authH.Register)
		}

		// ── Markets (public reads) ───────────────────────────────────────────
		markets := api.Group("/markets")
		{
			markets.GET("", marketH.List)
			markets.GET("/resolve", marketH.Resolve)
			markets.GET("/:id", marketH.GetByID)
			markets.GET("/:id/fee", marketH.Fee)
			markets.GET("/:id/quote", marketH.Quote)
		}

		// ── Authenticated routes ─────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			authed.POST("/markets/tokenize", marketH.Tokenize)
			authed.POST("/markets/:id/claim-deployer-fees", marketH.ClaimDeployerFees)

			swaps := authed.Group("/swaps")
			swaps.Use(swapRL)
			{
				swaps.POST("", swapH.Create)
			}

			ledger := authed.Group("/ledger")
			{
				ledger.GET("/balances", ledgerH.Balances)
				ledger.GET("/allowance", ledgerH.Allowance)
				ledger.POST("/approve", ledgerH.Approve)
				ledger.POST("/faucet", ledgerH.Faucet)
			}
		}
	}

	// ── WebSocket ────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ──────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured ones.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range cfg.Server.AllowedOrigins {
				if allowed == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
