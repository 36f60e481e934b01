package backoffice

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/upsidefi/metaswap/internal/backoffice/handler"
	"github.com/upsidefi/metaswap/internal/config"
	"github.com/upsidefi/metaswap/internal/service"
)

// BackofficeDeps bundles every dependency needed for the owner router.
type BackofficeDeps struct {
	TreasurySvc *service.TreasuryService
	Cfg         *config.Config
}

// SetupBackofficeRouter creates the owner Gin engine, served on its own port
// and gated by an API key plus an optional IP allowlist.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipAllowlistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	feeH := handler.NewFeeAdminHandler(deps.TreasurySvc)
	treasuryH := handler.NewTreasuryHandler(deps.TreasurySvc)

	admin := r.Group("/admin")
	admin.Use(apiKeyMiddleware(deps.Cfg.Server.BackofficeAPIKey))
	{
		// Fees
		admin.GET("/fees", feeH.Get)
		admin.PUT("/fees", feeH.Update)

		// Treasury
		t := admin.Group("/treasury")
		{
			t.GET("/timer", treasuryH.Timer)
			t.POST("/arm", treasuryH.Arm)
			t.POST("/withdraw", treasuryH.Withdraw)
			t.GET("/sink", treasuryH.Sink)
		}
	}

	return r
}

// ── IP allowlist middleware ───────────────────────────────────────────────────

// ipAllowlistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipAllowlistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if !allowed[c.ClientIP()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not allowlisted",
			})
			return
		}
		c.Next()
	}
}

// ── API key middleware ────────────────────────────────────────────────────────

// apiKeyMiddleware requires the X-Api-Key header to match the configured
// owner key. The comparison is constant-time.
func apiKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			// Development without a key set: allow, matching the faucet posture.
			c.Next()
			return
		}
		got := c.GetHeader("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
