package api

import (
	"net/http"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/api/handler"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/api/middleware"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/scheduler"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/service"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	WalletSvc     *service.WalletService
	LedgerSvc     *service.LedgerService
	PolicySvc     *service.PolicyService
	EngagementSvc *service.EngagementService
	Drift         *scheduler.Drift
	Hub           *ws.Hub
	Cfg           *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
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

	// ── Health check & metrics ───────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── Handlers ─────────────────────────────────────────────────────────────
	walletH := handler.NewWalletHandler(deps.WalletSvc)
	tokenH := handler.NewTokenHandler(deps.LedgerSvc, deps.PolicySvc)
	feedH := handler.NewFeedHandler(deps.EngagementSvc, deps.Drift)

	// ── Session middleware (shared) ──────────────────────────────────────────
	sessionMW := middleware.SessionMiddleware(deps.WalletSvc)

	// ── Rate limiters ────────────────────────────────────────────────────────
	connectRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for connect
	bidRL := middleware.RateLimitMiddleware(30)     // 30 req/s per IP for ledger writes

	api := r.Group("/api")
	{
		// ── Wallet (public, strict rate limit) ───────────────────────────────
		wallet := api.Group("/wallet")
		wallet.Use(connectRL)
		{
			wallet.POST("/connect", walletH.Connect)
		}

		// ── Posts (public reads + feed couplings) ────────────────────────────
		posts := api.Group("/posts")
		{
			posts.GET("/:id/price", tokenH.GetPrice)
			posts.GET("/:id/bids", tokenH.GetBids)
			posts.POST("/:id/likes", feedH.ApplyLikes)
			posts.POST("/:id/view", feedH.OpenView)
			posts.DELETE("/:id/view", feedH.CloseView)
		}

		// ── Authenticated routes ─────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(sessionMW)
		{
			ledger := authed.Group("/posts")
			ledger.Use(bidRL)
			{
				ledger.POST("/:id/bids", tokenH.PlaceBid)
				ledger.POST("/:id/sell", tokenH.SellTokens)
				ledger.POST("/:id/redeem", tokenH.RedeemTokens)
			}

			portfolio := authed.Group("/portfolio")
			{
				portfolio.GET("", tokenH.GetPortfolio)
				portfolio.GET("/transactions", tokenH.GetTransactions)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			// Production: allow only the feed frontends
			allowed := map[string]bool{
				"https://tokenizee.app":     true,
				"https://www.tokenizee.app": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
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
