package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"opshub/internal/handler/api"
	"opshub/internal/handler/middleware"
	"opshub/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	webhookHandler *api.WebhookHandler,
	tokenHandler *api.TokenHandler,
	adminHandler *api.AdminHandler,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, webhookHandler, tokenHandler, adminHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	webhookHandler *api.WebhookHandler,
	tokenHandler *api.TokenHandler,
	adminHandler *api.AdminHandler,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addRoutes(engine.Group("/webhooks"), []route{
		{Method: http.MethodPost, Path: "/:provider", Handler: webhookHandler.Ingest},
	})

	addRoutes(engine.Group("/t"), []route{
		{Method: http.MethodGet, Path: "/:kind/:token", Handler: tokenHandler.View},
		{Method: http.MethodPost, Path: "/:kind/:token", Handler: tokenHandler.Redeem},
	})

	admin := engine.Group("/admin")
	{
		addRoutes(admin, []route{
			{Method: http.MethodGet, Path: "/jobs", Handler: adminHandler.ListJobs},
			{Method: http.MethodGet, Path: "/jobs/:id", Handler: adminHandler.GetJob},
			{Method: http.MethodPost, Path: "/jobs/:id/retry", Handler: adminHandler.RetryJob},
			{Method: http.MethodPost, Path: "/tokens", Handler: adminHandler.IssueToken},
			{Method: http.MethodPost, Path: "/assignments", Handler: adminHandler.AssignTechnician},
			{Method: http.MethodPost, Path: "/webhooks/reconcile", Handler: adminHandler.ReconcileWebhooks},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
