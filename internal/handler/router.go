package handler

import (
	"net/http"

	"voicedesk/internal/handler/api"
	"voicedesk/internal/handler/middleware"
	"voicedesk/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, cfg config.Config, toolsHandler *api.ToolsHandler, inboundHandler *api.InboundHandler) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, toolsHandler, inboundHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, toolsHandler *api.ToolsHandler, inboundHandler *api.InboundHandler) {
	engine.GET("/health", healthCheck)

	tools := engine.Group("/tools")
	{
		addRoutes(tools, []route{
			{Method: http.MethodPost, Path: "/check_availability", Handler: toolsHandler.CheckAvailability},
			{Method: http.MethodPost, Path: "/create_booking", Handler: toolsHandler.CreateBooking},
			{Method: http.MethodPost, Path: "/find_booking", Handler: toolsHandler.FindBooking},
			{Method: http.MethodPost, Path: "/modify_booking", Handler: toolsHandler.ModifyBooking},
			{Method: http.MethodPost, Path: "/cancel_booking", Handler: toolsHandler.CancelBooking},
		})
	}

	webhooks := engine.Group("/webhooks")
	{
		addRoutes(webhooks, []route{
			{Method: http.MethodPost, Path: "/inbound", Handler: inboundHandler.Inbound},
		})
	}
}

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
