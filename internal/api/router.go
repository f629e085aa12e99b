package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zacpr/api-explorer/internal/events"
	"github.com/zacpr/api-explorer/internal/executor"
	"github.com/zacpr/api-explorer/internal/history"
	"github.com/zacpr/api-explorer/internal/proxy"
	"github.com/zacpr/api-explorer/internal/schema"
	"github.com/zacpr/api-explorer/internal/state"
	"github.com/zacpr/api-explorer/internal/storage"
	"github.com/zacpr/api-explorer/internal/vault"
)

// Router handles HTTP routing
type Router struct {
	engine  *gin.Engine
	handler *Handler
	events  *events.Service
}

// NewRouter creates a new router wiring all services
func NewRouter(store storage.Storage, schemaSvc *schema.Service, engine *executor.Engine, credVault *vault.Vault, historySvc *history.Service, eventSvc *events.Service, appState *state.Store, execDefaults executor.Options) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine: gin.New(),
		events: eventSvc,
	}

	r.handler = NewHandler(store, schemaSvc, engine, credVault, historySvc, eventSvc, appState, execDefaults)

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(gin.Logger())

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Schema
		api.POST("/schema", r.handler.LoadSchema)
		api.GET("/schema", r.handler.GetSchema)
		api.GET("/schema/tags", r.handler.GetTags)

		// Operations
		api.GET("/operations", r.handler.ListOperations)
		api.GET("/operations/:id", r.handler.GetOperation)
		api.POST("/operations/:id/execute", r.handler.ExecuteOperation)

		// Raw request execution
		api.POST("/execute", r.handler.ExecuteRequest)

		// Vault credentials
		api.POST("/credentials", r.handler.StoreCredential)
		api.GET("/credentials", r.handler.ListCredentials)
		api.POST("/credentials/:id/decrypt", r.handler.GetCredential)
		api.DELETE("/credentials/:id", r.handler.DeleteCredential)

		// Bookmarks
		api.POST("/bookmarks", r.handler.CreateBookmark)
		api.GET("/bookmarks", r.handler.ListBookmarks)
		api.GET("/bookmarks/:id", r.handler.GetBookmark)
		api.PUT("/bookmarks/:id", r.handler.UpdateBookmark)
		api.DELETE("/bookmarks/:id", r.handler.DeleteBookmark)
		api.POST("/bookmarks/:id/use", r.handler.UseBookmark)

		// Usage history and statistics
		api.GET("/history", r.handler.GetUsageHistory)
		api.GET("/history/stats", r.handler.GetOperationStats)

		// Recent executions
		api.GET("/executions", r.handler.RecentExecutions)

		// Schema registry documents
		api.POST("/registry", r.handler.ParseRegistry)

		// Application state
		api.GET("/state", r.handler.GetState)

		// Health
		api.GET("/health", r.handler.HealthCheck)
	}

	// WebSocket for live execution events
	wsHandler := events.NewWebSocketHandler(r.events)
	r.engine.GET("/_api/executions/stream", gin.WrapH(wsHandler))

	// Local passthrough for proxy mode
	passthrough := proxy.NewPassthrough()
	r.engine.Any("/_proxy/*path", gin.WrapH(http.StripPrefix("/_proxy", passthrough)))
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
