package handlers

import (
	_ "traffic_supervisor/docs"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: logger.OrNop(log)}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Versioned API endpoints (protected when a signing secret is configured)
	h.registerAPIRoutes(router)

	// State stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authMiddleware)
	{
		api.GET("/state", h.getState)
		h.registerDeviceRoutes(api)
		h.registerEndpointRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.POST("/start", h.startDevice)
		device.POST("/stop", h.stopDevice)
	}
}

func (h *Handler) registerEndpointRoutes(api *gin.RouterGroup) {
	ep := api.Group("/endpoint")
	{
		ep.GET("", h.getEndpoint)
		// Body example: {"base":"192.168.1.50"}
		ep.PUT("", h.updateEndpoint)
		ep.DELETE("", h.resetEndpoint)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
