package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"vermicompost_monitor/internal/logger"
	"vermicompost_monitor/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	deviceID string
}

// NewHandler constructs a new HTTP handler with dependencies. Bearer tokens
// are accepted only when issued for the device the monitoring service reports.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	h := &Handler{services: services, log: log}
	if services != nil && services.Monitoring != nil {
		h.deviceID = services.Monitoring.Handshake().ID
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Provisioning endpoints polled by the phone app on the local network
	router.GET("/ping", h.ping)
	router.GET("/handshake", h.handshake)
	router.GET("/get_data", h.getData)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Snapshot stream (HTTP upgrade), same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerBinRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerBinRoutes(api *gin.RouterGroup) {
	// Body example: {"target":"ultrasonic","empty_cm":14,"full_cm":4}
	api.POST("/calibrate", h.calibrate)
	api.POST("/reset", h.resetCalibration)
	api.GET("/state", h.getState)
	api.GET("/records", h.getRecords)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
