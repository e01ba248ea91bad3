package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/middleware"
	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/pkg/config"
	"github.com/noah-isme/booking-engine-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/booking-engine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/booking-engine-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, h handlers, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(h.auth))

	reservations := api.Group("/reservations")
	reservations.POST("", h.reservations.Create)
	reservations.GET("/submissions/:id", h.reservations.GetSubmission)
	reservations.POST("/:id/approve", middleware.RequireAdministrative(), h.reservations.Approve)
	reservations.POST("/:id/reject", middleware.RequireAdministrative(), h.reservations.Reject)
	handover := middleware.RequireRoles(models.RoleSuperuser, models.RoleVigilancia)
	reservations.POST("/:id/checkout", handover, h.reservations.Checkout)
	reservations.POST("/:id/checkin", handover, h.reservations.Checkin)

	resources := api.Group("/resources/:type/:id")
	resources.GET("/occurrences", h.calendar.Occurrences)
	resources.GET("/conflicts", h.reservations.Conflicts)

	blockAdmin := middleware.RequireRoles(models.RoleSuperuser, models.RoleAdminResource)
	blocks := api.Group("/recurring-blocks")
	blocks.GET("", h.blocks.List)
	blocks.POST("", blockAdmin, h.blocks.Create)
	blocks.DELETE("/exceptions/:id", blockAdmin, h.blocks.DeleteException)
	blocks.GET("/:id", h.blocks.Get)
	blocks.PUT("/:id", blockAdmin, h.blocks.Update)
	blocks.DELETE("/:id", blockAdmin, h.blocks.Delete)
	blocks.GET("/:id/exceptions", h.blocks.ListExceptions)
	blocks.POST("/:id/exceptions", blockAdmin, h.blocks.AddException)

	api.POST("/workshops/:id/inscriptions", h.inscriptions.Enroll)
	inscriptions := api.Group("/inscriptions", middleware.RequireRoles(models.RoleSuperuser, models.RoleAdminResource))
	inscriptions.POST("/:id/approve", h.inscriptions.Approve)
	inscriptions.POST("/:id/reject", h.inscriptions.Reject)

	return r
}
