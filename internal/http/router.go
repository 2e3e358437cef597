package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/crewworks/backend/internal/config"
	"github.com/crewworks/backend/internal/db"
	"github.com/crewworks/backend/internal/http/handlers"
	"github.com/crewworks/backend/internal/http/middleware"
	"github.com/crewworks/backend/internal/service"

	_ "github.com/crewworks/backend/docs"
)

func Router(cfg config.Config, store *db.Store, sessions *service.SessionService, reports *service.ReportService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Sessions:  sessions,
		Reports:   reports,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/tickets/:id/status", h.TicketStatus)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/employees/:id/tickets", h.EmployeeTickets)
		api.POST("/sessions/end", h.SessionEnd)
		api.GET("/sessions/:employeeId/:date", h.SessionGet)
		api.GET("/reports/status-time", h.ReportStatusTime)
		api.GET("/reports/overtime", h.ReportOvertime)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/tickets", h.TicketCreate)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
