package handlers

import (
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	// StorageRoot is served under /storage when files live on local disk.
	StorageRoot string
	Metrics     bool
}

var (
	metricsOnce sync.Once
	metrics     *ginprometheus.Prometheus
)

// NewRouter wires the gin routes and middleware.
func NewRouter(cfg RouterConfig, h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.ContextWithFallback = true

	r.Use(RequestLogger(logger.Named("http")))
	r.Use(Recovery(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if cfg.Metrics {
		metricsOnce.Do(func() {
			metrics = ginprometheus.NewPrometheus("crm")
			metrics.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
				if p := c.FullPath(); p != "" {
					return p
				}
				return "unmatched"
			}
		})
		metrics.Use(r)
	}

	r.NoRoute(notFoundHandler)
	r.NoMethod(methodNotAllowedHandler(r))

	r.GET("/up", h.Up)
	if cfg.StorageRoot != "" {
		r.Static("/storage", cfg.StorageRoot)
	}

	api := r.Group("/api")
	{
		api.POST("/login", h.Login)
		api.GET("/notifications/ws", h.NotificationSocket)
	}

	protected := api.Group("", h.authenticator.Middleware(h.abort))
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/user", h.CurrentUser)
		protected.GET("/uploads/constraints", h.UploadConstraints)

		companies := protected.Group("/companies")
		{
			companies.GET("", h.ListCompanies)
			companies.POST("", h.CreateCompany)
			companies.GET("/:id", h.GetCompany)
			companies.PUT("/:id", h.UpdateCompany)
			companies.PATCH("/:id", h.UpdateCompany)
			companies.DELETE("/:id", h.DeleteCompany)
		}

		employees := protected.Group("/employees")
		{
			employees.GET("", h.ListEmployees)
			employees.POST("", h.CreateEmployee)
			employees.GET("/:id", h.GetEmployee)
			employees.PUT("/:id", h.UpdateEmployee)
			employees.PATCH("/:id", h.UpdateEmployee)
			employees.DELETE("/:id", h.DeleteEmployee)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
			notifications.POST("/:id/read", h.MarkNotificationRead)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", overrideHeader, requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
