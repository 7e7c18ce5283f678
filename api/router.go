package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter builds the public HTTP API.
func NewRouter(cfg *config.Config, handler *BookingHandler, catalogue *CatalogueHandler, logger *logrus.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.HTTP.SwaggerDir != "" {
		r.Static("/docs", cfg.HTTP.SwaggerDir)
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/openapi.yaml"))))
	}

	v1 := r.Group("/api/v1")
	handler.RegisterDrafts(v1.Group("/drafts"))
	if cfg.Auth.JWTSecret != "" {
		handler.RegisterCorporate(v1.Group("/corporate", CorporateAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)))
	} else {
		logger.Error("jwt secret not set, corporate routes are disabled")
	}
	handler.RegisterBookings(v1.Group("/bookings"))
	handler.RegisterPayments(v1.Group("/payments"))
	catalogue.Register(v1.Group("/catalogue"))

	return r
}
