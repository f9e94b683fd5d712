// Package devserver – route and middleware wiring.
package devserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/cduarte/estante/internal/config"
)

// NewRouter builds the Gin engine with the full middleware chain and all
// endpoints of the book-catalog contract.
//
// Middleware order:
//  1. OpenTelemetry tracing (when enabled)
//  2. RequestID
//  3. Logger (so everything below logs with the correlation ID)
//  4. Recovery
//  5. Metrics (+ /metrics endpoint)
//  6. Rate limiter
//  7. gzip and CORS
func NewRouter(db *gorm.DB, cfg config.Server) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true

	if cfg.OTEL.Enabled {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{requestIDHeader, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	s := NewServer(db, cfg)

	r.POST("/users", s.handleRegister)
	r.POST("/auth/login", s.handleLogin)
	r.GET("/categories", s.handleListCategories)
	r.GET("/books", s.handleListBooks)
	r.GET("/books/:id", s.handleGetBook)

	auth := r.Group("/", s.requireAuth())
	auth.POST("/books", s.handleCreateBook)
	auth.DELETE("/books/:id", s.handleDeleteBook)
	auth.POST("/upload-file", s.handleUpload)

	r.Static("/uploads", cfg.UploadDir)

	return r
}
