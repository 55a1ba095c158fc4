package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khuong2924/smart-order/internal/auth"
	"github.com/khuong2924/smart-order/internal/availability"
	"github.com/khuong2924/smart-order/internal/middleware"
)

type Options struct {
	Availability *availability.Handler
	Tokens       middleware.TokenValidator
	CORSOrigins  []string
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// ───────────────────────── HEALTH ─────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := opts.Availability
	authn := middleware.AuthMiddleware(opts.Tokens)

	// ───────────────────────── AVAILABILITY ─────────────────────────
	items := r.Group("/menu-items")
	items.Use(authn)
	{
		items.GET("/availability", h.List)
		items.POST("/availability/check", h.Check)
		items.GET("/:id/availability", h.Get)

		kitchen := items.Group("")
		kitchen.Use(middleware.RequireRole(auth.RoleKitchen, auth.RoleAdmin))
		{
			kitchen.PUT("/:id/availability", h.Put)
			kitchen.POST("/availability/batch", h.PutBatch)
		}

		adminOnly := items.Group("")
		adminOnly.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			adminOnly.DELETE("/:id/availability", h.Delete)
		}
	}

	// ───────────────────────── ADMIN ─────────────────────────
	admin := r.Group("/admin")
	admin.Use(authn, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/availability/snapshot", h.Snapshot)
	}

	return r
}
