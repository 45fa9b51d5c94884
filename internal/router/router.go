package router

import (
	"fmt"
	"strings"

	"github.com/schoolsuite/resultpin/internal/cache"
	"github.com/schoolsuite/resultpin/internal/config"
	adminhandlers "github.com/schoolsuite/resultpin/internal/http/handlers/admin"
	publichandlers "github.com/schoolsuite/resultpin/internal/http/handlers/public"
	"github.com/schoolsuite/resultpin/internal/logger"
	"github.com/schoolsuite/resultpin/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "rp"
	}
	redisClient := cache.Client()
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		Message:       "too many result checks",
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			// keyed on pin+IP so a single guessed-at pin is throttled
			// independently of the caller's other traffic
			public.POST("/results/check",
				RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONField("pin")),
				publicHandler.CheckResult)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login",
				RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")),
				adminHandler.Login)

			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.SchoolAdminRepo))
			{
				authorized.PUT("/password", adminHandler.UpdatePassword)

				authorized.POST("/scratch-cards/generate", adminHandler.GenerateCards)
				authorized.GET("/scratch-cards", adminHandler.GetCards)
				authorized.GET("/scratch-cards/stats", adminHandler.GetCardStats)
				authorized.GET("/scratch-cards/export", adminHandler.ExportCards)
				authorized.GET("/scratch-cards/:id/usages", adminHandler.GetCardUsages)
				authorized.POST("/scratch-cards/:id/deactivate", adminHandler.DeactivateCard)

				authorized.GET("/usages", adminHandler.GetUsages)
				authorized.GET("/students", adminHandler.GetStudents)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
