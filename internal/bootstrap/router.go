package bootstrap

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/project-auth/config"
	httpapi "github.com/GoSim-25-26J-441/project-auth/internal/api/http"
	"github.com/GoSim-25-26J-441/project-auth/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/gate"
	authhttp "github.com/GoSim-25-26J-441/project-auth/internal/auth/http"
	authmw "github.com/GoSim-25-26J-441/project-auth/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/session"
	projecthttp "github.com/GoSim-25-26J-441/project-auth/internal/projects/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Logger      *slog.Logger
	Server      config.ServerConfig

	DB    httpapi.Pinger
	Redis *redis.Client

	Verifier session.Verifier
	Gate     *gate.Gate
	Limiter  *middleware.RateLimiter
	Auth     *authhttp.Handler
	Projects *projecthttp.Handler
}

// CORSAllowedHeaders is the fixed request header list answered on preflight.
var CORSAllowedHeaders = []string{
	"Origin",
	"Accept",
	"Content-Type",
	"Authorization",
	middleware.HeaderRequestID,
	gate.HeaderImpersonating,
	gate.HeaderImpersonatedID,
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	if dep.Server.CORSEnabled {
		r.Use(cors.New(corsConfig(dep.Server.CORSAllowedOrigin)))
	}
	r.NoMethod(projecthttp.MethodNotSupported)
	r.NoRoute(func(c *gin.Context) {
		apperr.Respond(c, apperr.NewNotFound("not found"))
	})

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	var authLimit []gin.HandlerFunc
	if dep.Limiter != nil {
		authLimit = append(authLimit, dep.Limiter.Middleware())
	}
	dep.Auth.Register(r.Group(""), authLimit...)

	api := r.Group("/api/v1")
	dep.Projects.Register(api, authmw.RequireSession(dep.Verifier), dep.Gate.Middleware())

	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodDelete,
			http.MethodPatch,
			http.MethodPost,
			http.MethodPut,
		},
		AllowHeaders:              CORSAllowedHeaders,
		ExposeHeaders:             []string{middleware.HeaderRequestID},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
	if strings.TrimSpace(origin) == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	cfg.AllowCredentials = true
	return cfg
}
