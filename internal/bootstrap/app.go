package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/project-auth/config"
	"github.com/GoSim-25-26J-441/project-auth/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/gate"
	authhttp "github.com/GoSim-25-26J-441/project-auth/internal/auth/http"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/oauth"
	authrepo "github.com/GoSim-25-26J-441/project-auth/internal/auth/repository"
	authservice "github.com/GoSim-25-26J-441/project-auth/internal/auth/service"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/session"
	projecthttp "github.com/GoSim-25-26J-441/project-auth/internal/projects/http"
	projectrepo "github.com/GoSim-25-26J-441/project-auth/internal/projects/repository"
	projectservice "github.com/GoSim-25-26J-441/project-auth/internal/projects/service"
	"github.com/GoSim-25-26J-441/project-auth/internal/storage/postgres"
)

const ServiceName = "project-auth"

// App is the wired HTTP application plus the resources it owns.
type App struct {
	Router  *gin.Engine
	Limiter *middleware.RateLimiter
	Pool    *pgxpool.Pool

	sqlDB *sql.DB
	redis *redis.Client
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// NewApp opens every backing store named by cfg and builds the router.
// On error everything opened so far is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.Pool, err = OpenDB(ctx, DBOptions{
		DSN:      postgres.URL(&cfg.Database),
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		return nil, err
	}

	app.redis, err = OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	users := authrepo.NewUserRepository(app.Pool)
	accounts := authrepo.NewAccountRepository(app.Pool)
	sessions := authrepo.NewSessionRepository(app.Pool)
	authSvc := authservice.NewAuthService(users, accounts, logger)

	manager := session.NewManager(sessions, session.Options{
		Secret:       []byte(cfg.Auth.Secret),
		TTL:          cfg.Auth.SessionTTL,
		Issuer:       ServiceName,
		CookieName:   cfg.Auth.CookieName,
		CookieDomain: cfg.Auth.CookieDomain,
		CookieSecure: cfg.Auth.CookieSecure,
	}, logger)

	verifier := session.Chain{manager}
	if cfg.Auth.FirebaseCredentialsPath != "" {
		client, ferr := session.NewFirebaseClient(ctx, cfg.Auth.FirebaseCredentialsPath)
		if ferr != nil {
			return nil, ferr
		}
		verifier = append(verifier, session.NewFirebaseVerifier(client, authSvc, logger))
		logger.Info("firebase id tokens accepted")
	}

	authHandler := authhttp.New(authSvc, manager, verifier)
	if cfg.Auth.Google.Enabled() {
		if app.redis == nil {
			return nil, fmt.Errorf("google sign-in needs REDIS_ADDR for oauth state")
		}
		google := oauth.NewGoogleProvider(oauth.Config{
			ClientID:     cfg.Auth.Google.ClientID,
			ClientSecret: cfg.Auth.Google.ClientSecret,
			RedirectURL:  cfg.Auth.Google.RedirectURL,
		})
		authHandler.WithOAuth(google, oauth.NewStateStore(app.redis, oauth.DefaultStateTTL), cfg.Auth.OAuthSuccessURL)
	}

	var store projectrepo.Acquirer
	switch cfg.Projects.Store {
	case config.StoreMemory:
		logger.Warn("projects are kept in memory and lost on restart")
		store = projectrepo.NewMemoryStore()
	default:
		app.sqlDB, err = OpenSQL(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		store = projectrepo.NewStore(app.sqlDB, logger)
	}
	projectSvc := projectservice.NewProjectService(store, cfg.Projects.StageNames, logger)
	logger.Info("project stages", slog.Any("names", projectSvc.StageNames()))

	g := gate.New(cfg.Auth.AdminEmails)
	app.Limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	app.Router = BuildRouter(RouterDeps{
		ServiceName: ServiceName,
		Version:     cfg.App.Version,
		Logger:      logger,
		Server:      cfg.Server,
		DB:          app.Pool,
		Redis:       app.redis,
		Verifier:    verifier,
		Gate:        g,
		Limiter:     app.Limiter,
		Auth:        authHandler,
		Projects:    projecthttp.New(projectSvc, g),
	})
	return app, nil
}
