package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/auth"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/config"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/http/handlers"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/http/middlewares"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/observability"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/repo/memory"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "personal-notes-api"

// NewRouter wires the postgres-backed API.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)
	notes := postgres.NewNotesRepo(pool, prom)

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	return buildRouter(log, cfg, users, notes, ping, prom, reg)
}

// NewMemoryRouter wires the same API against in-memory repositories.
// Used by integration tests and DB-less local runs.
func NewMemoryRouter(log *slog.Logger, cfg config.Config) *gin.Engine {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	return buildRouter(log, cfg, memory.NewUsersRepo(), memory.NewNotesRepo(), nil, prom, reg)
}

func buildRouter(
	log *slog.Logger,
	cfg config.Config,
	users handlers.UserDirectory,
	notes handlers.NotesStore,
	ping func() error,
	prom *observability.Prom,
	reg *prometheus.Registry,
) *gin.Engine {
	if cfg.Env != "dev" && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware(serviceName))

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	healthHandler := handlers.NewHealthHandler(ping)
	authHandler := handlers.NewAuthHandler(users, jwtManager)
	notesHandler := handlers.NewNotesHandler(notes)

	r.GET("/", healthHandler.Health)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// credential endpoints carry a brute-force guard
	limiter := middlewares.NewRateLimiter(20, time.Minute)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", limiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), authHandler.Register)
	authGroup.POST("/login", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.GET("/me", authMw.RequireAuth(), authHandler.Me)

	notesGroup := r.Group("/notes", authMw.RequireAuth(), middlewares.RequireJSON())
	notesGroup.POST("/", notesHandler.CreateNote)
	notesGroup.GET("/", notesHandler.ListNotes)
	notesGroup.GET("/:id", notesHandler.GetNote)
	notesGroup.PUT("/:id", notesHandler.UpdateNote)
	notesGroup.DELETE("/:id", notesHandler.DeleteNote)

	return r
}
