package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qiblaapi/docs"
	"qiblaapi/internal/config"
	"qiblaapi/internal/database"
	"qiblaapi/internal/database/migration"
	handlers "qiblaapi/internal/http/handler"
	"qiblaapi/internal/http/middleware"
	"qiblaapi/internal/logging"
	"qiblaapi/internal/otel"
	"qiblaapi/internal/repository"
	"qiblaapi/internal/repository/bolt"
	"qiblaapi/internal/repository/jsonfile"
	"qiblaapi/internal/repository/memory"
	"qiblaapi/internal/repository/postgres"
	"qiblaapi/internal/service"
	"qiblaapi/internal/storage"
)

// @title Qibla App API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location(), logging.ParseLevel(cfg.Log.Level))

	if err := run(cfg, log); err != nil {
		log.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	var checks []handlers.DependencyCheck

	// PostgreSQL is only needed when the index or the user registry lives there
	var db *sql.DB
	if cfg.UsesPostgres() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Check: database.HealthCheck(db, 2*time.Second)})
	}

	store, err := newContentStore(cfg)
	if err != nil {
		return fmt.Errorf("init content store: %w", err)
	}
	if p, ok := store.(storage.Pinger); ok {
		checks = append(checks, handlers.DependencyCheck{Name: "storage", Check: p.Ping})
	}

	index, closeIndex, err := newArchiveIndex(cfg, db)
	if err != nil {
		return fmt.Errorf("init archive index: %w", err)
	}
	defer closeIndex.Close()

	var users repository.UserRepository = memory.NewUsers()
	if cfg.Users.Backend == "postgres" {
		users = postgres.NewUsersPostgres(db)
	}

	archiveSvc := service.NewArchiveService(store, index)
	userSvc := service.NewUserService(users)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit(cfg.Upload.MaxBytes),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})

	metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Register global middleware
	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())
	app.Use(middleware.Session(middleware.SessionConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		CookieName: cfg.Auth.CookieName,
		Logger:     log,
	}))

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, handlers.Dependencies{
		Archives:     archiveSvc,
		Users:        userSvc,
		HealthChecks: checks,
		Logger:       log,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", "addr", addr, "storage", cfg.Upload.Backend, "index", cfg.Index.Backend, "users", cfg.Users.Backend)
		errCh <- app.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting_down", "signal", sig.String())
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("shutdown_complete")
		return nil
	case err := <-errCh:
		return err
	}
}

// multipartSlack covers multipart framing on top of the archive itself; the policy enforces the exact limit.
const multipartSlack = 1 << 20

// bodyLimit is the server-side request body cap for an upload policy of maxBytes.
// A non-positive maxBytes means the policy is unlimited, so the server is too.
func bodyLimit(maxBytes int64) int {
	if maxBytes <= 0 || maxBytes > math.MaxInt-multipartSlack {
		return math.MaxInt
	}
	return int(maxBytes) + multipartSlack
}

func newContentStore(cfg *config.AppConfig) (storage.ContentStore, error) {
	policy := storage.Policy{MaxBytes: cfg.Upload.MaxBytes, AllowedTypes: cfg.Upload.AllowedTypes}

	switch cfg.Upload.Backend {
	case "disk", "":
		return storage.NewDiskStore(cfg.Upload.Dir, policy)
	case "minio":
		return storage.NewMinIO(cfg.MinIO, policy)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Upload.Backend)
	}
}

// newArchiveIndex returns the configured index and a closer for any file handle it holds.
func newArchiveIndex(cfg *config.AppConfig, db *sql.DB) (repository.ArchiveIndex, io.Closer, error) {
	switch cfg.Index.Backend {
	case "json", "":
		idx, err := jsonfile.New(cfg.Index.Path)
		return idx, nopCloser{}, err
	case "bolt":
		idx, err := bolt.Open(cfg.Index.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx, nil
	case "postgres":
		if db == nil {
			return nil, nil, errors.New("postgres index requires a database connection")
		}
		return postgres.NewArchiveIndexPostgres(db), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
