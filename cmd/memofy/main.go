package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/adapters/backup/drive"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/adapters/backup/s3"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/adapters/mail"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/handlers"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/config"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/logging"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/repositories/database/pgsql"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/repositories/memory"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/utils"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/pkg/database"
	"github.com/redis/go-redis/v9"
)

const (
	loginRate       = "5-M"
	shutdownTimeout = 15 * time.Second
)

// @title Memofy API
// @version 1.0
// @description Departmental memo submission, review and delivery.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, flush := logging.New(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		flush()
		os.Exit(1)
	}
	flush()
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	collaborators, err := buildCollaborators(ctx, cfg, logger)
	if err != nil {
		return err
	}

	container, err := services.NewServiceContainer(cfg, repos, collaborators)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		logger.Info("Using Redis for rate limiting")
	}
	loginLimiter, err := middleware.NewLimiter(loginRate, "memofy_login", redisClient)
	if err != nil {
		return err
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogHost, logger)
	defer posthogClient.Close()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := container.Backup.Run(ctx); err != nil {
			logger.Error("Backup worker stopped with error", slog.String("error", err.Error()))
		}
	}()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.CORS(cfg.FrontendBaseURL))
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	handlers.RegisterRoutes(r, cfg, container, handlers.RouteDeps{
		Posthog:      posthogClient,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("server failed to run: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
	<-workerDone
	return nil
}

// openRepositories selects the storage driver. Postgres is migrated on startup.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	logger.Info("Running database migrations...")
	res, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if res.Applied {
		logger.Info("Database migrations applied successfully.", slog.Uint64("version", uint64(res.Version)))
	} else {
		logger.Info("No new migrations to apply.", slog.Uint64("version", uint64(res.Version)))
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// buildCollaborators picks the mail and backup adapters.
func buildCollaborators(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Collaborators, error) {
	var deps services.Collaborators

	switch cfg.MailDriver {
	case config.MailDriverSendgrid:
		deps.Mailer = mail.NewSendgridSender(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
	default:
		deps.Mailer = mail.NewConsoleSender(logger)
	}

	var uploader portssvc.BackupUploader
	var err error
	switch cfg.BackupDriver {
	case config.BackupDriverDrive:
		uploader, err = drive.NewUploader(ctx, cfg.GoogleDriveCredentialsFile, cfg.GoogleDriveFolderID)
	case config.BackupDriverS3:
		uploader, err = s3.NewUploader(ctx, s3.Config{
			Bucket:   cfg.BackupS3Bucket,
			Prefix:   cfg.BackupS3Prefix,
			Endpoint: cfg.BackupS3Endpoint,
		})
	}
	if err != nil {
		return deps, fmt.Errorf("failed to initialize %s backup uploader: %w", cfg.BackupDriver, err)
	}
	deps.Uploader = uploader
	logger.Info("Collaborators configured", slog.String("mail_driver", cfg.MailDriver), slog.String("backup_driver", cfg.BackupDriver))
	return deps, nil
}
