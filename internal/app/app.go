package app

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

	"auth-gateway/internal/config"
	"auth-gateway/internal/database"
	"auth-gateway/internal/handler"
	"auth-gateway/internal/identity"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/repository"
	"auth-gateway/internal/router"
	"auth-gateway/internal/service"
	"auth-gateway/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), database.Options{
		URL:               cfg.DatabaseURL,
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	slog.Info("database ready")

	verifier := identity.NewGraphVerifier(cfg.GraphMeURL, cfg.GraphTimeout)
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	sessionService := service.NewSessionService(verifier, codec, userRepo, tokenRepo, cfg.LoginRateWindow, cfg.LoginRateMax)
	documentService := service.NewDocumentService(documentRepo)

	authMiddleware := middleware.NewAuthMiddleware(codec)
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(sessionService)
	documentHandler := handler.NewDocumentHandler(documentService)

	appRouter := router.New(cfg, authMiddleware, healthHandler, authHandler, documentHandler)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go runTokenCleanup(cleanupCtx, tokenRepo, cfg.TokenCleanupInterval)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			cleanupCancel,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// runTokenCleanup prunes expired refresh-token rows periodically. Revoked
// rows are kept until expiry for audit.
func runTokenCleanup(ctx context.Context, tokenRepo *repository.TokenRepository, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokenRepo.CleanExpired(ctx)
			if err != nil {
				slog.Error("token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens pruned", "count", removed)
			}
		}
	}
}
