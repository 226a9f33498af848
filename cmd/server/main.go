// SpendWatch - personal budgets, expenses and savings goals
// Entry point for the API server
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findosh/spendwatch/internal/config"
	"github.com/findosh/spendwatch/internal/handlers"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/mailer"
	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/services/admin"
	"github.com/findosh/spendwatch/internal/services/alerts"
	"github.com/findosh/spendwatch/internal/services/analytics"
	"github.com/findosh/spendwatch/internal/services/auth"
	"github.com/findosh/spendwatch/internal/services/budgets"
	"github.com/findosh/spendwatch/internal/services/expenses"
	"github.com/findosh/spendwatch/internal/services/goals"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize database
	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	m, err := mailer.New(cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := m.(io.Closer); ok {
		defer c.Close()
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	sessionRepo := storage.NewSessionRepository(db)
	otpRepo := storage.NewOTPRepository(db)
	expenseRepo := storage.NewExpenseRepository(db)
	budgetRepo := storage.NewBudgetRepository(db)
	goalRepo := storage.NewGoalRepository(db)
	categoryRepo := storage.NewCategoryRepository(db)

	// Initialize services
	tokens := auth.NewTokenLedger(sessionRepo, userRepo, cfg.SecretKey, cfg.TokenTTL)
	otps := auth.NewOTPEngine(otpRepo, cfg.OTPTTL)
	authService := auth.NewService(userRepo, otps, tokens, auth.NewBcryptHasher(cfg.BcryptCost), m, logger)
	dispatcher := alerts.NewDispatcher(budgetRepo, expenseRepo, m, logger)

	h := handlers.New(handlers.Services{
		Auth:       authService,
		Expenses:   expenses.NewService(expenseRepo, categoryRepo, dispatcher, logger),
		Budgets:    budgets.NewService(budgetRepo, expenseRepo, categoryRepo, dispatcher, logger),
		Goals:      goals.NewService(goalRepo, logger),
		Analytics:  analytics.NewService(expenseRepo),
		Admin:      admin.NewService(userRepo, expenseRepo, budgetRepo, goalRepo, logger),
		Categories: categoryRepo,
	}, logger)

	authMiddleware := middleware.NewAuth(authService, logger)
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, 10*time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(authMiddleware, limiter, logger, cfg.TrustProxy),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("SpendWatch server starting", "addr", srv.Addr, "environment", cfg.Environment, "mail_transport", cfg.MailTransport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
