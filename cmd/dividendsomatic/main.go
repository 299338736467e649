package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jhalmu/dividendsomatic/internal/application"
	"github.com/jhalmu/dividendsomatic/internal/domain"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/config"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/marketdata"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/marketdata/yfinance"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/persistence/sqldb"
	httpHandler "github.com/jhalmu/dividendsomatic/internal/interfaces/http"
	"github.com/joho/godotenv"
	_ "github.com/sijms/go-ora/v2"
)

// setupLogger configures and returns a structured logger with source information
func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel(level),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initializeDatabase sets up the database connection and runs migrations
func initializeDatabase(cfg *config.Config) (domain.LedgerRepository, error) {
	var db *sql.DB
	var dialect sqldb.Dialect
	var err error

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err = sql.Open("pgx", cfg.DBDSN)
		dialect = &sqldb.PostgresDialect{}
	case config.DriverOracle:
		db, err = sql.Open("oracle", cfg.DBDSN)
		dialect = &sqldb.OracleDialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapper := sqldb.New(db, dialect)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wrapper.Dialect.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return sqldb.NewRepository(wrapper), nil
}

// createQuoteProvider wires the external quote service when one is
// configured. Without it current-yield figures are simply omitted.
func createQuoteProvider(cfg *config.Config) marketdata.QuoteProvider {
	if cfg.QuoteServiceURL == "" {
		return nil
	}
	return yfinance.NewClientWithBaseURL(cfg.QuoteServiceURL)
}

// buildServer creates and configures the HTTP server with all routes and handlers
func buildServer(cfg *config.Config, dividends *application.DividendService, importer *application.ImportService) *http.Server {
	router := gin.Default()
	handler := httpHandler.NewHandler(dividends, importer)
	httpHandler.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// run contains the main application logic without os.Exit calls
func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.LogLevel)

	repo, err := initializeDatabase(cfg)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}

	cache := application.NewResultCache()
	quotes := createQuoteProvider(cfg)
	if quotes != nil {
		slog.Info("Using quote service", "url", cfg.QuoteServiceURL)
	}

	dividendService := application.NewDividendService(repo, cache, quotes)
	importService := application.NewImportService(repo, cache)

	server := buildServer(cfg, dividendService, importService)

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "host", cfg.ServerHost, "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		slog.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
