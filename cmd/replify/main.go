// Replify — terminal dashboard for the WhatsApp business-messaging assistant.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nhanhataka-sys/replify-dashboard/internal/api"
	"github.com/nhanhataka-sys/replify-dashboard/internal/auth"
	"github.com/nhanhataka-sys/replify-dashboard/internal/config"
	"github.com/nhanhataka-sys/replify-dashboard/internal/session"
	"github.com/nhanhataka-sys/replify-dashboard/internal/store"
	"github.com/nhanhataka-sys/replify-dashboard/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var apiURL, authURL, dbPath, logOutput, envFile string

	flagSet := pflag.NewFlagSet("replify", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api-url", "", "backend base URL (overrides REPLIFY_API_URL)")
	flagSet.StringVar(&authURL, "auth-url", "", "auth service base URL (overrides REPLIFY_AUTH_URL)")
	flagSet.StringVar(&dbPath, "db-path", "", "local session cache path (overrides DB_PATH)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (overrides LOG_OUTPUT)")
	flagSet.StringVar(&envFile, "env-file", "", "load environment from this file instead of .env")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil {
		// No .env is fine; plain environment variables still apply.
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if authURL != "" {
		cfg.AuthBaseURL = authURL
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logOutput != "" {
		cfg.LogOutput = logOutput
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs go to a file; the TUI owns the terminal.
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("starting replify dashboard", "api_url", cfg.APIBaseURL, "poll_interval", cfg.PollInterval)

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize session cache: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("failed to close session cache", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("session cache health check: %w", err)
	}

	backend := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	authClient := auth.NewHTTPClient(cfg.AuthBaseURL, cfg.RequestTimeout, repo, logger)
	resolver := session.NewResolver(backend, authClient, logger)

	shell := tui.NewShell(tui.Deps{
		Config:   cfg,
		API:      backend,
		Auth:     authClient,
		Resolver: resolver,
		Logger:   logger,
	})

	resolver.Start(ctx)
	defer resolver.Stop()

	// Restore runs after the program starts so the checking screen is
	// visible while the stored session loads.
	go authClient.Restore(ctx)

	program := tea.NewProgram(shell, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	slog.Info("dashboard stopped")
	return nil
}

func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogOutput), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(cfg.LogOutput, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	closeLog := func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", closeErr)
		}
	}
	return logger, closeLog, nil
}
