package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/cmd"
	"welfaredesk/internal/api"
	"welfaredesk/internal/db"
	"welfaredesk/internal/mockapi"
	"welfaredesk/internal/session"
	"welfaredesk/internal/ui"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse CLI flags
	config, err := cmd.ParseFlags()
	if err != nil {
		return err
	}
	if config.ShowVersion {
		fmt.Println("welfaredesk", version)
		return nil
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(config.ConfigDir, "welfaredesk.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: config.LogLevel}))
	logger.Info("starting", "version", version, "mock", config.Mock)

	if config.Mock {
		base, shutdown, err := startMock(config.MockDBPath, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		config.APIURL = base
		fmt.Fprintln(os.Stderr, "ℹ  Demo backend running at", base)
		for _, a := range mockapi.DemoAccounts {
			fmt.Fprintf(os.Stderr, "   %-10s %-14s (%s)\n", a.Username, a.Password, a.Role.Label())
		}
	}

	var store session.Store = session.NewFileStore(config.ConfigDir)
	if config.SessionStore == cmd.StoreKeyring {
		store = session.NewKeyringStore(config.KeyringAccount())
	}

	client, err := api.NewClient(api.Options{
		BaseURL:   config.APIURL,
		Timeout:   config.Timeout,
		RateLimit: config.RateLimit,
		Store:     store,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	// Create and run Bubble Tea app
	p := tea.NewProgram(ui.New(client, ui.Options{
		ConfigDir: config.ConfigDir,
		PageSize:  config.PageSize,
		Logger:    logger,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// startMock serves the demo backend on a loopback port and returns its base
// URL.
func startMock(dbPath string, logger *slog.Logger) (string, func(), error) {
	conn, err := db.Open(dbPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := mockapi.Seed(conn, mockapi.SeedOptions{}); err != nil {
		conn.Close()
		return "", nil, fmt.Errorf("failed to seed database: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		conn.Close()
		return "", nil, fmt.Errorf("failed to listen: %w", err)
	}
	srv := &http.Server{
		Handler:           mockapi.New(conn, mockapi.Options{Logger: logger.With("component", "mockapi")}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock server stopped", "error", err)
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		conn.Close()
	}
	return "http://" + ln.Addr().String(), shutdown, nil
}
