package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/darehype/ai-invoice-app/internal/gemini"
	"github.com/darehype/ai-invoice-app/internal/invoice"
	"github.com/darehype/ai-invoice-app/internal/settings"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	fs := ff.NewFlagSet("ai-invoice-app")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "ai-invoice-app.db", "Settings database file path")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key used to seed the settings store (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("AI_INVOICE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Open the settings store (API key, theme)
	slog.Info("Opening settings database...")
	config, err := settings.Open(*dbPath)
	if err != nil {
		slog.Error("Failed to open settings database", "error", err)
		os.Exit(1)
	}
	defer config.Close()

	// Seed the stored API key from the flag or environment on first run.
	// A key already saved through the UI wins over the flag.
	seedKey := *geminiKey
	if seedKey == "" {
		seedKey = os.Getenv("GEMINI_API_KEY")
	}
	if seedKey != "" {
		stored, err := config.APIKey()
		if err != nil {
			slog.Error("Failed to read stored API key", "error", err)
			os.Exit(1)
		}
		if stored == "" {
			if err := config.SetAPIKey(seedKey); err != nil {
				slog.Error("Failed to seed API key", "error", err)
				os.Exit(1)
			}
			slog.Info("Seeded Gemini API key into settings")
		}
	}

	// Wire the session: one record store, one gateway, one service
	gateway := gemini.NewClient(*geminiModel)
	store := invoice.NewStore()
	service := invoice.NewService(config, gateway, store)

	basicAuth := invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := invoice.NewServer(service, config, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "model", *geminiModel)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
