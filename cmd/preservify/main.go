package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Jukitsye777/Preservify/internal/assistant"
	"github.com/Jukitsye777/Preservify/internal/inventory"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// backendConfig holds the settings shared by the AI backends
type backendConfig struct {
	geminiKey   string
	geminiModel string
	ollamaURL   string
	ollamaModel string
	webhookURL  string
}

func (c backendConfig) geminiAPIKey() (string, error) {
	apiKey := c.geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
	}
	return apiKey, nil
}

// newReporter builds the report generator named by kind; "none" yields nil
func newReporter(kind string, cfg backendConfig) (assistant.ReportGenerator, error) {
	switch kind {
	case "none", "":
		return nil, nil
	case "gemini":
		apiKey, err := cfg.geminiAPIKey()
		if err != nil {
			return nil, err
		}
		slog.Info("Initializing Gemini reporter...", "model", cfg.geminiModel)
		return assistant.NewGemini(apiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama reporter...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return assistant.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	case "webhook":
		slog.Info("Initializing webhook reporter...", "url", cfg.webhookURL)
		return assistant.NewWebhook(cfg.webhookURL)
	}
	return nil, fmt.Errorf("invalid reporter type %q: want gemini, ollama, webhook or none", kind)
}

// newScanner builds the receipt scanner named by kind; "none" yields nil
func newScanner(kind string, cfg backendConfig) (assistant.Scanner, error) {
	switch kind {
	case "none", "":
		return nil, nil
	case "gemini":
		apiKey, err := cfg.geminiAPIKey()
		if err != nil {
			return nil, err
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
		return assistant.NewGemini(apiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return assistant.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	}
	return nil, fmt.Errorf("invalid scanner type %q: want gemini, ollama or none", kind)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("Preservify stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run wires the service from args and serves until ctx is done. Everything it
// opens is closed before it returns.
func run(ctx context.Context, args []string) error {
	// Check for version flag before parsing other flags
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			return nil
		}
	}

	fs := ff.NewFlagSet("preservify")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "preservify.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./images", "Item image directory path")
		reporterType = fs.StringLong("reporter", "gemini", "Report generator: 'gemini', 'ollama', 'webhook' or 'none'")
		scannerType  = fs.StringLong("scanner", "gemini", "Receipt scanner: 'gemini', 'ollama' or 'none'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llama3.2-vision)")
		webhookURL   = fs.StringLong("webhook-url", "", "Workflow webhook URL used by the 'webhook' reporter")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		_            = fs.StringLong("config", "", "Config file with one 'flag value' pair per line (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("PRESERVIFY"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	if *showVersion {
		fmt.Println(version)
		return nil
	}

	backends := backendConfig{
		geminiKey:   *geminiKey,
		geminiModel: *geminiModel,
		ollamaURL:   *ollamaURL,
		ollamaModel: *ollamaModel,
		webhookURL:  *webhookURL,
	}

	slog.Info("Initializing database...", "path", *dbPath)
	db, err := inventory.NewBoltDB(*dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	reporter, err := newReporter(*reporterType, backends)
	if err != nil {
		return fmt.Errorf("initializing reporter: %w", err)
	}
	if reporter != nil {
		defer reporter.Close()
	} else {
		slog.Warn("Report generation disabled")
	}

	scanner, err := newScanner(*scannerType, backends)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	if scanner != nil {
		defer scanner.Close()
	} else {
		slog.Warn("Receipt scanning disabled")
	}

	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := inventory.NewLocalStorage(*storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	service := inventory.NewService(db, store, reporter, scanner)
	server := inventory.NewServer(service, inventory.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server listening", "url", fmt.Sprintf("http://localhost%s", addr), "version", version)
	return server.Start(ctx, addr)
}
