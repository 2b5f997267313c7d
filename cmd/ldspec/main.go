package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hpungsan/ldspec/internal/config"
	"github.com/hpungsan/ldspec/internal/db"
	"github.com/hpungsan/ldspec/internal/mcp"
	"github.com/hpungsan/ldspec/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"families": true, "sections": true, "section": true,
	"resources": true, "resource": true,
	"cache": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _     _
  | | __| |___ _ __  ___  ___
  | |/ _' / __| '_ \/ _ \/ __|
  | | (_| \__ \ |_) |  __/ (__
  |_|\__,_|___/ .__/ \___|\___|
              |_|

  W3C specifications and RDF vocabularies

  Usage: ldspec <command> [options]
         ldspec --help

  MCP server mode requires piped input.`)
}

// newLogger writes to stderr; stdout carries the MCP stream.
func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// runtime bundles everything a command needs.
type runtime struct {
	svc      *ops.Service
	cfg      *config.Config
	registry *prometheus.Registry
	logger   *slog.Logger
	db       *sql.DB
}

// setup loads configuration, opens the document store when persistence is
// enabled and builds the service.
func setup(baseDir string) (*runtime, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, registry: prometheus.NewRegistry(), logger: logger}
	rt.registry.MustRegister(collectors.NewGoCollector())

	if cfg.PersistCache {
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if n, err := db.PurgeExpired(database, cfg.CacheTTL()); err != nil {
			logger.Warn("purge expired documents failed", "error", err)
		} else if n > 0 {
			logger.Debug("purged expired documents", "count", n)
		}
		rt.db = database
	}

	svc, err := ops.NewFromConfig(cfg, rt.db, rt.registry, logger, Version)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}
	rt.svc = svc

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	return rt, nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before setup (no config needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".ldspec")

	rt, err := setup(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer rt.close()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(rt)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			rt.close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'ldspec --help' for usage.\n")
		rt.close()
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(rt.svc, rt.cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		rt.close()
		os.Exit(1)
	}
}
