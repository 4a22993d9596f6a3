package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glancehq/glance/internal/config"
	"github.com/glancehq/glance/internal/gemini"
	"github.com/glancehq/glance/internal/logging"
	"github.com/glancehq/glance/internal/mcp"
	"github.com/glancehq/glance/internal/session"
	"github.com/glancehq/glance/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"ask": true, "show": true, "list": true, "update": true,
	"delete": true, "attach": true, "purge": true, "clear": true,
	"serve": true, "help": true,
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
    __ _ | | __ _  _ _   __  ___
   / _` + "`" + ` || |/ _` + "`" + ` || ' \ / _|/ -_)
   \__, ||_|\__,_||_||_|\__|\___|
   |___/

  Screenshot capture, model answers, local history

  Usage: glance <command> [options]
         glance --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before store init (no store needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
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

	baseDir := filepath.Join(homeDir, ".glance")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.WithField("tools", unknown).Warn("unknown tool names in disabled_tools")
	}

	// A store failure degrades to no-history mode: asks still work, nothing
	// is recorded.
	st, err := store.Open(context.Background(), baseDir, store.Options{
		RetentionPolicy: cfg.Retention.Policy(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		Logger:          log,
	})
	if err != nil {
		log.WithError(err).Warn("capture store unavailable, history disabled")
		st = nil
	} else {
		defer st.Close()
	}

	model := gemini.NewClient(
		cfg.Provider.APIKey,
		cfg.Provider.DefaultModel,
		cfg.Provider.APIVersion,
		gemini.WithLogger(log),
	)
	svc := session.NewService(st, model, log)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(st, svc)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'glance --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(st, svc, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
