package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hpungsan/crackr/internal/config"
	"github.com/hpungsan/crackr/internal/db"
	"github.com/hpungsan/crackr/internal/kv"
	"github.com/hpungsan/crackr/internal/mcp"
	"github.com/hpungsan/crackr/internal/ops"
	"github.com/hpungsan/crackr/internal/planner"
	"github.com/hpungsan/crackr/internal/review"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "due": true, "grade": true, "show": true, "list": true,
	"practice": true, "answer": true,
	"plan": true, "toggle": true, "goal": true, "history": true, "stats": true,
	"export": true, "import": true, "import-sheet": true,
	"data": true, "serve": true, "help": true,
}

// env is everything a command operates on.
type env struct {
	baseDir string
	db      *sql.DB    // nil in memory mode
	mem     *kv.Memory // set in memory mode only
	cfg     *config.Config
	sched   *review.Scheduler
	planner *planner.Planner
	files   ops.FileScope
	log     *zap.Logger
}

// mcpDeps adapts the environment for the MCP server.
func (e *env) mcpDeps() mcp.Deps {
	return mcp.Deps{
		Scheduler: e.sched,
		Planner:   e.planner,
		Config:    e.cfg,
		Files:     e.files,
		Logger:    e.log,
	}
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	args := cliArgs()
	if len(args) == 0 {
		return false // No args → MCP server
	}
	arg := args[0]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	args := cliArgs()
	if len(args) == 0 {
		return false
	}
	arg := args[0]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// cliArgs returns the arguments after the program name with global flags removed.
func cliArgs() []string {
	return slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool { return a == "--memory" })
}

// useMemory reports whether the session should skip the database.
func useMemory() bool {
	return slices.Contains(os.Args[1:], "--memory") || os.Getenv("CRACKR_MEMORY") == "1"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// showBanner reports whether to print the banner instead of serving MCP:
// no command was given and stdin is a terminal.
func showBanner(terminal bool) bool {
	return terminal && len(cliArgs()) == 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                       _
   ___ _ __ __ _  ___| | ___ __
  / __| '__/ _' |/ __| |/ / '__|
 | (__| | | (_| | (__|   <| |
  \___|_|  \__,_|\___|_|\_\_|

  Spaced-repetition review and study planner

  Usage: crackr <command> [options]
         crackr --help

  MCP server mode requires piped input.`)
}

// newLogger builds a development logger when CRACKR_ENV=development and a
// production logger otherwise. Both write to stderr.
func newLogger() (*zap.Logger, error) {
	if os.Getenv("CRACKR_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// resolveBaseDir returns CRACKR_HOME or ~/.crackr.
func resolveBaseDir() (string, error) {
	if dir := os.Getenv("CRACKR_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".crackr"), nil
}

// openEnv loads config and opens the scheduler and planner over the
// SQLite store, or over an in-memory store when memory is set.
// The returned close function releases the database.
func openEnv(ctx context.Context, baseDir string, memory bool, log *zap.Logger) (*env, func(), error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("create base dir: %w", err)
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		log.Warn("unknown tool in disabled_tools", zap.String("tool", name))
	}
	for _, name := range mcp.ValidateDisabledTypes(cfg.DisabledTypes) {
		log.Warn("unknown type in disabled_types", zap.String("type", name))
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	var store kv.Store
	var database *sql.DB
	var mem *kv.Memory
	closeFn := func() {}
	if memory {
		mem = kv.NewMemory()
		store = mem
	} else {
		database, err = db.Init(baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(database, cfg)
		store = db.NewKV(database)
		closeFn = func() { database.Close() }
	}

	sched, err := review.Open(ctx, store,
		review.WithIntervals(cfg.Intervals),
		review.WithKey(cfg.CardsKey),
		review.WithLocation(loc),
		review.WithLogger(log))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	p, err := planner.Open(ctx, store,
		planner.WithLocation(loc),
		planner.WithLogger(log))
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return &env{
		baseDir: baseDir,
		db:      database,
		mem:     mem,
		cfg:     cfg,
		sched:   sched,
		planner: p,
		files:   ops.NewFileScope(cfg, baseDir),
		log:     log,
	}, closeFn, nil
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	// No command + interactive terminal → show banner and exit
	if showBanner(isTerminal()) {
		printBanner()
		return
	}

	// Handle --help/--version before opening anything
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	baseDir, err := resolveBaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	e, closeFn, err := openEnv(context.Background(), baseDir, useMemory(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(e)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			closeFn()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(cliArgs()) > 0 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", cliArgs()[0])
		fmt.Fprintf(os.Stderr, "Run 'crackr --help' for usage.\n")
		closeFn()
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(e.mcpDeps(), Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeFn()
		os.Exit(1)
	}
}
