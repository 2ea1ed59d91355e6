package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/workboard/internal/adapters/seed"
	serveradapter "github.com/hylla/workboard/internal/adapters/server"
	"github.com/hylla/workboard/internal/adapters/server/common"
	"github.com/hylla/workboard/internal/adapters/storage/diskv"
	"github.com/hylla/workboard/internal/adapters/storage/sqlite"
	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/config"
	"github.com/hylla/workboard/internal/platform"
	"github.com/hylla/workboard/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the slice of *tea.Program the root command drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the terminal program for one model.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one command line against the given output streams.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCommand(&globalOptions{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// globalOptions holds persistent flag values shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool

	stdout io.Writer
	stderr io.Writer
}

// newRootCommand builds the workboard command tree. The root command runs the TUI.
func newRootCommand(opts *globalOptions) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("WORKBOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultAppName := "workboard"
	if envApp := strings.TrimSpace(os.Getenv("WORKBOARD_APP_NAME")); envApp != "" {
		defaultAppName = envApp
	}

	root := &cobra.Command{
		Use:   "workboard",
		Short: "Schedule work orders across work centers on a timeline",
		Long: "workboard keeps a schedule of work orders on work centers and renders it as a timeline board.\n" +
			"Run without arguments for the TUI or use the sub-commands for scripting.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultAppName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newServeCommand(opts),
		newPathsCommand(opts),
		newListCommand(opts),
		newGridCommand(opts),
		newAuditCommand(opts),
		newActivityCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
	)
	return root
}

// runtime is one opened schedule: resolved config, logger, storage and a loaded store.
type runtime struct {
	cfg    config.Config
	logger *runtimeLogger
	store  *app.Store
	report app.LoadReport

	activity  app.ActivityLog
	readiness common.ReadinessChecker
	closers   []func() error
}

// resolvePaths applies the --app and --dev flags to the platform path defaults.
func resolvePaths(opts *globalOptions) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// openRuntime resolves config (flag, then environment, then platform default),
// opens the configured storage backend and loads the store.
func openRuntime(ctx context.Context, opts *globalOptions) (*runtime, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("WORKBOARD_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("WORKBOARD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath, paths.DocsDir))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Storage.Path = dbPath
	}

	logger, err := newRuntimeLogger(opts.stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}
	logger.Debug("config resolved", "path", configPath, "backend", cfg.Backend())
	if path := logger.DevLogPath(); path != "" {
		logger.Info("dev file logging enabled", "path", path)
	}

	kv, err := rt.openBackend()
	if err != nil {
		logger.Error("open storage failed", "backend", cfg.Backend(), "err", err)
		_ = logger.Close()
		return nil, err
	}

	rt.store = app.NewStore(kv, seed.NewProvider(time.Now), app.StoreConfig{
		StorageKey: cfg.Storage.Key,
		IDGen:      uuid.NewString,
		Logger:     logger,
		Activity:   rt.activity,
	})
	rt.report = rt.store.Load(ctx)
	logger.Info(
		"schedule loaded",
		"source", rt.report.Source,
		"work_centers", rt.report.WorkCenters,
		"work_orders", rt.report.WorkOrders,
		"overlaps", len(rt.report.Overlaps),
		"orphans", len(rt.report.OrphanOrderIDs),
	)
	return rt, nil
}

// openBackend opens the key/value store selected by storage.backend.
func (rt *runtime) openBackend() (app.KeyValueStore, error) {
	switch rt.cfg.Backend() {
	case config.StorageBackendDiskv:
		store, err := diskv.Open(rt.cfg.Storage.DiskvDir)
		if err != nil {
			return nil, fmt.Errorf("open diskv store: %w", err)
		}
		rt.logger.Debug("storage opened", "backend", config.StorageBackendDiskv, "dir", store.BasePath())
		return store, nil
	case config.StorageBackendSQLite:
		repo, err := sqlite.Open(rt.cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		rt.activity = repo
		rt.readiness = repo
		rt.closers = append(rt.closers, repo.Close)
		rt.logger.Debug("storage opened", "backend", config.StorageBackendSQLite, "path", rt.cfg.Storage.Path)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", rt.cfg.Storage.Backend)
	}
}

// Close releases storage handles and then the log file.
func (rt *runtime) Close() error {
	if rt == nil {
		return nil
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := rt.logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// newBoard builds the view controller configured from the runtime config.
func (rt *runtime) newBoard() *app.Board {
	return app.NewBoard(rt.store, app.BoardConfig{
		Logger:          rt.logger,
		Zoom:            rt.cfg.Zoom(),
		Grid:            rt.cfg.GridOptions(),
		MinBarWidth:     rt.cfg.Timeline.MinBarWidth,
		ToastDuration:   rt.cfg.ToastDuration(),
		PanelCloseDelay: rt.cfg.PanelCloseDelay(),
	})
}

// runTUI opens the schedule and runs the interactive board until the user quits.
func runTUI(ctx context.Context, opts *globalOptions) error {
	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()

	// The board owns the terminal from here on.
	rt.logger.SetConsoleEnabled(false)
	defer rt.logger.SetConsoleEnabled(true)

	board := rt.newBoard()
	defer board.Close()
	m := tui.NewModel(
		board,
		tui.WithLogger(rt.logger),
		tui.WithActor(app.MutationActor{ActorID: localActorID(), ActorType: app.ActorTypeUser}),
	)
	defer m.Close()

	rt.logger.Info("tui starting", "zoom", rt.cfg.Zoom())
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui exited with error", "err", err)
		return fmt.Errorf("run tui: %w", err)
	}
	rt.logger.Info("tui exited")
	return nil
}

// localActorID names the terminal user for activity attribution.
func localActorID() string {
	for _, name := range []string{"USER", "USERNAME"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return "local"
}

// parseBoolEnv parses a boolean environment variable; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
