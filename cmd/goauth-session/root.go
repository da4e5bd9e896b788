package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const driverMiniredis = "miniredis"

type options struct {
	configPath string
	envFiles   []string
	store      string
	storePath  string
	baseURL    string
	logLevel   string

	// metrics is set by commands that export counters.
	metrics bool
}

// app is the per-invocation wiring shared by every subcommand.
type app struct {
	out     io.Writer
	cfg     goSession.Config
	manager *goSession.Manager
	router  *guard.Router
	closers []func() error
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "goauth-session",
		Short: "Client-side session manager and route guard",
		Long: `goauth-session manages a client session against an auth backend.

The session survives between invocations in the configured store (a JSON file by
default). Every navigation is checked by the route guard, which reconciles the stored
session with the backend first.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "env files loaded before GOSESSION_* overrides")
	flags.StringVar(&opts.store, "store", "", "store driver: memory, file, redis, sqlite or miniredis (default from config, else file)")
	flags.StringVar(&opts.storePath, "store-path", "", "file path or sqlite DSN for the store")
	flags.StringVar(&opts.baseURL, "base-url", "", "auth backend base URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newLoginCmd(opts),
		newStatusCmd(opts),
		newRefreshCmd(opts),
		newLogoutCmd(opts),
		newNavigateCmd(opts),
		newRoutesCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func (o *options) loadConfig() (goSession.Config, error) {
	cfg, err := goSession.LoadConfig(o.configPath, goSession.LoadOptions{EnvFiles: o.envFiles})
	if err != nil {
		return goSession.Config{}, err
	}
	if o.baseURL != "" {
		cfg.Transport.BaseURL = o.baseURL
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.metrics {
		cfg.Metrics.Enabled = true
		cfg.Metrics.EnableLatencyHistograms = true
	}
	switch {
	case o.store != "":
		cfg.Storage.Driver = o.store
	case cfg.Storage.Driver == session.DriverMemory && o.configPath == "":
		// A memory store forgets the session between invocations.
		cfg.Storage.Driver = session.DriverFile
	}
	if o.storePath != "" {
		cfg.Storage.Path = o.storePath
	}
	if cfg.Storage.Driver == session.DriverFile && cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStorePath()
	}
	return cfg, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "gosession", "session.json")
}

// open builds the Manager, the route guard and the router for one invocation.
func (o *options) open(cmd *cobra.Command, notifier goSession.Notifier) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{out: cmd.OutOrStdout(), cfg: cfg}

	builder := goSession.New()
	if cfg.Storage.Driver == driverMiniredis {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("starting miniredis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		a.closers = append(a.closers, func() error { mr.Close(); return nil }, client.Close)
		cfg.Storage.Driver = session.DriverRedis
		builder = builder.WithRedis(client)
	}
	if cfg.Storage.Driver == session.DriverFile {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	table, err := loadTable(cfg.Routes.RoutesFile)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	m, err := builder.
		WithConfig(cfg).
		WithNotifier(notifier).
		WithLogger(logging.NewWithWriter(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, "cli", cmd.ErrOrStderr())).
		Build()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, m.Close)
	a.manager = m
	a.cfg = cfg

	a.router = guard.NewRouter(guard.ForManager(m, table, nil))
	m.SetNavigator(a.router)
	return a, nil
}

func loadTable(path string) (*guard.Table, error) {
	if path == "" {
		return guard.NewTable(guard.DefaultRoutes())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening routes file: %w", err)
	}
	defer f.Close()
	return guard.LoadRoutes(f)
}

func terminal(cmd *cobra.Command) *notify.Terminal {
	return notify.NewTerminal(cmd.ErrOrStderr())
}
