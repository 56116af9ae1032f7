package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sea-sol/prediction-markets/config"
	"github.com/sea-sol/prediction-markets/internal/adapters/feed"
	"github.com/sea-sol/prediction-markets/internal/adapters/ledger"
	"github.com/sea-sol/prediction-markets/internal/adapters/notify"
	"github.com/sea-sol/prediction-markets/internal/adapters/storage"
	"github.com/sea-sol/prediction-markets/internal/application/engine"
	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

const usage = `usage: prediction [flags] <command> [command flags]

commands:
  init           create the global config from the config file fee schedule
  update-global  replace the fee schedule (admin)
  airdrop        credit native balance to an address (local ledger)
  create         create the signer's market
  bet            place a bet on a market
  liquidity      add liquidity to a market
  withdraw       withdraw native balance from market custody (admin)
  resolve        resolve a market against its price feed
  show           print the global config, a market or the event journal
  keygen         generate a new keypair

flags:
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]

	// keygen no necesita config ni ledger
	if name == "keygen" {
		runKeygen(os.Stdout)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	cmd, ok := commands[name]
	if !ok {
		slog.Error("unknown command", "command", name)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "err", err)
		os.Exit(1)
	}
	defer a.close()

	slog.Debug("prediction starting",
		"config", *configPath,
		"command", name,
		"program", a.deriver.Program(),
		"dsn", cfg.Storage.DSN,
	)

	if err := cmd(ctx, a, args); err != nil {
		slog.Error("command failed", "command", name, "err", err)
		a.close()
		os.Exit(1)
	}
}

// app agrupa las dependencias de los comandos.
type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStorage
	ledger  *ledger.Ledger
	deriver *custody.Deriver
	static  *feed.Static
	console *notify.Console
	engine  *engine.Engine
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	program, err := cfg.ProgramID()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	console := notify.NewConsole()
	l, err := ledger.Open(ctx, program, store, ledger.WithSink(console))
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		ledger:  l,
		deriver: custody.NewDeriver(program, cfg.Seeds()),
		static:  feed.NewStatic(),
		console: console,
	}

	var priceFeed ports.PriceFeed = a.static
	if cfg.Oracle.FeedURL != "" {
		priceFeed = feed.NewClient(cfg.Oracle.FeedURL, cfg.Oracle.RequestsPerSecond)
	}
	a.engine = engine.New(l, priceFeed, a.deriver, engine.Config{
		StalenessWindow: cfg.StalenessWindow(),
	})
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
