package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/starfield/engine/internal/app"
	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/console"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/engine"
	"github.com/starfield/engine/internal/persist"
)

const version = "v0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/starfield.toml"
	if p := os.Getenv("STARFIELD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	console.Banner(os.Stdout, cfg.App.Name, version)

	ctx := context.Background()

	// 3. Journal database, only when a DSN is configured
	var journal engine.JournalStore
	if cfg.Database.DSN != "" {
		console.Section(os.Stdout, "Database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		console.OK(os.Stdout, "PostgreSQL connected")

		schema, err := persist.RunMigrations(dbCtx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		console.OK(os.Stdout, "migrations applied")
		console.Stat(os.Stdout, "Schema version", schema)
		fmt.Println()
		journal = persist.NewJournalRepo(db)
	}

	// 4. Controllers
	a, err := app.Setup(app.Deps{
		Config:  cfg,
		Log:     log,
		Journal: journal,
		Context: ctx,
	})
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if err := a.Initialize(); err != nil {
		return fmt.Errorf("initialize controllers: %w", err)
	}
	order := a.Sched.Order()

	console.Section(os.Stdout, "Controllers")
	disabled := make(map[string]bool)
	for _, c := range order {
		if !c.Enabled() {
			disabled[c.Name()] = true
		}
	}
	console.Order(os.Stdout, controller.Names(order), disabled)
	console.Stat(os.Stdout, "Manifest edges", a.Manifest.Count())
	console.Stat(os.Stdout, "Fingerprint", controller.Fingerprint(order))
	fmt.Println()

	console.Ready(os.Stdout, fmt.Sprintf("frame loop started (interval %s)", cfg.Loop.FrameInterval))
	fmt.Println()

	// 5. Frame loop; the platform controller turns SIGINT/SIGTERM into a quit
	return a.Run(ctx)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
