package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/api"
	"github.com/freight-scorecard/backend/internal/config"
	"github.com/freight-scorecard/backend/internal/loader"
	"github.com/freight-scorecard/backend/internal/logging"
	"github.com/freight-scorecard/backend/internal/metrics"
	"github.com/freight-scorecard/backend/internal/session"
	"github.com/freight-scorecard/backend/internal/storage"
	"github.com/freight-scorecard/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configFileName = "scorecard.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scorecard-server: %v\n", err)
		os.Exit(1)
	}
}

// configPath prefers SCORECARD_CONFIG, then scorecard.yaml next to the binary.
func configPath() string {
	if p := os.Getenv(config.EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	exePath, err := os.Executable()
	if err != nil {
		return configFileName
	}
	return filepath.Join(filepath.Dir(exePath), configFileName)
}

func run() error {
	cfgPath := configPath()
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	source, closer, err := loader.FromConfig(cfg.Data)
	if err != nil {
		return fmt.Errorf("init data source: %w", err)
	}
	defer closer.Close()

	opts := []session.Option{
		session.WithTimeout(cfg.Data.LoadTimeout),
		session.WithLogger(logger),
	}
	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New()
		opts = append(opts, session.WithRecorder(met))
	}
	sessionMgr := session.NewManager(opts...)
	defer sessionMgr.Close()

	h := api.NewHandler(api.Dependencies{
		Session: sessionMgr,
		Store:   fileStore,
		Loader:  source,
		Logger:  logger,
		Version: Version,
	})
	hub := api.NewHub(sessionMgr, logger)
	defer hub.Close()

	e := api.NewEcho(cfg.Server, logger, cfg.Logging.Development)
	routes := api.Routes{Handler: h, Hub: hub}
	if met != nil {
		routes.Metrics = met.Handler()
		routes.MetricsPath = cfg.Metrics.Path
	}
	api.RegisterRoutes(e, routes)
	if err := web.RegisterStaticRoutes(e); err != nil {
		logger.Warn("dashboard page unavailable", zap.Error(err))
	}

	if cfg.Data.LoadOnStartup {
		st := h.StartLoad()
		logger.Info("initial load started", zap.String("id", logging.ShortID(st.ID)))
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	printBanner(cfgPath, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- e.StartServer(s) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger.Info("shutting down", zap.Duration("timeout", timeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func printBanner(cfgPath string, cfg *config.AppConfig) {
	source := cfg.Data.Source
	if source == config.SourceSQL {
		source += " (" + cfg.Data.Driver + ")"
	}
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Carrier Scorecard Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Source:     %-45s║\n", source)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", cfgPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Uploads:   %-46s║\n", cfg.Storage.UploadsDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
