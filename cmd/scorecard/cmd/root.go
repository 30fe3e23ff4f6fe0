// Package cmd provides the CLI commands for scorecard.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/config"
	"github.com/freight-scorecard/backend/internal/loader"
	"github.com/freight-scorecard/backend/internal/logging"
	"github.com/freight-scorecard/backend/internal/session"
)

// Version is set during build.
var Version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	cfgFile    string
	verbose    bool
	carriers   string
	quotes     string
	deliveries string
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Each call returns independent flag state.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "scorecard",
		Short: "Carrier scorecards from quote and delivery records",
		Long: `scorecard loads carriers, quotes and deliveries and reports per-carrier
cost and service performance.

Examples:
  scorecard compute
  scorecard compute --format json --filtered --from 2025-01-01 --truck-type LTL
  scorecard export --out scorecard.xlsx
  scorecard compute --quotes https://example.com/QUOTESvsACTUAL.csv`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default: built-in defaults plus SCORECARD_* environment)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&opts.carriers, "carriers", "", "carriers CSV path or URL")
	pf.StringVar(&opts.quotes, "quotes", "", "quotes CSV path or URL")
	pf.StringVar(&opts.deliveries, "deliveries", "", "deliveries CSV path or URL")

	root.AddCommand(newComputeCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scorecard version %s\n", Version)
		},
	}
}

// loadConfig reads --config if given, else defaults plus environment. Any
// path flag switches the source to csv and replaces that document.
func (o *globalOptions) loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if o.cfgFile != "" {
		cfg, err = config.LoadConfig(o.cfgFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	overrides := map[*string]string{
		&cfg.Data.CarriersPath:   o.carriers,
		&cfg.Data.QuotesPath:     o.quotes,
		&cfg.Data.DeliveriesPath: o.deliveries,
	}
	for dst, v := range overrides {
		if v != "" {
			*dst = v
			cfg.Data.Source = config.SourceCSV
		}
	}

	// The CLI writes its report to stdout, so logs stay on stderr and quiet.
	cfg.Logging.Output = "stderr"
	cfg.Logging.Level = "warn"
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// loadSession builds the configured loader and runs one load to completion.
func (o *globalOptions) loadSession(ctx context.Context) (*session.Manager, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}

	source, closer, err := loader.FromConfig(cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	mgr := session.NewManager(
		session.WithTimeout(cfg.Data.LoadTimeout),
		session.WithLogger(logger),
	)
	if _, err := mgr.Load(ctx, source); err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("load datasets: %w", err)
	}
	return mgr, logger, nil
}
