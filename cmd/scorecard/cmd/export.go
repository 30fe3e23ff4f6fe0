package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/export"
	"github.com/freight-scorecard/backend/internal/view"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		out     string
		filters filterOptions
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the scorecard and chart series to an xlsx workbook",
		Long: `Load the datasets and write a workbook with the scorecard plus the daily
cost, daily service, shipments and weight series.

Examples:
  scorecard export --out scorecard.xlsx
  scorecard export --out ltl.xlsx --truck-type LTL --from 2025-01-01
  scorecard export --out acme.xlsx --carrier 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, logger, err := opts.loadSession(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer func() { _ = logger.Sync() }()

			filtered, err := filters.apply(cmd, mgr)
			if err != nil {
				return err
			}

			var wb export.Workbook
			mgr.Read(func(s *view.Store) {
				if filtered {
					wb.Scorecard = s.FilteredScorecard()
				} else {
					wb.Scorecard = s.Scorecard()
				}
				wb.Cost = s.CostDeltaDailySeries()
				wb.Service = s.ServiceDeltaDailySeries()
				wb.Shipments = s.ShipmentsSeries()
				wb.Weight = s.WeightSeries()
			})

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Write(f, wb); err != nil {
				f.Close()
				os.Remove(out)
				return fmt.Errorf("write workbook: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Debug("workbook written", zap.String("path", out), zap.Int("carriers", len(wb.Scorecard)))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d carriers to %s\n", len(wb.Scorecard), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "scorecard.xlsx", "output file")
	filters.register(cmd)
	filters.registerCarrier(cmd)
	return cmd
}
