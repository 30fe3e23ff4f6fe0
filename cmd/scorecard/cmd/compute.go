package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/session"
	"github.com/freight-scorecard/backend/internal/view"
)

// filterOptions select the filtered scorecard.
type filterOptions struct {
	filtered  bool
	from      string
	to        string
	truckType string
	carrier   int
}

func (f *filterOptions) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.filtered, "filtered", false, "report the filtered scorecard instead of the full one")
	fl.StringVar(&f.from, "from", "", "first day to include (YYYY-MM-DD), implies --filtered")
	fl.StringVar(&f.to, "to", "", "last day to include (YYYY-MM-DD), implies --filtered")
	fl.StringVar(&f.truckType, "truck-type", "ALL", "ALL, LTL or TL, implies --filtered when not ALL")
}

// registerCarrier adds --carrier for commands that output series.
func (f *filterOptions) registerCarrier(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.carrier, "carrier", 0, "narrow the daily and weekly series to one carrier id")
}

// apply pushes the flags into the session filters and reports whether the
// filtered view was requested.
func (f *filterOptions) apply(cmd *cobra.Command, mgr *session.Manager) (bool, error) {
	filtered := f.filtered || f.from != "" || f.to != ""

	tt, err := models.ParseTruckTypeFilter(f.truckType)
	if err != nil {
		return false, err
	}
	if tt != models.TruckFilterAll {
		filtered = true
	}
	mgr.SetTruckType(tt)

	from, err := parseDay("from", f.from)
	if err != nil {
		return false, err
	}
	to, err := parseDay("to", f.to)
	if err != nil {
		return false, err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return false, fmt.Errorf("--from %s is after --to %s", f.from, f.to)
	}
	mgr.SetDateRange(models.NewDateRange(from, to))

	if fl := cmd.Flags().Lookup("carrier"); fl != nil && fl.Changed {
		mgr.SelectCarrier(f.carrier)
	}
	return filtered, nil
}

func parseDay(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(view.DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

func newComputeCmd(opts *globalOptions) *cobra.Command {
	var (
		format  string
		filters filterOptions
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Print the carrier scorecard",
		Long: `Load the datasets and print one row per carrier.

Examples:
  scorecard compute
  scorecard compute --format json
  scorecard compute --filtered --from 2025-01-01 --to 2025-01-31 --truck-type TL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (table, json)", format)
			}
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

			var rows []models.CarrierScoreMetrics
			mgr.Read(func(s *view.Store) {
				if filtered {
					rows = s.FilteredScorecard()
				} else {
					rows = s.Scorecard()
				}
			})

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json)")
	filters.register(cmd)
	return cmd
}

func writeJSON(w io.Writer, rows []models.CarrierScoreMetrics) error {
	if rows == nil {
		rows = []models.CarrierScoreMetrics{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeTable(w io.Writer, rows []models.CarrierScoreMetrics) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No carriers in range.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tCarrier\tType\tQuotes\tOver %\tAvg Δ\tAvg Δ %\tExtra\tShipments\tLate %\tAvg Δ days\tRank score\t")
	for _, m := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			m.CarrierID,
			m.CarrierName,
			m.TruckType,
			humanize.Comma(int64(m.Cost.QuoteCount)),
			percent(m.Cost.OverRate),
			money(m.Cost.AvgDelta),
			percent(m.Cost.AvgDeltaPct),
			money(m.Cost.ExtraChargesTotal),
			humanize.Comma(int64(m.Service.Shipments)),
			percent(m.Service.LateRate),
			strconv.FormatFloat(m.Service.AvgDeltaDays, 'f', 2, 64),
			strconv.FormatFloat(m.RankScore(), 'f', 3, 64),
		)
	}
	return tw.Flush()
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}
