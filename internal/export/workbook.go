// Package export renders scorecard views as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/freight-scorecard/backend/internal/models"
)

// Sheet names in workbook order.
const (
	SheetScorecard = "Scorecard"
	SheetCost      = "Cost Daily"
	SheetService   = "Service Daily"
	SheetShipments = "Shipments"
	SheetWeight    = "Weight"
)

// Places is the rounding applied to every ratio and mean.
const Places = 4

// Workbook is everything one export contains.
type Workbook struct {
	Scorecard []models.CarrierScoreMetrics
	Cost      []models.CostDayPoint
	Service   []models.ServiceDayPoint
	Shipments models.BarSeries
	Weight    models.BarSeries
}

var scorecardHeader = []any{
	"Carrier ID", "Carrier", "Type", "Rank Score",
	"Quotes", "Over", "Under", "Over Rate", "Under Rate",
	"Avg Quote", "Avg Amount", "Avg Weight", "Avg Delta", "Avg Delta %",
	"Extra Charges", "Under Quoted", "Avg Over Charge", "Avg Under Credit",
	"Shipments", "Late", "Early", "Late Rate", "Early Rate",
	"Avg Expected Days", "Avg Actual Days", "Avg Delta Days",
}

func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(Places).InexactFloat64()
}

// Write renders wb as xlsx into w.
func Write(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetScorecard); err != nil {
		return err
	}
	for _, name := range []string{SheetCost, SheetService, SheetShipments, SheetWeight} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetScorecard, scorecardHeader, scorecardRows(wb.Scorecard)},
		{SheetCost, []any{"Date", "Quotes", "Sum Quote", "Sum Amount", "Delta", "Avg Delta", "Avg Delta %"}, costRows(wb.Cost)},
		{SheetService, []any{"Date", "Deliveries", "Avg Expected Days", "Avg Actual Days", "Delta", "Avg Delta Days"}, serviceRows(wb.Service)},
		{SheetShipments, barHeader(wb.Shipments, "Shipments"), barRows(wb.Shipments)},
		{SheetWeight, barHeader(wb.Weight, "Weight"), barRows(wb.Weight)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows, bold); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func scorecardRows(rows []models.CarrierScoreMetrics) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		c, s := r.Cost, r.Service
		out = append(out, []any{
			r.CarrierID, r.CarrierName, string(r.TruckType), round(r.RankScore()),
			c.QuoteCount, c.OverCount, c.UnderCount, round(c.OverRate), round(c.UnderRate),
			round(c.AvgQuote), round(c.AvgAmount), round(c.AvgWeight), round(c.AvgDelta), round(c.AvgDeltaPct),
			round(c.ExtraChargesTotal), round(c.UnderQuotedTotal), round(c.AvgOverCharge), round(c.AvgUnderCredit),
			s.Shipments, s.LateCount, s.EarlyCount, round(s.LateRate), round(s.EarlyRate),
			round(s.AvgExpectedDays), round(s.AvgActualDays), round(s.AvgDeltaDays),
		})
	}
	return out
}

func costRows(points []models.CostDayPoint) [][]any {
	out := make([][]any, 0, len(points))
	for _, p := range points {
		out = append(out, []any{p.Day, p.Count, round(p.SumQuote), round(p.SumAmount), round(p.Delta), round(p.AvgDelta), round(p.AvgDeltaPct)})
	}
	return out
}

func serviceRows(points []models.ServiceDayPoint) [][]any {
	out := make([][]any, 0, len(points))
	for _, p := range points {
		out = append(out, []any{p.Day, p.Count, round(p.AvgExpectedDays), round(p.AvgActualDays), round(p.Delta), round(p.AvgDeltaDays)})
	}
	return out
}

func barHeader(s models.BarSeries, value string) []any {
	if s.Mode == models.BarByWeek {
		return []any{"Week", value}
	}
	return []any{"Carrier", value}
}

func barRows(s models.BarSeries) [][]any {
	out := make([][]any, 0, len(s.Points))
	for _, p := range s.Points {
		out = append(out, []any{p.Key, round(p.Value)})
	}
	return out
}
