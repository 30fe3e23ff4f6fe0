package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/scorecard"
)

// CostDaily groups quotes by the UTC day of their quote date. Days without
// rows are omitted; points are in ascending date order.
func CostDaily(quotes []models.QuoteActual) []models.CostDayPoint {
	byDay := make(map[string]*models.CostDayPoint)
	for _, q := range quotes {
		key := DayKey(q.QuoteDate)
		p, ok := byDay[key]
		if !ok {
			p = &models.CostDayPoint{Day: key, Date: models.UTCDay(q.QuoteDate)}
			byDay[key] = p
		}
		delta := q.Amount - q.Quote
		pct := scorecard.DeltaPct(delta, q.Quote)
		p.Count++
		n := float64(p.Count)
		p.SumQuote += q.Quote
		p.SumAmount += q.Amount
		p.AvgDelta += (delta - p.AvgDelta) / n
		p.AvgDeltaPct += (pct - p.AvgDeltaPct) / n
	}

	out := make([]models.CostDayPoint, 0, len(byDay))
	for _, p := range byDay {
		p.Delta = p.SumAmount - p.SumQuote
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// ServiceDaily groups deliveries by the UTC day of the actual delivery.
// Rows whose transit durations are not finite are skipped.
func ServiceDaily(deliveries []models.Delivery) []models.ServiceDayPoint {
	byDay := make(map[string]*models.ServiceDayPoint)
	for _, d := range deliveries {
		actual, expected, ok := scorecard.TransitDays(d)
		if !ok {
			continue
		}
		key := DayKey(d.Delivery)
		p, found := byDay[key]
		if !found {
			p = &models.ServiceDayPoint{Day: key, Date: models.UTCDay(d.Delivery)}
			byDay[key] = p
		}
		p.Count++
		n := float64(p.Count)
		p.AvgExpectedDays += (expected - p.AvgExpectedDays) / n
		p.AvgActualDays += (actual - p.AvgActualDays) / n
		p.AvgDeltaDays += ((actual - expected) - p.AvgDeltaDays) / n
	}

	out := make([]models.ServiceDayPoint, 0, len(byDay))
	for _, p := range byDay {
		p.Delta = p.AvgActualDays - p.AvgExpectedDays
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// ShipmentsSeries counts deliveries per carrier when no carrier is selected,
// and per Monday-start delivery week when one is.
func ShipmentsSeries(deliveries []models.Delivery, sel models.CarrierSelection, carriers map[int]models.Carrier) models.BarSeries {
	if !sel.Selected {
		totals := make(map[int]float64)
		for _, d := range deliveries {
			totals[d.CarrierID]++
		}
		return perCarrier(totals, carriers)
	}
	totals := make(map[string]float64)
	for _, d := range deliveries {
		if d.CarrierID == sel.ID {
			totals[WeekKey(d.Delivery)]++
		}
	}
	return perWeek(totals)
}

// WeightSeries sums quoted weight per carrier, or per quote week for a
// selected carrier.
func WeightSeries(quotes []models.QuoteActual, sel models.CarrierSelection, carriers map[int]models.Carrier) models.BarSeries {
	if !sel.Selected {
		totals := make(map[int]float64)
		for _, q := range quotes {
			totals[q.CarrierID] += q.Weight
		}
		return perCarrier(totals, carriers)
	}
	totals := make(map[string]float64)
	for _, q := range quotes {
		if q.CarrierID == sel.ID {
			totals[WeekKey(q.QuoteDate)] += q.Weight
		}
	}
	return perWeek(totals)
}

func perCarrier(totals map[int]float64, carriers map[int]models.Carrier) models.BarSeries {
	ids := make([]int, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	points := make([]models.BarPoint, 0, len(ids))
	for _, id := range ids {
		points = append(points, models.BarPoint{
			Key:       CarrierName(carriers, id),
			CarrierID: id,
			Value:     totals[id],
		})
	}
	return models.BarSeries{Mode: models.BarByCarrier, Points: points}
}

func perWeek(totals map[string]float64) models.BarSeries {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	points := make([]models.BarPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, models.BarPoint{Key: k, Value: totals[k]})
	}
	return models.BarSeries{Mode: models.BarByWeek, Points: points}
}

// CarrierName looks up a display name, falling back to "Carrier {id}".
func CarrierName(carriers map[int]models.Carrier, id int) string {
	if c, ok := carriers[id]; ok && c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Carrier %d", id)
}

// CostSeriesMode picks how the cost chart presents each day.
type CostSeriesMode string

const (
	CostTotals CostSeriesMode = "totals" // daily quote and actual totals plus their delta
	CostMeans  CostSeriesMode = "means"  // mean delta and mean percent delta per row
)

// ServiceSeriesMode picks how the service chart presents each day.
type ServiceSeriesMode string

const (
	ServiceFull  ServiceSeriesMode = "full"  // expected, actual and their difference
	ServiceDelta ServiceSeriesMode = "delta" // mean delta only
)

// ParseCostSeriesMode defaults to totals.
func ParseCostSeriesMode(s string) (CostSeriesMode, error) {
	switch CostSeriesMode(strings.ToLower(s)) {
	case "", CostTotals:
		return CostTotals, nil
	case CostMeans:
		return CostMeans, nil
	}
	return "", fmt.Errorf("unknown cost series mode: %q", s)
}

// ParseServiceSeriesMode defaults to full.
func ParseServiceSeriesMode(s string) (ServiceSeriesMode, error) {
	switch ServiceSeriesMode(strings.ToLower(s)) {
	case "", ServiceFull:
		return ServiceFull, nil
	case ServiceDelta:
		return ServiceDelta, nil
	}
	return "", fmt.Errorf("unknown service series mode: %q", s)
}

// CostSeriesTable shapes daily cost points into chart rows. Columns are typed
// so an empty table still renders.
func CostSeriesTable(points []models.CostDayPoint, mode CostSeriesMode) models.ChartTable {
	if mode == CostMeans {
		t := models.ChartTable{Columns: []models.ChartColumn{
			{Type: "date", Label: "Date"},
			{Type: "number", Label: "Avg Delta"},
			{Type: "number", Label: "Avg Delta %"},
		}, Rows: make([][]any, 0, len(points))}
		for _, p := range points {
			t.Rows = append(t.Rows, []any{p.Day, p.AvgDelta, p.AvgDeltaPct})
		}
		return t
	}
	t := models.ChartTable{Columns: []models.ChartColumn{
		{Type: "date", Label: "Date"},
		{Type: "number", Label: "Quote"},
		{Type: "number", Label: "Actual"},
		{Type: "number", Label: "Delta"},
		{Type: "number", Label: "Avg Delta", Role: "annotation"},
	}, Rows: make([][]any, 0, len(points))}
	for _, p := range points {
		t.Rows = append(t.Rows, []any{p.Day, p.SumQuote, p.SumAmount, p.Delta, p.AvgDelta})
	}
	return t
}

// ServiceSeriesTable shapes daily service points into chart rows.
func ServiceSeriesTable(points []models.ServiceDayPoint, mode ServiceSeriesMode) models.ChartTable {
	if mode == ServiceDelta {
		t := models.ChartTable{Columns: []models.ChartColumn{
			{Type: "date", Label: "Date"},
			{Type: "number", Label: "Avg Δ Days"},
		}, Rows: make([][]any, 0, len(points))}
		for _, p := range points {
			t.Rows = append(t.Rows, []any{p.Day, p.AvgDeltaDays})
		}
		return t
	}
	t := models.ChartTable{Columns: []models.ChartColumn{
		{Type: "date", Label: "Date"},
		{Type: "number", Label: "Expected Days"},
		{Type: "number", Label: "Actual Days"},
		{Type: "number", Label: "Delta"},
	}, Rows: make([][]any, 0, len(points))}
	for _, p := range points {
		t.Rows = append(t.Rows, []any{p.Day, p.AvgExpectedDays, p.AvgActualDays, p.Delta})
	}
	return t
}

// BarTable shapes a bar series; the first column is Carrier or Week by mode.
func BarTable(s models.BarSeries, valueLabel string) models.ChartTable {
	keyLabel := "Carrier"
	if s.Mode == models.BarByWeek {
		keyLabel = "Week"
	}
	t := models.ChartTable{Columns: []models.ChartColumn{
		{Type: "string", Label: keyLabel},
		{Type: "number", Label: valueLabel},
	}, Rows: make([][]any, 0, len(s.Points))}
	for _, p := range s.Points {
		t.Rows = append(t.Rows, []any{p.Key, p.Value})
	}
	return t
}
