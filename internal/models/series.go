package models

import "time"

// CostDayPoint is one UTC day of quotes grouped for the cost delta chart.
type CostDayPoint struct {
	Day         string    `json:"day" msgpack:"day"`
	Date        time.Time `json:"date" msgpack:"date"`
	Count       int       `json:"count" msgpack:"count"`
	SumQuote    float64   `json:"sumQuote" msgpack:"sumQuote"`
	SumAmount   float64   `json:"sumAmount" msgpack:"sumAmount"`
	Delta       float64   `json:"delta" msgpack:"delta"` // SumAmount - SumQuote
	AvgDelta    float64   `json:"avgDelta" msgpack:"avgDelta"`
	AvgDeltaPct float64   `json:"avgDeltaPct" msgpack:"avgDeltaPct"`
}

// ServiceDayPoint is one UTC delivery day grouped for the service delta chart.
type ServiceDayPoint struct {
	Day             string    `json:"day" msgpack:"day"`
	Date            time.Time `json:"date" msgpack:"date"`
	Count           int       `json:"count" msgpack:"count"`
	AvgExpectedDays float64   `json:"avgExpectedDays" msgpack:"avgExpectedDays"`
	AvgActualDays   float64   `json:"avgActualDays" msgpack:"avgActualDays"`
	Delta           float64   `json:"delta" msgpack:"delta"` // AvgActualDays - AvgExpectedDays
	AvgDeltaDays    float64   `json:"avgDeltaDays" msgpack:"avgDeltaDays"`
}

// BarMode says what a bar series is keyed by.
type BarMode string

const (
	BarByCarrier BarMode = "carrier"
	BarByWeek    BarMode = "week"
)

// BarPoint is one bar of the shipments or weight chart.
type BarPoint struct {
	Key       string  `json:"key" msgpack:"key"` // carrier name or week key
	CarrierID int     `json:"carrierId,omitempty" msgpack:"carrierId,omitempty"`
	Value     float64 `json:"value" msgpack:"value"`
}

// BarSeries is a bar chart's points plus the mode that produced them.
type BarSeries struct {
	Mode   BarMode    `json:"mode" msgpack:"mode"`
	Points []BarPoint `json:"points" msgpack:"points"`
}

// ChartTable is a header row plus data rows, ready for a charting library.
type ChartTable struct {
	Columns []ChartColumn `json:"columns" msgpack:"columns"`
	Rows    [][]any       `json:"rows" msgpack:"rows"`
}

// ChartColumn describes one column of a ChartTable.
type ChartColumn struct {
	Type  string `json:"type" msgpack:"type"` // "date", "string", "number"
	Label string `json:"label" msgpack:"label"`
	Role  string `json:"role,omitempty" msgpack:"role,omitempty"`
}
