package export

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/freight-scorecard/backend/internal/models"
)

func TestWrite(t *testing.T) {
	wb := Workbook{
		Scorecard: []models.CarrierScoreMetrics{{
			CarrierID:   7,
			CarrierName: "Acme",
			TruckType:   models.TruckTypeTL,
			Cost:        models.CostMetrics{QuoteCount: 3, AvgDeltaPct: 1.0 / 3},
			Service:     models.ServiceMetrics{Shipments: 2, AvgDeltaDays: 0.5},
		}},
		Cost:      []models.CostDayPoint{{Day: "2025-01-01", Count: 2, SumQuote: 300, SumAmount: 310, Delta: 10}},
		Shipments: models.BarSeries{Mode: models.BarByWeek, Points: []models.BarPoint{{Key: "2025-01-06", Value: 4}}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, wb))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetScorecard, SheetCost, SheetService, SheetShipments, SheetWeight}, f.GetSheetList())

	rows, err := f.GetRows(SheetScorecard)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Carrier ID", rows[0][0])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "Acme", rows[1][1])
	assert.Equal(t, "TL", rows[1][2])
	assert.Equal(t, "0.8333", rows[1][3], "rank score is rounded")

	cost, err := f.GetRows(SheetCost)
	require.NoError(t, err)
	require.Len(t, cost, 2)
	assert.Equal(t, []string{"2025-01-01", "2", "300", "310", "10", "0", "0"}, cost[1])

	ship, err := f.GetRows(SheetShipments)
	require.NoError(t, err)
	assert.Equal(t, "Week", ship[0][0])
	assert.Equal(t, []string{"2025-01-06", "4"}, ship[1])

	weight, err := f.GetRows(SheetWeight)
	require.NoError(t, err)
	require.Len(t, weight, 1, "empty series still get a header")
	assert.Equal(t, "Carrier", weight[0][0])
}

func TestWrite_NonFiniteBecomesZero(t *testing.T) {
	wb := Workbook{
		Scorecard: []models.CarrierScoreMetrics{{
			CarrierID:   1,
			CarrierName: "Acme",
			TruckType:   models.TruckTypeLTL,
			Cost:        models.CostMetrics{QuoteCount: 1, AvgDeltaPct: math.NaN()},
		}},
		Cost: []models.CostDayPoint{{Day: "2025-01-01", Count: 2, SumQuote: math.Inf(1), SumAmount: math.Inf(-1)}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, wb))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetScorecard)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "0", rows[1][3])

	cost, err := f.GetRows(SheetCost)
	require.NoError(t, err)
	require.Len(t, cost, 2)
	assert.Equal(t, []string{"2025-01-01", "2", "0", "0"}, cost[1][:4])
}
