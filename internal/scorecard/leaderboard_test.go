package scorecard

import (
	"fmt"
	"testing"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id int, name string, tt models.TruckType, pct, days float64, quotes int) models.CarrierScoreMetrics {
	return models.CarrierScoreMetrics{
		CarrierID:   id,
		CarrierName: name,
		TruckType:   tt,
		Cost:        models.CostMetrics{AvgDeltaPct: pct, QuoteCount: quotes},
		Service:     models.ServiceMetrics{AvgDeltaDays: days},
	}
}

func names(p Page) []string {
	out := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		out = append(out, r.CarrierName)
	}
	return out
}

func TestLeaderboard_DefaultRanksBestFirst(t *testing.T) {
	rows := []models.CarrierScoreMetrics{
		row(1, "Slow", models.TruckTypeLTL, 0.10, 2, 5),
		row(2, "Fast", models.TruckTypeTL, -0.05, -1, 3),
		row(3, "Mid", models.TruckTypeLTL, 0.00, 0.5, 9),
	}

	p := Leaderboard(rows, Query{})
	assert.Equal(t, []string{"Fast", "Mid", "Slow"}, names(p))
	assert.Equal(t, SortRankScore, p.Sort)
	assert.Equal(t, SortAsc, p.Dir)
	assert.Equal(t, 1, p.Rows[0].Rank)
	assert.InDelta(t, -1.05, p.Rows[0].RankScore, 1e-12)
}

func TestLeaderboard_SortFields(t *testing.T) {
	rows := []models.CarrierScoreMetrics{
		row(1, "Bravo", models.TruckTypeTL, 0, 0, 5),
		row(2, "alpha", models.TruckTypeLTL, 0, 0, 9),
		row(3, "Charlie", models.TruckTypeLTL, 0, 0, 1),
	}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"quotes default desc", Query{Sort: SortQuotes}, []string{"alpha", "Bravo", "Charlie"}},
		{"quotes asc", Query{Sort: SortQuotes, Dir: SortAsc}, []string{"Charlie", "Bravo", "alpha"}},
		{"carrier default asc ignores case", Query{Sort: SortCarrier}, []string{"alpha", "Bravo", "Charlie"}},
		{"type asc keeps input order on ties", Query{Sort: SortType}, []string{"alpha", "Charlie", "Bravo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Leaderboard(rows, tt.query)))
		})
	}
}

func TestLeaderboard_Search(t *testing.T) {
	rows := []models.CarrierScoreMetrics{
		row(1, "Acme Freight", models.TruckTypeTL, 0, 0, 1),
		row(2, "Blue Line", models.TruckTypeLTL, 0, 0, 1),
		row(3, "Acme Express", models.TruckTypeLTL, 0, 0, 1),
	}

	p := Leaderboard(rows, Query{Search: "  ACME "})
	assert.Equal(t, 2, p.Total)

	p = Leaderboard(rows, Query{Search: "ltl"})
	assert.ElementsMatch(t, []string{"Blue Line", "Acme Express"}, names(p))
}

func TestLeaderboard_Paging(t *testing.T) {
	var rows []models.CarrierScoreMetrics
	for i := 1; i <= 12; i++ {
		rows = append(rows, row(i, fmt.Sprintf("C%02d", i), models.TruckTypeLTL, float64(i), 0, 1))
	}

	p := Leaderboard(rows, Query{PageSize: 5, Page: 2})
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, []string{"C11", "C12"}, names(p))
	assert.Equal(t, 11, p.DisplayStart)
	assert.Equal(t, 12, p.DisplayEnd)
	assert.Equal(t, 11, p.Rows[0].Rank)

	p = Leaderboard(rows, Query{PageSize: 10, Page: 99})
	assert.Equal(t, 1, p.Page)
	assert.Len(t, p.Rows, 2)

	p = Leaderboard(rows, Query{PageSize: 7})
	assert.Equal(t, 5, p.PageSize)
}

func TestValidPageSize(t *testing.T) {
	assert.True(t, ValidPageSize(5))
	assert.True(t, ValidPageSize(10))
	assert.False(t, ValidPageSize(7))
	assert.False(t, ValidPageSize(0))
}

func TestLeaderboard_Empty(t *testing.T) {
	p := Leaderboard(nil, Query{})
	assert.Empty(t, p.Rows)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.DisplayStart)
	assert.Equal(t, 0, p.DisplayEnd)
}

func TestSortField_ParseAndCycle(t *testing.T) {
	f, err := ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortRankScore, f)

	_, err = ParseSortField("bogus")
	assert.Error(t, err)

	assert.Equal(t, SortQuotes, SortRankScore.Next())
	assert.Equal(t, SortRankScore, SortType.Next())
	assert.Equal(t, SortDesc, SortShipments.DefaultDir())
}
