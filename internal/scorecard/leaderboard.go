package scorecard

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/freight-scorecard/backend/internal/models"
)

// SortField is a leaderboard column.
type SortField string

const (
	SortRankScore    SortField = "rankScore"
	SortCarrier      SortField = "carrier"
	SortType         SortField = "type"
	SortQuotes       SortField = "quotes"
	SortOverRate     SortField = "overRate"
	SortAvgDelta     SortField = "avgDelta"
	SortAvgDeltaPct  SortField = "avgDeltaPct"
	SortShipments    SortField = "shipments"
	SortAvgDeltaDays SortField = "avgDeltaDays"
)

// SortFields is the cycle order used by the overview panel.
var SortFields = []SortField{
	SortRankScore, SortQuotes, SortOverRate, SortAvgDelta, SortAvgDeltaPct,
	SortShipments, SortAvgDeltaDays, SortCarrier, SortType,
}

// SortDir is ascending or descending.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// PageSizes are the page sizes the leaderboard accepts.
var PageSizes = []int{5, 10}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// ParseSortField validates a sort field name. Empty means rankScore.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortRankScore, nil
	}
	for _, f := range SortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field: %q", s)
}

// DefaultDir is ascending for rank and text columns, descending for KPIs.
func (f SortField) DefaultDir() SortDir {
	switch f {
	case SortRankScore, SortCarrier, SortType:
		return SortAsc
	}
	return SortDesc
}

// Next returns the field after f in the cycle order.
func (f SortField) Next() SortField {
	for i, sf := range SortFields {
		if sf == f {
			return SortFields[(i+1)%len(SortFields)]
		}
	}
	return SortRankScore
}

// Query selects, orders and pages leaderboard rows.
type Query struct {
	Search   string
	Sort     SortField
	Dir      SortDir // empty uses Sort.DefaultDir()
	Page     int     // zero-based
	PageSize int
}

// RankedRow is a scorecard row with its 1-based position in the sorted list.
type RankedRow struct {
	Rank      int     `json:"rank"`
	RankScore float64 `json:"rankScore"`
	models.CarrierScoreMetrics
}

// Page is one page of the leaderboard.
type Page struct {
	Rows         []RankedRow `json:"rows"`
	Total        int         `json:"total"`
	Page         int         `json:"page"`
	PageSize     int         `json:"pageSize"`
	TotalPages   int         `json:"totalPages"`
	DisplayStart int         `json:"displayStart"`
	DisplayEnd   int         `json:"displayEnd"`
	Sort         SortField   `json:"sort"`
	Dir          SortDir     `json:"dir"`
}

// Leaderboard filters rows by a case-insensitive search on carrier name or
// truck type, sorts them, and returns the requested page.
func Leaderboard(rows []models.CarrierScoreMetrics, q Query) Page {
	field := q.Sort
	if field == "" {
		field = SortRankScore
	}
	dir := q.Dir
	if dir != SortAsc && dir != SortDesc {
		dir = field.DefaultDir()
	}
	size := PageSizes[0]
	if ValidPageSize(q.PageSize) {
		size = q.PageSize
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]models.CarrierScoreMetrics, 0, len(rows))
	for _, m := range rows {
		if needle == "" ||
			strings.Contains(strings.ToLower(m.CarrierName), needle) ||
			strings.Contains(strings.ToLower(string(m.TruckType)), needle) {
			filtered = append(filtered, m)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		c := compare(filtered[i], filtered[j], field)
		if dir == SortDesc {
			return c > 0
		}
		return c < 0
	})

	total := len(filtered)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * size
	end := start + size
	if end > total {
		end = total
	}
	out := make([]RankedRow, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, RankedRow{
			Rank:                i + 1,
			RankScore:           filtered[i].RankScore(),
			CarrierScoreMetrics: filtered[i],
		})
	}

	p := Page{
		Rows:       out,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		DisplayEnd: end,
		Sort:       field,
		Dir:        dir,
	}
	if total > 0 {
		p.DisplayStart = start + 1
	}
	return p
}

func compare(a, b models.CarrierScoreMetrics, f SortField) int {
	switch f {
	case SortCarrier:
		return strings.Compare(strings.ToLower(a.CarrierName), strings.ToLower(b.CarrierName))
	case SortType:
		return strings.Compare(string(a.TruckType), string(b.TruckType))
	}
	return compareFloat(sortValue(a, f), sortValue(b, f))
}

func sortValue(m models.CarrierScoreMetrics, f SortField) float64 {
	switch f {
	case SortQuotes:
		return float64(m.Cost.QuoteCount)
	case SortOverRate:
		return m.Cost.OverRate
	case SortAvgDelta:
		return m.Cost.AvgDelta
	case SortAvgDeltaPct:
		return m.Cost.AvgDeltaPct
	case SortShipments:
		return float64(m.Service.Shipments)
	case SortAvgDeltaDays:
		return m.Service.AvgDeltaDays
	}
	return m.RankScore()
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
