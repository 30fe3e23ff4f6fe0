// Package scorecard folds raw quote and delivery rows into per-carrier metrics.
package scorecard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/freight-scorecard/backend/internal/models"
)

const msPerDay = float64(24 * time.Hour / time.Millisecond)

// Compute builds one CarrierScoreMetrics per carrier id seen in quotes or
// deliveries, sorted ascending by id. It is pure and never fails.
//
// Each collection is folded in a single pass. Means are maintained with the
// incremental update mean += (x - mean) / n so they match a streaming fold
// exactly.
func Compute(carriers []models.Carrier, quotes []models.QuoteActual, deliveries []models.Delivery) []models.CarrierScoreMetrics {
	byID := make(map[int]models.Carrier, len(carriers))
	for _, c := range carriers {
		byID[c.ID] = c
	}

	agg := make(map[int]*models.CarrierScoreMetrics)
	get := func(id int) *models.CarrierScoreMetrics {
		if m, ok := agg[id]; ok {
			return m
		}
		m := &models.CarrierScoreMetrics{
			CarrierID:   id,
			CarrierName: fmt.Sprintf("Carrier %d", id),
			TruckType:   models.TruckTypeLTL,
		}
		if c, ok := byID[id]; ok {
			m.CarrierName = c.Name
			m.TruckType = c.TruckType
		}
		agg[id] = m
		return m
	}

	for _, q := range quotes {
		foldQuote(&get(q.CarrierID).Cost, q)
	}
	for _, d := range deliveries {
		foldDelivery(&get(d.CarrierID).Service, d)
	}

	out := make([]models.CarrierScoreMetrics, 0, len(agg))
	for _, m := range agg {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CarrierID < out[j].CarrierID })
	return out
}

func foldQuote(c *models.CostMetrics, q models.QuoteActual) {
	delta := q.Amount - q.Quote
	pct := DeltaPct(delta, q.Quote)

	c.QuoteCount++
	n := float64(c.QuoteCount)
	c.AvgQuote += (q.Quote - c.AvgQuote) / n
	c.AvgAmount += (q.Amount - c.AvgAmount) / n
	c.AvgWeight += (q.Weight - c.AvgWeight) / n

	if delta > 0 {
		c.OverCount++
		c.ExtraChargesTotal += delta
		c.AvgOverCharge += (delta - c.AvgOverCharge) / float64(c.OverCount)
	} else if delta < 0 {
		c.UnderCount++
		c.UnderQuotedTotal += -delta
		c.AvgUnderCredit += (-delta - c.AvgUnderCredit) / float64(c.UnderCount)
	}

	c.AvgDelta += (delta - c.AvgDelta) / n
	c.AvgDeltaPct += (pct - c.AvgDeltaPct) / n

	c.OverRate = float64(c.OverCount) / n
	c.UnderRate = float64(c.UnderCount) / n
}

func foldDelivery(s *models.ServiceMetrics, d models.Delivery) {
	actualDays, expectedDays, ok := TransitDays(d)
	if !ok {
		return
	}
	deltaDays := actualDays - expectedDays

	s.Shipments++
	n := float64(s.Shipments)
	s.AvgActualDays += (actualDays - s.AvgActualDays) / n
	s.AvgExpectedDays += (expectedDays - s.AvgExpectedDays) / n

	if deltaDays > 0 {
		s.LateCount++
	} else if deltaDays < 0 {
		s.EarlyCount++
	}

	s.AvgDeltaDays += (deltaDays - s.AvgDeltaDays) / n

	s.LateRate = float64(s.LateCount) / n
	s.EarlyRate = float64(s.EarlyCount) / n
}

// DeltaPct is delta as a fraction of quote. Zero quotes contribute 0 to the
// percent mean rather than being excluded, and so does a quote small enough
// to make the ratio overflow.
func DeltaPct(delta, quote float64) float64 {
	if quote <= 0 {
		return 0
	}
	pct := delta / quote
	if !isFinite(pct) {
		return 0
	}
	return pct
}

// TransitDays returns actual and expected transit time in fractional days.
// ok is false when either duration is not finite; such rows must be skipped.
func TransitDays(d models.Delivery) (actualDays, expectedDays float64, ok bool) {
	actualDays = daysBetween(d.Pickup, d.Delivery)
	expectedDays = daysBetween(d.Pickup, d.ExpectedDelivery)
	ok = isFinite(actualDays) && isFinite(expectedDays)
	return actualDays, expectedDays, ok
}

// daysBetween yields NaN when either instant is missing.
func daysBetween(from, to time.Time) float64 {
	if from.IsZero() || to.IsZero() {
		return math.NaN()
	}
	return float64(to.UnixMilli()-from.UnixMilli()) / msPerDay
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
