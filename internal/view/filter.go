package view

import "github.com/freight-scorecard/backend/internal/models"

// FilterQuotes keeps quotes whose quote date is in r and whose carrier matches sel.
func FilterQuotes(quotes []models.QuoteActual, r models.DateRange, sel models.CarrierSelection) []models.QuoteActual {
	out := make([]models.QuoteActual, 0, len(quotes))
	for _, q := range quotes {
		if r.Contains(q.QuoteDate) && sel.Matches(q.CarrierID) {
			out = append(out, q)
		}
	}
	return out
}

// FilterDeliveries keeps deliveries whose actual delivery instant is in r and
// whose carrier matches sel.
func FilterDeliveries(deliveries []models.Delivery, r models.DateRange, sel models.CarrierSelection) []models.Delivery {
	out := make([]models.Delivery, 0, len(deliveries))
	for _, d := range deliveries {
		if r.Contains(d.Delivery) && sel.Matches(d.CarrierID) {
			out = append(out, d)
		}
	}
	return out
}

// FilterByTruckType keeps scorecard rows of the selected equipment class.
func FilterByTruckType(rows []models.CarrierScoreMetrics, f models.TruckTypeFilter) []models.CarrierScoreMetrics {
	out := make([]models.CarrierScoreMetrics, 0, len(rows))
	for _, m := range rows {
		if f.Matches(m.TruckType) {
			out = append(out, m)
		}
	}
	return out
}
