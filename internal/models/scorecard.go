package models

// CarrierScoreMetrics is the per-carrier output of the scorecard aggregation.
type CarrierScoreMetrics struct {
	CarrierID   int            `json:"carrierId" msgpack:"carrierId"`
	CarrierName string         `json:"carrierName" msgpack:"carrierName"`
	TruckType   TruckType      `json:"truckType" msgpack:"truckType"`
	Cost        CostMetrics    `json:"cost" msgpack:"cost"`
	Service     ServiceMetrics `json:"service" msgpack:"service"`
}

// CostMetrics aggregates quoted versus charged amounts.
type CostMetrics struct {
	QuoteCount int `json:"quoteCount" msgpack:"quoteCount"`
	OverCount  int `json:"overCount" msgpack:"overCount"`   // amount > quote
	UnderCount int `json:"underCount" msgpack:"underCount"` // amount < quote

	ExtraChargesTotal float64 `json:"extraChargesTotal" msgpack:"extraChargesTotal"` // sum(amount - quote) over overs
	UnderQuotedTotal  float64 `json:"underQuotedTotal" msgpack:"underQuotedTotal"`   // sum(quote - amount) over unders

	AvgDelta    float64 `json:"avgDelta" msgpack:"avgDelta"`       // mean(amount - quote)
	AvgDeltaPct float64 `json:"avgDeltaPct" msgpack:"avgDeltaPct"` // mean((amount - quote) / quote), zero quotes count as 0
	AvgQuote    float64 `json:"avgQuote" msgpack:"avgQuote"`
	AvgAmount   float64 `json:"avgAmount" msgpack:"avgAmount"`
	AvgWeight   float64 `json:"avgWeight" msgpack:"avgWeight"`

	AvgOverCharge  float64 `json:"avgOverCharge" msgpack:"avgOverCharge"`   // mean(amount - quote) among overs
	AvgUnderCredit float64 `json:"avgUnderCredit" msgpack:"avgUnderCredit"` // mean(quote - amount) among unders

	OverRate  float64 `json:"overRate" msgpack:"overRate"`
	UnderRate float64 `json:"underRate" msgpack:"underRate"`
}

// ServiceMetrics aggregates actual versus expected transit time, in days.
type ServiceMetrics struct {
	Shipments       int     `json:"shipments" msgpack:"shipments"`
	AvgDeltaDays    float64 `json:"avgDeltaDays" msgpack:"avgDeltaDays"` // mean(actual - expected)
	LateCount       int     `json:"lateCount" msgpack:"lateCount"`
	EarlyCount      int     `json:"earlyCount" msgpack:"earlyCount"`
	AvgActualDays   float64 `json:"avgActualDays" msgpack:"avgActualDays"`
	AvgExpectedDays float64 `json:"avgExpectedDays" msgpack:"avgExpectedDays"`
	LateRate        float64 `json:"lateRate" msgpack:"lateRate"`
	EarlyRate       float64 `json:"earlyRate" msgpack:"earlyRate"`
}

// RankScore is the leaderboard ordering key. Lower is better.
func (m CarrierScoreMetrics) RankScore() float64 {
	return m.Cost.AvgDeltaPct + m.Service.AvgDeltaDays
}
