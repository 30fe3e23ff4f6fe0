// Package models contains domain types for the carrier scorecard.
package models

import "time"

// TruckType is the equipment class a carrier runs.
type TruckType string

const (
	TruckTypeLTL TruckType = "LTL"
	TruckTypeTL  TruckType = "TL"
)

// Carrier is one row of the carrier master list.
type Carrier struct {
	ID        int       `json:"id" msgpack:"id"`
	Name      string    `json:"name" msgpack:"name"`
	TruckType TruckType `json:"truckType" msgpack:"truckType"`
}

// QuoteActual is one priced shipment: what was quoted and what was charged.
type QuoteActual struct {
	QuoteDate time.Time `json:"quoteDate" msgpack:"quoteDate"`
	CarrierID int       `json:"carrierId" msgpack:"carrierId"`
	Weight    float64   `json:"weight" msgpack:"weight"`
	Quote     float64   `json:"quote" msgpack:"quote"`
	Amount    float64   `json:"amount" msgpack:"amount"`
}

// Delivery is one shipment's fulfillment record. Transit durations are derived.
type Delivery struct {
	CarrierID        int       `json:"carrierId" msgpack:"carrierId"`
	Pickup           time.Time `json:"pickup" msgpack:"pickup"`
	Delivery         time.Time `json:"delivery" msgpack:"delivery"`
	ExpectedDelivery time.Time `json:"expectedDelivery" msgpack:"expectedDelivery"`
}

// Dataset holds the three raw collections produced by a load.
type Dataset struct {
	Carriers   []Carrier     `json:"carriers"`
	Quotes     []QuoteActual `json:"quotes"`
	Deliveries []Delivery    `json:"deliveries"`
}

// DatasetKind names one of the three raw collections.
type DatasetKind string

const (
	DatasetCarriers   DatasetKind = "carriers"
	DatasetQuotes     DatasetKind = "quotes"
	DatasetDeliveries DatasetKind = "deliveries"
)

// DatasetKinds lists every kind in load order.
var DatasetKinds = []DatasetKind{DatasetCarriers, DatasetQuotes, DatasetDeliveries}

// ParseDatasetKind validates a kind name.
func ParseDatasetKind(s string) (DatasetKind, bool) {
	for _, k := range DatasetKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
