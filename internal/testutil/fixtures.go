package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/freight-scorecard/backend/internal/models"
)

// Raw CSV documents shaped like the production exports.
const (
	CarriersCSV = "TrnspCode,CarrierName,TruckType\n" +
		"1,Acme Freight,LTL\n" +
		"2,Bolt Lines,TL\n" +
		"3,Cargo Co,LTL\n"
	QuotesCSV = "Quote Date,Carrier,Weight,Quote,Amount\n" +
		"2025-01-01,1,1000,100,120\n" +
		"2025-01-01,2,2000,200,190\n" +
		"2025-01-08,1,500,50,50\n" +
		"2025-01-09,3,750,80,100\n"
	DeliveriesCSV = "carrier,pickup,delivery,expected_delivery\n" +
		"1,2025-01-01,2025-01-03,2025-01-02\n" +
		"2,2025-01-02,2025-01-03,2025-01-04\n" +
		"1,2025-01-07,2025-01-08,2025-01-08\n" +
		"3,2025-01-08,2025-01-10,2025-01-09\n"
)

// WriteCSVFixtures writes the three documents into dir and returns their paths.
func WriteCSVFixtures(t *testing.T, dir string) (carriers, quotes, deliveries string) {
	t.Helper()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
		return path
	}
	return write("Carriers.csv", CarriersCSV),
		write("QUOTESvsACTUAL.csv", QuotesCSV),
		write("deliveries.csv", DeliveriesCSV)
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

// SampleDataset is the parsed form of the CSV fixtures.
func SampleDataset() *models.Dataset {
	return &models.Dataset{
		Carriers: []models.Carrier{
			{ID: 1, Name: "Acme Freight", TruckType: models.TruckTypeLTL},
			{ID: 2, Name: "Bolt Lines", TruckType: models.TruckTypeTL},
			{ID: 3, Name: "Cargo Co", TruckType: models.TruckTypeLTL},
		},
		Quotes: []models.QuoteActual{
			{QuoteDate: day(1), CarrierID: 1, Weight: 1000, Quote: 100, Amount: 120},
			{QuoteDate: day(1), CarrierID: 2, Weight: 2000, Quote: 200, Amount: 190},
			{QuoteDate: day(8), CarrierID: 1, Weight: 500, Quote: 50, Amount: 50},
			{QuoteDate: day(9), CarrierID: 3, Weight: 750, Quote: 80, Amount: 100},
		},
		Deliveries: []models.Delivery{
			{CarrierID: 1, Pickup: day(1), Delivery: day(3), ExpectedDelivery: day(2)},
			{CarrierID: 2, Pickup: day(2), Delivery: day(3), ExpectedDelivery: day(4)},
			{CarrierID: 1, Pickup: day(7), Delivery: day(8), ExpectedDelivery: day(8)},
			{CarrierID: 3, Pickup: day(8), Delivery: day(10), ExpectedDelivery: day(9)},
		},
	}
}
