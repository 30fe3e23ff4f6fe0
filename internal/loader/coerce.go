package loader

import (
	"math"
	"strings"
	"time"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Epoch replaces any timestamp that cannot be parsed.
var Epoch = time.Unix(0, 0).UTC()

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// MaxMagnitude bounds coerced numbers so sums and means over a dataset stay
// finite. Larger values become 0 like any other unusable cell.
const MaxMagnitude = 1e15

var numberCleaner = strings.NewReplacer(",", "", " ", "", "$", "")

// ParseNumber strips thousands separators, spaces and currency signs. Anything
// unparseable, non-finite or beyond MaxMagnitude becomes 0.
func ParseNumber(s string) float64 {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > MaxMagnitude {
		return 0
	}
	return f
}

// ParseID reads a carrier code. Fractional codes are truncated.
func ParseID(s string) int {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}

// ParseDate accepts ISO and US layouts. Timestamps without a zone are UTC.
// Unparseable values become the Unix epoch.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return Epoch
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return Epoch
}

// ParseTruckType upper-cases the value; anything other than TL is LTL.
func ParseTruckType(s string) models.TruckType {
	if strings.ToUpper(strings.TrimSpace(s)) == string(models.TruckTypeTL) {
		return models.TruckTypeTL
	}
	return models.TruckTypeLTL
}
