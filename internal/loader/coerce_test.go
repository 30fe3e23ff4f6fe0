package loader

import (
	"testing"
	"time"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1234.5", 1234.5},
		{"1,234.50", 1234.5},
		{" $ 2 000 ", 2000},
		{"-12.25", -12.25},
		{"", 0},
		{"n/a", 0},
		{"NaN", 0},
		{"1e308", 0},
		{"-2e15", 0},
		{"1e15", 1e15},
		{"1e-320", 1e-320},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseNumber(tt.in), 1e-9)
		})
	}
}

func TestParseID(t *testing.T) {
	assert.Equal(t, 1001, ParseID("1,001"))
	assert.Equal(t, 7, ParseID("7.9"))
	assert.Equal(t, 0, ParseID("abc"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-08T10:30:00Z", time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC)},
		{"2025-01-08T10:30:00+02:00", time.Date(2025, 1, 8, 8, 30, 0, 0, time.UTC)},
		{"2025-01-08 10:30:00", time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC)},
		{"2025-01-08", time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"1/8/2025", time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"12/31/2024 23:15", time.Date(2024, 12, 31, 23, 15, 0, 0, time.UTC)},
		{"not a date", Epoch},
		{"", Epoch},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ParseDate(tt.in)), "got %s", ParseDate(tt.in))
		})
	}
}

func TestParseTruckType(t *testing.T) {
	assert.Equal(t, models.TruckTypeTL, ParseTruckType(" tl "))
	assert.Equal(t, models.TruckTypeLTL, ParseTruckType("LTL"))
	assert.Equal(t, models.TruckTypeLTL, ParseTruckType("reefer"))
	assert.Equal(t, models.TruckTypeLTL, ParseTruckType(""))
}
