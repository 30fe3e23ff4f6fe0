package models

import (
	"fmt"
	"strings"
	"time"
)

// TruckTypeFilter selects which equipment classes the filtered scorecard shows.
type TruckTypeFilter string

const (
	TruckFilterAll TruckTypeFilter = "ALL"
	TruckFilterLTL TruckTypeFilter = "LTL"
	TruckFilterTL  TruckTypeFilter = "TL"
)

// Matches reports whether a carrier of type t passes the filter.
func (f TruckTypeFilter) Matches(t TruckType) bool {
	switch f {
	case TruckFilterLTL:
		return t == TruckTypeLTL
	case TruckFilterTL:
		return t == TruckTypeTL
	default:
		return true
	}
}

// ParseTruckTypeFilter accepts ALL, LTL or TL in any case. Empty means ALL.
func ParseTruckTypeFilter(s string) (TruckTypeFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL":
		return TruckFilterAll, nil
	case "LTL":
		return TruckFilterLTL, nil
	case "TL":
		return TruckFilterTL, nil
	}
	return "", fmt.Errorf("unknown truck type filter: %q", s)
}

// CarrierSelection is either "all carriers" or one carrier id.
type CarrierSelection struct {
	ID       int
	Selected bool
}

// AllCarriers is the empty selection.
var AllCarriers = CarrierSelection{}

// SelectCarrier returns a selection of a single carrier.
func SelectCarrier(id int) CarrierSelection {
	return CarrierSelection{ID: id, Selected: true}
}

// Matches reports whether rows for carrierID pass the selection.
func (s CarrierSelection) Matches(carrierID int) bool {
	return !s.Selected || s.ID == carrierID
}

// DateRange is an inclusive range of UTC calendar days. A zero bound is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Unbounded is the range that contains every instant.
var Unbounded = DateRange{}

// NewDateRange normalizes both bounds to UTC midnight. Zero bounds stay zero.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: UTCDay(from), To: UTCDay(to)}
}

// Contains compares the UTC calendar day of t against both bounds.
func (r DateRange) Contains(t time.Time) bool {
	day := UTCDay(t)
	if !r.From.IsZero() && day.Before(UTCDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(UTCDay(r.To)) {
		return false
	}
	return true
}

// IsUnbounded reports whether neither side is set.
func (r DateRange) IsUnbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// UTCDay truncates t to midnight of its UTC calendar day. Zero stays zero.
func UTCDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// RangePreset names a quick date range.
type RangePreset string

const (
	PresetToday  RangePreset = "today"
	PresetLast7  RangePreset = "last7"
	PresetLast30 RangePreset = "last30"
	PresetAll    RangePreset = "all"
)

// Range resolves the preset relative to now. "Last N days" includes today.
func (p RangePreset) Range(now time.Time) (DateRange, error) {
	today := UTCDay(now)
	switch p {
	case PresetToday:
		return DateRange{From: today, To: today}, nil
	case PresetLast7:
		return DateRange{From: today.AddDate(0, 0, -6), To: today}, nil
	case PresetLast30:
		return DateRange{From: today.AddDate(0, 0, -29), To: today}, nil
	case PresetAll:
		return Unbounded, nil
	}
	return Unbounded, fmt.Errorf("unknown range preset: %q", p)
}

// FilterState is the user's current view selection.
type FilterState struct {
	Range     DateRange
	Carrier   CarrierSelection
	TruckType TruckTypeFilter
}

// DefaultFilterState shows everything.
func DefaultFilterState() FilterState {
	return FilterState{Range: Unbounded, Carrier: AllCarriers, TruckType: TruckFilterAll}
}
