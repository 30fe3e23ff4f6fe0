package session

import (
	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/view"
)

// FilterView is the wire form of the filter state. Dates are YYYY-MM-DD or empty.
type FilterView struct {
	From      string `json:"from,omitempty" msgpack:"from,omitempty"`
	To        string `json:"to,omitempty" msgpack:"to,omitempty"`
	CarrierID *int   `json:"carrierId,omitempty" msgpack:"carrierId,omitempty"`
	TruckType string `json:"truckType" msgpack:"truckType"`
}

// NewFilterView converts a filter state for output.
func NewFilterView(f models.FilterState) FilterView {
	v := FilterView{TruckType: string(f.TruckType)}
	if !f.Range.From.IsZero() {
		v.From = f.Range.From.Format(view.DayLayout)
	}
	if !f.Range.To.IsZero() {
		v.To = f.Range.To.Format(view.DayLayout)
	}
	if f.Carrier.Selected {
		id := f.Carrier.ID
		v.CarrierID = &id
	}
	return v
}

// Filters returns the current filter state.
func (m *Manager) Filters() models.FilterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Filters()
}

// update applies fn under the lock and publishes the new filters if fn
// reports a change.
func (m *Manager) update(fn func(s *view.Store) bool) (models.FilterState, bool) {
	m.mu.Lock()
	changed := fn(m.store)
	f := m.store.Filters()
	m.mu.Unlock()

	if changed {
		fv := NewFilterView(f)
		m.publish(Event{Type: EventFiltersChanged, Filters: &fv})
	}
	return f, changed
}

// SelectCarrier narrows the filtered views to one carrier.
func (m *Manager) SelectCarrier(id int) models.FilterState {
	f, _ := m.update(func(s *view.Store) bool { return s.SelectCarrier(id) })
	return f
}

// ClearCarrier returns to all carriers.
func (m *Manager) ClearCarrier() models.FilterState {
	f, _ := m.update(func(s *view.Store) bool { return s.ClearCarrier() })
	return f
}

// SetTruckType filters the filtered scorecard by equipment class.
func (m *Manager) SetTruckType(t models.TruckTypeFilter) models.FilterState {
	f, _ := m.update(func(s *view.Store) bool { return s.SetTruckType(t) })
	return f
}

// SetDateRange sets the inclusive day range.
func (m *Manager) SetDateRange(r models.DateRange) models.FilterState {
	f, _ := m.update(func(s *view.Store) bool { return s.SetDateRange(r) })
	return f
}

// ApplyPreset sets the date range from a named preset.
func (m *Manager) ApplyPreset(p models.RangePreset) (models.FilterState, error) {
	var err error
	f, _ := m.update(func(s *view.Store) bool {
		before := s.Filters().Range
		var r models.DateRange
		r, err = s.ApplyPreset(p)
		return err == nil && (!r.From.Equal(before.From) || !r.To.Equal(before.To))
	})
	return f, err
}

// ResetFilters restores the default filter state.
func (m *Manager) ResetFilters() models.FilterState {
	f, _ := m.update(func(s *view.Store) bool { return s.SetFilters(models.DefaultFilterState()) })
	return f
}
