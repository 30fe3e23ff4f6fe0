package view

import (
	"time"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/scorecard"
)

// Names of the derived values, as reported to the recompute hook.
const (
	CellCarrierIndex       = "carrierIndex"
	CellScorecard          = "scorecard"
	CellLTL                = "ltl"
	CellTL                 = "tl"
	CellDateQuotes         = "dateQuotes"
	CellDateDeliveries     = "dateDeliveries"
	CellFilteredQuotes     = "filteredQuotes"
	CellFilteredDeliveries = "filteredDeliveries"
	CellDateScorecard      = "dateScorecard"
	CellFilteredScorecard  = "filteredScorecard"
	CellCostDaily          = "costDeltaDailySeries"
	CellServiceDaily       = "serviceDeltaDailySeries"
	CellShipments          = "shipmentsSeries"
	CellWeight             = "weightSeries"
)

// Store holds the raw collections and filter fields and derives every view
// of them. Returned slices are shared with the cache and must not be modified.
type Store struct {
	now         func() time.Time
	onRecompute func(name string)

	carriers   *Source[[]models.Carrier]
	quotes     *Source[[]models.QuoteActual]
	deliveries *Source[[]models.Delivery]
	dateRange  *Source[models.DateRange]
	carrier    *Source[models.CarrierSelection]
	truckType  *Source[models.TruckTypeFilter]

	carrierIndex       *Computed[map[int]models.Carrier]
	scorecard          *Computed[[]models.CarrierScoreMetrics]
	ltl                *Computed[[]models.CarrierScoreMetrics]
	tl                 *Computed[[]models.CarrierScoreMetrics]
	dateQuotes         *Computed[[]models.QuoteActual]
	dateDeliveries     *Computed[[]models.Delivery]
	filteredQuotes     *Computed[[]models.QuoteActual]
	filteredDeliveries *Computed[[]models.Delivery]
	dateScorecard      *Computed[[]models.CarrierScoreMetrics]
	filteredScorecard  *Computed[[]models.CarrierScoreMetrics]
	costDaily          *Computed[[]models.CostDayPoint]
	serviceDaily       *Computed[[]models.ServiceDayPoint]
	shipments          *Computed[models.BarSeries]
	weight             *Computed[models.BarSeries]

	dirty map[string]func() bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used by range presets.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRecomputeHook is called with the value name after every recomputation.
func WithRecomputeHook(fn func(name string)) Option {
	return func(s *Store) { s.onRecompute = fn }
}

// NewStore creates an empty store with the default filter state.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	hook := s.recomputed

	f := models.DefaultFilterState()
	s.carriers = NewSource[[]models.Carrier](nil, nil)
	s.quotes = NewSource[[]models.QuoteActual](nil, nil)
	s.deliveries = NewSource[[]models.Delivery](nil, nil)
	s.dateRange = NewSource(f.Range, func(a, b models.DateRange) bool {
		return a.From.Equal(b.From) && a.To.Equal(b.To)
	})
	s.carrier = NewSource(f.Carrier, func(a, b models.CarrierSelection) bool { return a == b })
	s.truckType = NewSource(f.TruckType, func(a, b models.TruckTypeFilter) bool { return a == b })

	s.carrierIndex = newComputed(CellCarrierIndex, hook, func() map[int]models.Carrier {
		carriers := s.carriers.Get()
		idx := make(map[int]models.Carrier, len(carriers))
		for _, c := range carriers {
			idx[c.ID] = c
		}
		return idx
	}, s.carriers)

	s.scorecard = newComputed(CellScorecard, hook, func() []models.CarrierScoreMetrics {
		return scorecard.Compute(s.carriers.Get(), s.quotes.Get(), s.deliveries.Get())
	}, s.carriers, s.quotes, s.deliveries)

	s.ltl = newComputed(CellLTL, hook, func() []models.CarrierScoreMetrics {
		return FilterByTruckType(s.scorecard.Get(), models.TruckFilterLTL)
	}, s.scorecard)
	s.tl = newComputed(CellTL, hook, func() []models.CarrierScoreMetrics {
		return FilterByTruckType(s.scorecard.Get(), models.TruckFilterTL)
	}, s.scorecard)

	s.dateQuotes = newComputed(CellDateQuotes, hook, func() []models.QuoteActual {
		return FilterQuotes(s.quotes.Get(), s.dateRange.Get(), models.AllCarriers)
	}, s.quotes, s.dateRange)
	s.dateDeliveries = newComputed(CellDateDeliveries, hook, func() []models.Delivery {
		return FilterDeliveries(s.deliveries.Get(), s.dateRange.Get(), models.AllCarriers)
	}, s.deliveries, s.dateRange)

	s.filteredQuotes = newComputed(CellFilteredQuotes, hook, func() []models.QuoteActual {
		return FilterQuotes(s.dateQuotes.Get(), models.Unbounded, s.carrier.Get())
	}, s.dateQuotes, s.carrier)
	s.filteredDeliveries = newComputed(CellFilteredDeliveries, hook, func() []models.Delivery {
		return FilterDeliveries(s.dateDeliveries.Get(), models.Unbounded, s.carrier.Get())
	}, s.dateDeliveries, s.carrier)

	// The aggregate view narrows by date only; selecting a carrier must not
	// hide the others.
	s.dateScorecard = newComputed(CellDateScorecard, hook, func() []models.CarrierScoreMetrics {
		return scorecard.Compute(s.carriers.Get(), s.dateQuotes.Get(), s.dateDeliveries.Get())
	}, s.carriers, s.dateQuotes, s.dateDeliveries)
	s.filteredScorecard = newComputed(CellFilteredScorecard, hook, func() []models.CarrierScoreMetrics {
		return FilterByTruckType(s.dateScorecard.Get(), s.truckType.Get())
	}, s.dateScorecard, s.truckType)

	s.costDaily = newComputed(CellCostDaily, hook, func() []models.CostDayPoint {
		return CostDaily(s.filteredQuotes.Get())
	}, s.filteredQuotes)
	s.serviceDaily = newComputed(CellServiceDaily, hook, func() []models.ServiceDayPoint {
		return ServiceDaily(s.filteredDeliveries.Get())
	}, s.filteredDeliveries)

	s.shipments = newComputed(CellShipments, hook, func() models.BarSeries {
		return ShipmentsSeries(s.filteredDeliveries.Get(), s.carrier.Get(), s.carrierIndex.Get())
	}, s.filteredDeliveries, s.carrier, s.carrierIndex)
	s.weight = newComputed(CellWeight, hook, func() models.BarSeries {
		return WeightSeries(s.filteredQuotes.Get(), s.carrier.Get(), s.carrierIndex.Get())
	}, s.filteredQuotes, s.carrier, s.carrierIndex)

	s.dirty = map[string]func() bool{
		CellCarrierIndex:       s.carrierIndex.Dirty,
		CellScorecard:          s.scorecard.Dirty,
		CellLTL:                s.ltl.Dirty,
		CellTL:                 s.tl.Dirty,
		CellDateQuotes:         s.dateQuotes.Dirty,
		CellDateDeliveries:     s.dateDeliveries.Dirty,
		CellFilteredQuotes:     s.filteredQuotes.Dirty,
		CellFilteredDeliveries: s.filteredDeliveries.Dirty,
		CellDateScorecard:      s.dateScorecard.Dirty,
		CellFilteredScorecard:  s.filteredScorecard.Dirty,
		CellCostDaily:          s.costDaily.Dirty,
		CellServiceDaily:       s.serviceDaily.Dirty,
		CellShipments:          s.shipments.Dirty,
		CellWeight:             s.weight.Dirty,
	}
	return s
}

func (s *Store) recomputed(name string) {
	if s.onRecompute != nil {
		s.onRecompute(name)
	}
}

// IsDirty reports whether the named derived value will recompute on next read.
// Unknown names report false.
func (s *Store) IsDirty(name string) bool {
	if fn, ok := s.dirty[name]; ok {
		return fn()
	}
	return false
}

// Replace swaps in a freshly loaded dataset. Collections are replaced
// wholesale; nothing is carried over.
func (s *Store) Replace(ds models.Dataset) {
	s.carriers.Set(ds.Carriers)
	s.quotes.Set(ds.Quotes)
	s.deliveries.Set(ds.Deliveries)
}

// SelectCarrier narrows filtered collections and bar series to one carrier.
func (s *Store) SelectCarrier(id int) bool {
	return s.carrier.Set(models.SelectCarrier(id))
}

// ClearCarrier returns to all carriers.
func (s *Store) ClearCarrier() bool {
	return s.carrier.Set(models.AllCarriers)
}

// SetTruckType filters the filtered scorecard by equipment class.
func (s *Store) SetTruckType(f models.TruckTypeFilter) bool {
	return s.truckType.Set(f)
}

// SetDateRange sets the inclusive day range; bounds are normalized to UTC days.
func (s *Store) SetDateRange(r models.DateRange) bool {
	return s.dateRange.Set(models.NewDateRange(r.From, r.To))
}

// ApplyPreset sets the date range from a named preset relative to the clock.
func (s *Store) ApplyPreset(p models.RangePreset) (models.DateRange, error) {
	r, err := p.Range(s.now())
	if err != nil {
		return s.dateRange.Get(), err
	}
	s.dateRange.Set(r)
	return r, nil
}

// SetFilters applies a whole filter state as one action. It reports whether
// anything changed.
func (s *Store) SetFilters(f models.FilterState) bool {
	changed := s.SetDateRange(f.Range)
	changed = s.carrier.Set(f.Carrier) || changed
	changed = s.truckType.Set(f.TruckType) || changed
	return changed
}

// Filters returns the current filter values.
func (s *Store) Filters() models.FilterState {
	return models.FilterState{
		Range:     s.dateRange.Get(),
		Carrier:   s.carrier.Get(),
		TruckType: s.truckType.Get(),
	}
}

// Carriers returns the raw carrier list.
func (s *Store) Carriers() []models.Carrier { return s.carriers.Get() }

// Quotes returns the raw quote rows.
func (s *Store) Quotes() []models.QuoteActual { return s.quotes.Get() }

// Deliveries returns the raw delivery rows.
func (s *Store) Deliveries() []models.Delivery { return s.deliveries.Get() }

// CarrierName resolves a display name for id.
func (s *Store) CarrierName(id int) string {
	return CarrierName(s.carrierIndex.Get(), id)
}

// FilteredQuotes are quotes in the date range for the selected carrier.
func (s *Store) FilteredQuotes() []models.QuoteActual { return s.filteredQuotes.Get() }

// FilteredDeliveries are deliveries in the date range for the selected carrier.
func (s *Store) FilteredDeliveries() []models.Delivery { return s.filteredDeliveries.Get() }

// Scorecard is computed over all raw rows.
func (s *Store) Scorecard() []models.CarrierScoreMetrics { return s.scorecard.Get() }

// LTL is the full scorecard restricted to LTL carriers.
func (s *Store) LTL() []models.CarrierScoreMetrics { return s.ltl.Get() }

// TL is the full scorecard restricted to TL carriers.
func (s *Store) TL() []models.CarrierScoreMetrics { return s.tl.Get() }

// FilteredScorecard is computed over date-filtered rows, then filtered by
// truck type. The carrier selection does not apply.
func (s *Store) FilteredScorecard() []models.CarrierScoreMetrics {
	return s.filteredScorecard.Get()
}

// CostDeltaDailySeries groups filtered quotes by UTC quote day.
func (s *Store) CostDeltaDailySeries() []models.CostDayPoint { return s.costDaily.Get() }

// ServiceDeltaDailySeries groups filtered deliveries by UTC delivery day.
func (s *Store) ServiceDeltaDailySeries() []models.ServiceDayPoint { return s.serviceDaily.Get() }

// ShipmentsSeries is per carrier, or per week for a selected carrier.
func (s *Store) ShipmentsSeries() models.BarSeries { return s.shipments.Get() }

// WeightSeries is per carrier, or per week for a selected carrier.
func (s *Store) WeightSeries() models.BarSeries { return s.weight.Get() }
