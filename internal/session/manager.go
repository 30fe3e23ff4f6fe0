// Package session owns the dashboard state: the loaded dataset, the current
// filters and the status of the most recent load.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/loader"
	"github.com/freight-scorecard/backend/internal/logging"
	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/view"
)

// DefaultLoadTimeout bounds a single load when no timeout is configured.
const DefaultLoadTimeout = 2 * time.Minute

// Event types published to subscribers.
const (
	EventLoadStarted    = "load:started"
	EventLoadComplete   = "load:complete"
	EventLoadFailed     = "load:failed"
	EventFiltersChanged = "filters:changed"
)

// ErrSuperseded is returned by Load when a newer load started before this one
// finished. Its result was discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Event describes a state change.
type Event struct {
	Type    string             `json:"type" msgpack:"type"`
	Status  *models.LoadStatus `json:"status,omitempty" msgpack:"status,omitempty"`
	Filters *FilterView        `json:"filters,omitempty" msgpack:"filters,omitempty"`
}

// Recorder receives load and recomputation metrics.
type Recorder interface {
	LoadFinished(result string, elapsed time.Duration, rows map[models.DatasetKind]int)
	ViewRecomputed(name string)
}

type nopRecorder struct{}

func (nopRecorder) LoadFinished(string, time.Duration, map[models.DatasetKind]int) {}
func (nopRecorder) ViewRecomputed(string)                                         {}

// Manager serializes every access to the view store. Reads take the same lock
// as writes because reading a dirty value recomputes it.
type Manager struct {
	mu         sync.Mutex
	store      *view.Store
	status     models.LoadStatus
	generation uint64
	cancel     context.CancelFunc

	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
	recorder Recorder

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int

	wg sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds every load. Zero or negative means DefaultLoadTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithClock sets the clock used for statuses and range presets.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates an idle manager with empty data.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		status:   models.LoadStatus{State: models.LoadStateIdle},
		timeout:  DefaultLoadTimeout,
		now:      time.Now,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.store = view.NewStore(
		view.WithClock(m.now),
		view.WithRecomputeHook(m.recorder.ViewRecomputed),
	)
	return m
}

// Subscribe registers fn for every event. Callbacks run on the goroutine that
// caused the change, outside the manager lock. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) publish(e Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, fn := range m.subs {
		fn(e)
	}
}

// Status returns a copy of the current load status.
func (m *Manager) Status() models.LoadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyStatus(m.status)
}

// StartLoad begins a load in the background and returns its initial status.
// Any load still in flight is cancelled and its result will be discarded.
func (m *Manager) StartLoad(l loader.Loader) models.LoadStatus {
	ctx, gen, status := m.begin(context.Background())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx, gen, l)
	}()
	return status
}

// Load runs a load on the calling goroutine and returns its final status.
func (m *Manager) Load(ctx context.Context, l loader.Loader) (models.LoadStatus, error) {
	ctx, gen, _ := m.begin(ctx)
	return m.run(ctx, gen, l)
}

// Wait blocks until every background load has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels any load in flight and waits for it.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) begin(parent context.Context) (context.Context, uint64, models.LoadStatus) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	gen := m.generation
	ctx, cancel := context.WithTimeout(parent, m.timeout)
	m.cancel = cancel
	m.status = *models.NewLoadStatus(uuid.New().String(), m.now())
	status := copyStatus(m.status)
	m.mu.Unlock()

	m.logger.Info("load started", zap.String("load", logging.ShortID(status.ID)))
	m.publish(Event{Type: EventLoadStarted, Status: &status})
	return ctx, gen, status
}

func (m *Manager) run(ctx context.Context, gen uint64, l loader.Loader) (status models.LoadStatus, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load panicked: %v", r)
			status, err = m.finish(gen, nil, err, start)
		}
	}()

	ds, err := l.Load(ctx)
	if err == nil && ds == nil {
		err = errors.New("loader returned no dataset")
	}
	return m.finish(gen, ds, err, start)
}

func (m *Manager) finish(gen uint64, ds *models.Dataset, loadErr error, start time.Time) (models.LoadStatus, error) {
	elapsed := time.Since(start)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.Info("discarding stale load result", zap.Uint64("generation", gen), zap.Duration("elapsed", elapsed))
		m.recorder.LoadFinished("stale", elapsed, nil)
		return models.LoadStatus{}, ErrSuperseded
	}

	m.cancel()
	m.cancel = nil
	m.status.FinishedAt = m.now()
	m.status.DurationMs = elapsed.Milliseconds()
	if loadErr != nil {
		m.status.State = models.LoadStateError
		m.status.Error = loadErr.Error()
	} else {
		m.store.Replace(*ds)
		m.status.State = models.LoadStateReady
		m.status.Rows = loader.Counts(ds)
	}
	status := copyStatus(m.status)
	m.mu.Unlock()

	id := zap.String("load", logging.ShortID(status.ID))
	if loadErr != nil {
		m.logger.Error("load failed", id, zap.Error(loadErr), zap.Duration("elapsed", elapsed))
		m.recorder.LoadFinished("error", elapsed, nil)
		m.publish(Event{Type: EventLoadFailed, Status: &status})
		return status, loadErr
	}

	m.logger.Info("load complete", id,
		zap.Int("carriers", status.Rows[models.DatasetCarriers]),
		zap.Int("quotes", status.Rows[models.DatasetQuotes]),
		zap.Int("deliveries", status.Rows[models.DatasetDeliveries]),
		zap.Duration("elapsed", elapsed))
	m.recorder.LoadFinished("ok", elapsed, status.Rows)
	m.publish(Event{Type: EventLoadComplete, Status: &status})
	return status, nil
}

// Read runs fn with exclusive access to the view store. fn must not retain
// the store or mutate returned slices.
func (m *Manager) Read(fn func(s *view.Store)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.store)
}

func copyStatus(s models.LoadStatus) models.LoadStatus {
	if s.Rows != nil {
		rows := make(map[models.DatasetKind]int, len(s.Rows))
		for k, v := range s.Rows {
			rows[k] = v
		}
		s.Rows = rows
	}
	return s
}
