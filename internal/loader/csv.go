package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/freight-scorecard/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

// Column headers of the raw CSV exports.
const (
	ColCarrierCode = "TrnspCode"
	ColCarrierName = "CarrierName"
	ColTruckType   = "TruckType"

	ColQuoteDate = "Quote Date"
	ColCarrier   = "Carrier"
	ColWeight    = "Weight"
	ColQuote     = "Quote"
	ColAmount    = "Amount"

	ColDeliveryCarrier  = "carrier"
	ColPickup           = "pickup"
	ColDelivery         = "delivery"
	ColExpectedDelivery = "expected_delivery"
)

// CSVLoader fetches the three documents in parallel.
type CSVLoader struct {
	Carriers   Fetcher
	Quotes     Fetcher
	Deliveries Fetcher
}

// NewFileLoader reads the three documents from local paths.
func NewFileLoader(carriers, quotes, deliveries string) *CSVLoader {
	return &CSVLoader{
		Carriers:   FileFetcher{Path: carriers},
		Quotes:     FileFetcher{Path: quotes},
		Deliveries: FileFetcher{Path: deliveries},
	}
}

// WithFetcher returns a copy with the source for kind replaced.
func (l *CSVLoader) WithFetcher(kind models.DatasetKind, f Fetcher) *CSVLoader {
	out := *l
	switch kind {
	case models.DatasetCarriers:
		out.Carriers = f
	case models.DatasetQuotes:
		out.Quotes = f
	case models.DatasetDeliveries:
		out.Deliveries = f
	}
	return &out
}

// Load fetches and parses all three documents. The first failure cancels the
// others and is returned.
func (l *CSVLoader) Load(ctx context.Context) (*models.Dataset, error) {
	if l.Carriers == nil || l.Quotes == nil || l.Deliveries == nil {
		return nil, errors.New("csv loader: all three sources are required")
	}

	ds := &models.Dataset{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := fetchAndParse(ctx, l.Carriers, ParseCarriers)
		ds.Carriers = rows
		return err
	})
	g.Go(func() error {
		rows, err := fetchAndParse(ctx, l.Quotes, ParseQuotes)
		ds.Quotes = rows
		return err
	})
	g.Go(func() error {
		rows, err := fetchAndParse(ctx, l.Deliveries, ParseDeliveries)
		ds.Deliveries = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func fetchAndParse[T any](ctx context.Context, f Fetcher, parse func(io.Reader) ([]T, error)) ([]T, error) {
	rc, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	rows, err := parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f, err)
	}
	return rows, nil
}

// ParseCarriers reads a carriers document.
func ParseCarriers(r io.Reader) ([]models.Carrier, error) {
	out := []models.Carrier{}
	err := readRecords(r, func(rec record) {
		out = append(out, models.Carrier{
			ID:        ParseID(rec.get(ColCarrierCode)),
			Name:      strings.TrimSpace(rec.get(ColCarrierName)),
			TruckType: ParseTruckType(rec.get(ColTruckType)),
		})
	})
	return out, err
}

// ParseQuotes reads a quotes-vs-actuals document.
func ParseQuotes(r io.Reader) ([]models.QuoteActual, error) {
	out := []models.QuoteActual{}
	err := readRecords(r, func(rec record) {
		out = append(out, models.QuoteActual{
			QuoteDate: ParseDate(rec.get(ColQuoteDate)),
			CarrierID: ParseID(rec.get(ColCarrier)),
			Weight:    ParseNumber(rec.get(ColWeight)),
			Quote:     ParseNumber(rec.get(ColQuote)),
			Amount:    ParseNumber(rec.get(ColAmount)),
		})
	})
	return out, err
}

// ParseDeliveries reads a deliveries document.
func ParseDeliveries(r io.Reader) ([]models.Delivery, error) {
	out := []models.Delivery{}
	err := readRecords(r, func(rec record) {
		out = append(out, models.Delivery{
			CarrierID:        ParseID(rec.get(ColDeliveryCarrier)),
			Pickup:           ParseDate(rec.get(ColPickup)),
			Delivery:         ParseDate(rec.get(ColDelivery)),
			ExpectedDelivery: ParseDate(rec.get(ColExpectedDelivery)),
		})
	})
	return out, err
}

// CountRows parses a document of the given kind and reports its row count.
// Used to validate uploads before they replace a source.
func CountRows(kind models.DatasetKind, r io.Reader) (int, error) {
	switch kind {
	case models.DatasetCarriers:
		rows, err := ParseCarriers(r)
		return len(rows), err
	case models.DatasetQuotes:
		rows, err := ParseQuotes(r)
		return len(rows), err
	case models.DatasetDeliveries:
		rows, err := ParseDeliveries(r)
		return len(rows), err
	}
	return 0, fmt.Errorf("unknown dataset kind: %q", kind)
}

type record struct {
	index  map[string]int
	fields []string
}

// Missing columns read as empty and coerce to zero values.
func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func readRecords(r io.Reader, fn func(record)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[h] = i
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if blank(fields) {
			continue
		}
		fn(record{index: index, fields: fields})
	}
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
