package loader

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/freight-scorecard/backend/internal/config"
)

// FetcherFor picks an HTTP fetcher for http(s) URLs and a file fetcher otherwise.
func FetcherFor(location string, client *http.Client) Fetcher {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPFetcher{URL: location, Client: client}
	}
	return FileFetcher{Path: location}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig builds the configured loader. The returned closer releases any
// database handle and must be called when the loader is no longer needed.
func FromConfig(cfg config.DataConfig) (Loader, io.Closer, error) {
	switch cfg.Source {
	case config.SourceCSV, "":
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return &CSVLoader{
			Carriers:   FetcherFor(cfg.CarriersPath, client),
			Quotes:     FetcherFor(cfg.QuotesPath, client),
			Deliveries: FetcherFor(cfg.DeliveriesPath, client),
		}, nopCloser{}, nil
	case config.SourceSQL:
		db, err := OpenDatabase(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return &SQLLoader{DB: db}, dbCloser{db}, nil
	}
	return nil, nil, fmt.Errorf("unsupported data source: %q", cfg.Source)
}

type dbCloser struct{ db *sql.DB }

func (c dbCloser) Close() error { return c.db.Close() }
