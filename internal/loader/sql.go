package loader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

const (
	carriersQuery   = `SELECT id, name, truck_type FROM carriers`
	quotesQuery     = `SELECT quote_date, carrier_id, weight, quote, amount FROM quotes`
	deliveriesQuery = `SELECT carrier_id, pickup, delivery, expected_delivery FROM deliveries`
)

// OpenDatabase opens a DuckDB file or a SQLite database.
func OpenDatabase(driverName, dsn string) (*sql.DB, error) {
	switch strings.ToLower(driverName) {
	case DriverDuckDB:
		connector, err := duckdb.NewConnector(dsn, func(execer driver.ExecerContext) error {
			for _, pragma := range []string{
				"PRAGMA threads=4",
				"PRAGMA enable_progress_bar=false",
			} {
				if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
		}
		return sql.OpenDB(connector), nil
	case DriverSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported database driver: %q", driverName)
}

// SQLLoader reads tables carriers, quotes and deliveries. Values go through
// the same coercion as CSV cells.
type SQLLoader struct {
	DB *sql.DB
}

// Load runs the three queries in parallel.
func (l *SQLLoader) Load(ctx context.Context) (*models.Dataset, error) {
	ds := &models.Dataset{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := queryRows(ctx, l.DB, carriersQuery, 3, func(v []string) models.Carrier {
			return models.Carrier{ID: ParseID(v[0]), Name: strings.TrimSpace(v[1]), TruckType: ParseTruckType(v[2])}
		})
		ds.Carriers = rows
		return err
	})
	g.Go(func() error {
		rows, err := queryRows(ctx, l.DB, quotesQuery, 5, func(v []string) models.QuoteActual {
			return models.QuoteActual{
				QuoteDate: ParseDate(v[0]),
				CarrierID: ParseID(v[1]),
				Weight:    ParseNumber(v[2]),
				Quote:     ParseNumber(v[3]),
				Amount:    ParseNumber(v[4]),
			}
		})
		ds.Quotes = rows
		return err
	})
	g.Go(func() error {
		rows, err := queryRows(ctx, l.DB, deliveriesQuery, 4, func(v []string) models.Delivery {
			return models.Delivery{
				CarrierID:        ParseID(v[0]),
				Pickup:           ParseDate(v[1]),
				Delivery:         ParseDate(v[2]),
				ExpectedDelivery: ParseDate(v[3]),
			}
		})
		ds.Deliveries = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func queryRows[T any](ctx context.Context, db *sql.DB, query string, width int, build func([]string) T) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	defer rows.Close()

	out := []T{}
	cells := make([]sql.NullString, width)
	dest := make([]any, width)
	for i := range cells {
		dest[i] = &cells[i]
	}
	values := make([]string, width)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %q: %w", query, err)
		}
		for i, c := range cells {
			values[i] = c.String
		}
		out = append(out, build(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %q: %w", query, err)
	}
	return out, nil
}
