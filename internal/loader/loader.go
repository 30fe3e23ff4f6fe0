// Package loader fetches the three raw datasets and coerces them into domain
// rows. Sources are CSV documents (from disk or HTTP) or SQL tables.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/freight-scorecard/backend/internal/models"
)

// Loader produces a complete dataset. A failure of any part fails the whole load.
type Loader interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// Fetcher opens one raw CSV document.
type Fetcher interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileFetcher reads a local file.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	return file, nil
}

func (f FileFetcher) String() string { return f.Path }

// HTTPFetcher downloads a document. Any non-2xx status is an error.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", f.URL, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", f.URL, resp.Status)
	}
	return resp.Body, nil
}

func (f HTTPFetcher) String() string { return f.URL }

// Counts reports rows per dataset kind.
func Counts(ds *models.Dataset) map[models.DatasetKind]int {
	if ds == nil {
		return map[models.DatasetKind]int{}
	}
	return map[models.DatasetKind]int{
		models.DatasetCarriers:   len(ds.Carriers),
		models.DatasetQuotes:     len(ds.Quotes),
		models.DatasetDeliveries: len(ds.Deliveries),
	}
}
