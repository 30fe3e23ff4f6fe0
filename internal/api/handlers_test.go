package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"

	"github.com/freight-scorecard/backend/internal/config"
	"github.com/freight-scorecard/backend/internal/export"
	"github.com/freight-scorecard/backend/internal/loader"
	"github.com/freight-scorecard/backend/internal/metrics"
	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/scorecard"
	"github.com/freight-scorecard/backend/internal/session"
	"github.com/freight-scorecard/backend/internal/storage"
	"github.com/freight-scorecard/backend/internal/testutil"
)

type testServer struct {
	e       *echo.Echo
	h       *Handler
	session *session.Manager
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	carriers, quotes, deliveries := testutil.WriteCSVFixtures(t, dir)

	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	m := metrics.New()
	mgr := session.NewManager(session.WithRecorder(m))
	t.Cleanup(mgr.Close)

	h := NewHandler(Dependencies{
		Session: mgr,
		Store:   store,
		Loader:  loader.NewFileLoader(carriers, quotes, deliveries),
		Version: "test",
	})
	e := NewEcho(config.ServerConfig{}, nil, true)
	RegisterRoutes(e, Routes{Handler: h, Metrics: m.Handler(), MetricsPath: "/metrics"})
	return &testServer{e: e, h: h, session: mgr, metrics: m}
}

// loaded returns a server whose fixtures are already loaded.
func loaded(t *testing.T) *testServer {
	t.Helper()
	ts := newTestServer(t)
	_, err := ts.session.Load(context.Background(), ts.h.currentLoader())
	require.NoError(t, err)
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func uploadBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, kind, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := uploadBody(t, name, data)
	req := httptest.NewRequest(http.MethodPost, "/api/datasets/"+kind, body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, string(models.LoadStateIdle), body["load"])
}

func TestStartLoadAndScorecards(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/load", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	started := decode[models.LoadStatus](t, rec)
	assert.Equal(t, models.LoadStateLoading, started.State)
	assert.NotEmpty(t, started.ID)

	ts.session.Wait()

	st := decode[models.LoadStatus](t, ts.do(http.MethodGet, "/api/load/status", ""))
	assert.Equal(t, models.LoadStateReady, st.State)
	assert.Equal(t, started.ID, st.ID)
	assert.Equal(t, 3, st.Rows[models.DatasetCarriers])
	assert.Equal(t, 4, st.Rows[models.DatasetQuotes])

	carriers := decode[[]models.Carrier](t, ts.do(http.MethodGet, "/api/carriers", ""))
	assert.Len(t, carriers, 3)

	all := decode[[]models.CarrierScoreMetrics](t, ts.do(http.MethodGet, "/api/scorecard", ""))
	assert.Len(t, all, 3)
	ltl := decode[[]models.CarrierScoreMetrics](t, ts.do(http.MethodGet, "/api/scorecard/ltl", ""))
	assert.Len(t, ltl, 2)
	tl := decode[[]models.CarrierScoreMetrics](t, ts.do(http.MethodGet, "/api/scorecard/tl", ""))
	require.Len(t, tl, 1)
	assert.Equal(t, "Bolt Lines", tl[0].CarrierName)
}

func TestEmptyViewsEncodeAsArrays(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/carriers", "/api/quotes", "/api/scorecard", "/api/scorecard/filtered"} {
		rec := ts.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestCarrierFilter(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodPut, "/api/filters/carrier", `{"carrierId":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fv := decode[session.FilterView](t, rec)
	require.NotNil(t, fv.CarrierID)
	assert.Equal(t, 1, *fv.CarrierID)

	quotes := decode[[]models.QuoteActual](t, ts.do(http.MethodGet, "/api/quotes?scope=filtered", ""))
	assert.Len(t, quotes, 2)
	allQuotes := decode[[]models.QuoteActual](t, ts.do(http.MethodGet, "/api/quotes", ""))
	assert.Len(t, allQuotes, 4)

	ship := decode[barSeriesResponse](t, ts.do(http.MethodGet, "/api/series/shipments", ""))
	assert.Equal(t, models.BarByWeek, ship.Mode)
	assert.Equal(t, "Week", ship.Table.Columns[0].Label)

	rec = ts.do(http.MethodDelete, "/api/filters/carrier", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[session.FilterView](t, rec).CarrierID)

	ship = decode[barSeriesResponse](t, ts.do(http.MethodGet, "/api/series/shipments", ""))
	assert.Equal(t, models.BarByCarrier, ship.Mode)
}

func TestCarrierFilterValidation(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodPut, "/api/filters/carrier", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, []string{"carrierId"}, apiErr.Fields)

	rec = ts.do(http.MethodPut, "/api/filters/carrier", `{"carrierId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[APIError](t, rec).Code)
}

func TestTruckTypeFilter(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodPut, "/api/filters/truck-type", `{"truckType":"tl"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TL", decode[session.FilterView](t, rec).TruckType)

	filtered := decode[[]models.CarrierScoreMetrics](t, ts.do(http.MethodGet, "/api/scorecard/filtered", ""))
	require.Len(t, filtered, 1)
	assert.Equal(t, models.TruckTypeTL, filtered[0].TruckType)

	// The full scorecard ignores filters.
	all := decode[[]models.CarrierScoreMetrics](t, ts.do(http.MethodGet, "/api/scorecard", ""))
	assert.Len(t, all, 3)

	rec = ts.do(http.MethodPut, "/api/filters/truck-type", `{"truckType":"REEFER"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"truckType"}, decode[APIError](t, rec).Fields)
}

func TestDateRangeFilter(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodPut, "/api/filters/range", `{"from":"2025-01-08"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fv := decode[session.FilterView](t, rec)
	assert.Equal(t, "2025-01-08", fv.From)
	assert.Empty(t, fv.To)

	quotes := decode[[]models.QuoteActual](t, ts.do(http.MethodGet, "/api/quotes?scope=filtered", ""))
	assert.Len(t, quotes, 2)

	rec = ts.do(http.MethodPut, "/api/filters/range", `{"from":"2025-01-09","to":"2025-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/api/filters/range", `{"from":"01/09/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"from"}, decode[APIError](t, rec).Fields)

	// Rejected requests leave the filters alone.
	assert.Equal(t, "2025-01-08", decode[session.FilterView](t, ts.do(http.MethodGet, "/api/filters", "")).From)

	rec = ts.do(http.MethodPut, "/api/filters/range", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[session.FilterView](t, rec).From)
}

func TestPresetAndReset(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodPost, "/api/filters/range/preset", `{"preset":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/filters/range/preset", `{"preset":"last7"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	fv := decode[session.FilterView](t, rec)
	assert.NotEmpty(t, fv.From)
	assert.NotEmpty(t, fv.To)

	ts.do(http.MethodPut, "/api/filters/carrier", `{"carrierId":2}`)
	rec = ts.do(http.MethodDelete, "/api/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.FilterView{TruckType: "ALL"}, decode[session.FilterView](t, rec))
}

func TestScopeValidation(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodGet, "/api/deliveries?scope=some", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"scope"}, decode[APIError](t, rec).Fields)

	deliveries := decode[[]models.Delivery](t, ts.do(http.MethodGet, "/api/deliveries?scope=all", ""))
	assert.Len(t, deliveries, 4)
}

func TestLeaderboard(t *testing.T) {
	ts := loaded(t)

	rec := ts.do(http.MethodGet, "/api/scorecard/leaderboard?pageSize=10&sort=carrier", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[scorecard.Page](t, rec)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, scorecard.SortAsc, page.Dir)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, "Acme Freight", page.Rows[0].CarrierName)
	assert.Equal(t, 1, page.Rows[0].Rank)

	page = decode[scorecard.Page](t, ts.do(http.MethodGet, "/api/scorecard/leaderboard?q=ltl", ""))
	assert.Equal(t, 2, page.Total)

	for _, q := range []string{"sort=bogus", "dir=up", "page=x", "pageSize=many", "pageSize=7", "pageSize=0"} {
		rec := ts.do(http.MethodGet, "/api/scorecard/leaderboard?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSeriesEndpoints(t *testing.T) {
	ts := loaded(t)

	cost := decode[costSeriesResponse](t, ts.do(http.MethodGet, "/api/series/cost", ""))
	assert.Equal(t, "totals", string(cost.Mode))
	assert.Len(t, cost.Table.Columns, 5)
	assert.Len(t, cost.Points, 3)

	cost = decode[costSeriesResponse](t, ts.do(http.MethodGet, "/api/series/cost?mode=means", ""))
	assert.Len(t, cost.Table.Columns, 3)

	svc := decode[serviceSeriesResponse](t, ts.do(http.MethodGet, "/api/series/service?mode=delta", ""))
	assert.Len(t, svc.Table.Columns, 2)
	assert.NotEmpty(t, svc.Points)

	weight := decode[barSeriesResponse](t, ts.do(http.MethodGet, "/api/series/weight", ""))
	assert.Equal(t, models.BarByCarrier, weight.Mode)
	assert.Len(t, weight.Points, 3)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/series/cost?mode=avg", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/series/service?mode=avg", "").Code)
}

func TestSnapshotMsgpack(t *testing.T) {
	ts := loaded(t)
	ts.do(http.MethodPut, "/api/filters/carrier", `{"carrierId":3}`)

	rec := ts.do(http.MethodGet, "/api/series/msgpack", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeMsgpack, rec.Header().Get(echo.HeaderContentType))

	var snap Snapshot
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Len(t, snap.Scorecard, 3)
	assert.Len(t, snap.Carriers, 3)
	require.NotNil(t, snap.Filters.CarrierID)
	assert.Equal(t, 3, *snap.Filters.CarrierID)
	assert.Equal(t, models.BarByWeek, snap.Shipments.Mode)
	assert.Equal(t, models.LoadStateReady, snap.Status.State)
}

func TestExportScorecard(t *testing.T) {
	ts := loaded(t)
	ts.do(http.MethodPut, "/api/filters/truck-type", `{"truckType":"LTL"}`)

	rec := ts.do(http.MethodGet, "/api/export/scorecard.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "scorecard-filtered.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetScorecard)
	require.NoError(t, err)
	assert.Len(t, rows, 3) // header plus two LTL carriers

	rec = ts.do(http.MethodGet, "/api/export/scorecard.xlsx?scope=all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f2, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f2.Close()
	rows, err = f2.GetRows(export.SheetScorecard)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestUploadDatasetOverridesSource(t *testing.T) {
	ts := loaded(t)

	rec := ts.upload(t, "carriers", "carriers.csv", []byte("TrnspCode,CarrierName,TruckType\n7,Delta Haul,TL\n8,Echo Cartage,LTL\n"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := decode[uploadResponse](t, rec)
	assert.Equal(t, 2, up.Rows)
	assert.Equal(t, models.DatasetCarriers, up.File.Kind)

	list := decode[datasetsResponse](t, ts.do(http.MethodGet, "/api/datasets", ""))
	assert.Equal(t, "csv", list.Source)
	require.Contains(t, list.Active, models.DatasetCarriers)
	assert.Equal(t, up.File.ID, list.Active[models.DatasetCarriers].ID)
	assert.Len(t, list.Files, 1)

	require.Equal(t, http.StatusAccepted, ts.do(http.MethodPost, "/api/load", "").Code)
	ts.session.Wait()

	carriers := decode[[]models.Carrier](t, ts.do(http.MethodGet, "/api/carriers", ""))
	require.Len(t, carriers, 2)
	assert.Equal(t, "Delta Haul", carriers[0].Name)

	// Removing the upload falls back to the configured file.
	rec = ts.do(http.MethodDelete, "/api/datasets/quotes/"+up.File.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/datasets/carriers/"+up.File.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := ts.session.Load(context.Background(), ts.h.currentLoader())
	require.NoError(t, err)
	carriers = decode[[]models.Carrier](t, ts.do(http.MethodGet, "/api/carriers", ""))
	assert.Len(t, carriers, 3)
}

func TestUploadGzipDataset(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testutil.QuotesCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rec := ts.upload(t, "quotes", "quotes.csv.gz", buf.Bytes())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 4, decode[uploadResponse](t, rec).Rows)
}

func TestUploadRejections(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "invoices", "x.csv", []byte("a,b\n1,2\n"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.upload(t, "quotes", "empty.csv", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.upload(t, "quotes", "broken.csv.gz", []byte{0x1f, 0x8b, 0x00, 0x01})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/quotes", nil)
	rec = httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.h.base = &loader.SQLLoader{}
	rec = ts.upload(t, "quotes", "quotes.csv", []byte(testutil.QuotesCSV))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := loaded(t)
	ts.do(http.MethodGet, "/api/scorecard", "")

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `scorecard_loads_total{result="ok"} 1`)
	assert.Contains(t, body, `scorecard_dataset_rows{kind="quotes"} 4`)
	assert.Contains(t, body, `scorecard_view_recomputes_total{value="scorecard"} 1`)
}

func TestReadUpload(t *testing.T) {
	plain, err := readUpload(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(plain))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("x,y\n"))
	require.NoError(t, zw.Close())
	inflated, err := readUpload(&buf)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(inflated))

	one, err := readUpload(strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(one))
}
