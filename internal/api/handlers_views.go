package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/freight-scorecard/backend/internal/export"
	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/scorecard"
	"github.com/freight-scorecard/backend/internal/session"
	"github.com/freight-scorecard/backend/internal/view"
)

const (
	scopeAll      = "all"
	scopeFiltered = "filtered"

	mimeMsgpack = "application/msgpack"
	mimeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func parseScope(c echo.Context, def string) (string, error) {
	switch s := c.QueryParam("scope"); s {
	case "":
		return def, nil
	case scopeAll, scopeFiltered:
		return s, nil
	}
	return "", NewValidationError("scope")
}

// HandleCarriers returns the carrier master list.
func (h *Handler) HandleCarriers(c echo.Context) error {
	var out []models.Carrier
	h.session.Read(func(s *view.Store) { out = s.Carriers() })
	return c.JSON(http.StatusOK, nonNil(out))
}

// HandleQuotes returns quote rows, either all of them or the filtered subset.
func (h *Handler) HandleQuotes(c echo.Context) error {
	scope, err := parseScope(c, scopeAll)
	if err != nil {
		return err
	}
	var out []models.QuoteActual
	h.session.Read(func(s *view.Store) {
		if scope == scopeFiltered {
			out = s.FilteredQuotes()
		} else {
			out = s.Quotes()
		}
	})
	return c.JSON(http.StatusOK, nonNil(out))
}

// HandleDeliveries returns delivery rows, either all of them or the filtered subset.
func (h *Handler) HandleDeliveries(c echo.Context) error {
	scope, err := parseScope(c, scopeAll)
	if err != nil {
		return err
	}
	var out []models.Delivery
	h.session.Read(func(s *view.Store) {
		if scope == scopeFiltered {
			out = s.FilteredDeliveries()
		} else {
			out = s.Deliveries()
		}
	})
	return c.JSON(http.StatusOK, nonNil(out))
}

// scorecardHandler serves one of the scorecard views.
func (h *Handler) scorecardHandler(get func(*view.Store) []models.CarrierScoreMetrics) echo.HandlerFunc {
	return func(c echo.Context) error {
		var out []models.CarrierScoreMetrics
		h.session.Read(func(s *view.Store) { out = get(s) })
		return c.JSON(http.StatusOK, nonNil(out))
	}
}

// HandleScorecard returns the unfiltered scorecard.
func (h *Handler) HandleScorecard(c echo.Context) error {
	return h.scorecardHandler((*view.Store).Scorecard)(c)
}

// HandleFilteredScorecard returns the scorecard under the current filters.
func (h *Handler) HandleFilteredScorecard(c echo.Context) error {
	return h.scorecardHandler((*view.Store).FilteredScorecard)(c)
}

// HandleLTLScorecard returns LTL carriers of the unfiltered scorecard.
func (h *Handler) HandleLTLScorecard(c echo.Context) error {
	return h.scorecardHandler((*view.Store).LTL)(c)
}

// HandleTLScorecard returns TL carriers of the unfiltered scorecard.
func (h *Handler) HandleTLScorecard(c echo.Context) error {
	return h.scorecardHandler((*view.Store).TL)(c)
}

// HandleLeaderboard searches, sorts and pages the filtered scorecard.
func (h *Handler) HandleLeaderboard(c echo.Context) error {
	q := scorecard.Query{Search: c.QueryParam("q")}

	field, err := scorecard.ParseSortField(c.QueryParam("sort"))
	if err != nil {
		return NewValidationError("sort")
	}
	q.Sort = field

	switch dir := scorecard.SortDir(c.QueryParam("dir")); dir {
	case "":
	case scorecard.SortAsc, scorecard.SortDesc:
		q.Dir = dir
	default:
		return NewValidationError("dir")
	}

	if q.Page, err = intParam(c, "page", 0); err != nil {
		return NewValidationError("page")
	}
	if q.PageSize, err = intParam(c, "pageSize", scorecard.PageSizes[0]); err != nil || !scorecard.ValidPageSize(q.PageSize) {
		return NewValidationError("pageSize")
	}

	var rows []models.CarrierScoreMetrics
	h.session.Read(func(s *view.Store) { rows = s.FilteredScorecard() })
	return c.JSON(http.StatusOK, scorecard.Leaderboard(rows, q))
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

type costSeriesResponse struct {
	Mode   view.CostSeriesMode   `json:"mode"`
	Points []models.CostDayPoint `json:"points"`
	Table  models.ChartTable     `json:"table"`
}

// HandleCostSeries returns the daily cost delta series and its chart table.
func (h *Handler) HandleCostSeries(c echo.Context) error {
	mode, err := view.ParseCostSeriesMode(c.QueryParam("mode"))
	if err != nil {
		return NewValidationError("mode")
	}
	var points []models.CostDayPoint
	h.session.Read(func(s *view.Store) { points = s.CostDeltaDailySeries() })
	points = nonNil(points)
	return c.JSON(http.StatusOK, costSeriesResponse{
		Mode:   mode,
		Points: points,
		Table:  view.CostSeriesTable(points, mode),
	})
}

type serviceSeriesResponse struct {
	Mode   view.ServiceSeriesMode   `json:"mode"`
	Points []models.ServiceDayPoint `json:"points"`
	Table  models.ChartTable        `json:"table"`
}

// HandleServiceSeries returns the daily transit delta series and its chart table.
func (h *Handler) HandleServiceSeries(c echo.Context) error {
	mode, err := view.ParseServiceSeriesMode(c.QueryParam("mode"))
	if err != nil {
		return NewValidationError("mode")
	}
	var points []models.ServiceDayPoint
	h.session.Read(func(s *view.Store) { points = s.ServiceDeltaDailySeries() })
	points = nonNil(points)
	return c.JSON(http.StatusOK, serviceSeriesResponse{
		Mode:   mode,
		Points: points,
		Table:  view.ServiceSeriesTable(points, mode),
	})
}

type barSeriesResponse struct {
	models.BarSeries
	Table models.ChartTable `json:"table"`
}

// HandleShipmentsSeries returns shipment counts per carrier, or per week when
// a carrier is selected.
func (h *Handler) HandleShipmentsSeries(c echo.Context) error {
	var s models.BarSeries
	h.session.Read(func(st *view.Store) { s = st.ShipmentsSeries() })
	s.Points = nonNil(s.Points)
	return c.JSON(http.StatusOK, barSeriesResponse{BarSeries: s, Table: view.BarTable(s, "Shipments")})
}

// HandleWeightSeries returns quoted weight per carrier, or per week when a
// carrier is selected.
func (h *Handler) HandleWeightSeries(c echo.Context) error {
	var s models.BarSeries
	h.session.Read(func(st *view.Store) { s = st.WeightSeries() })
	s.Points = nonNil(s.Points)
	return c.JSON(http.StatusOK, barSeriesResponse{BarSeries: s, Table: view.BarTable(s, "Weight")})
}

// Snapshot is every dashboard view in one payload.
type Snapshot struct {
	Status            models.LoadStatus            `msgpack:"status"`
	Filters           session.FilterView           `msgpack:"filters"`
	Carriers          []models.Carrier             `msgpack:"carriers"`
	Scorecard         []models.CarrierScoreMetrics `msgpack:"scorecard"`
	FilteredScorecard []models.CarrierScoreMetrics `msgpack:"filteredScorecard"`
	LTL               []models.CarrierScoreMetrics `msgpack:"ltl"`
	TL                []models.CarrierScoreMetrics `msgpack:"tl"`
	CostDaily         []models.CostDayPoint        `msgpack:"costDeltaDailySeries"`
	ServiceDaily      []models.ServiceDayPoint     `msgpack:"serviceDeltaDailySeries"`
	Shipments         models.BarSeries             `msgpack:"shipments"`
	Weight            models.BarSeries             `msgpack:"weight"`
}

func (h *Handler) snapshot() Snapshot {
	snap := Snapshot{Status: h.session.Status()}
	h.session.Read(func(s *view.Store) {
		snap.Filters = session.NewFilterView(s.Filters())
		snap.Carriers = s.Carriers()
		snap.Scorecard = s.Scorecard()
		snap.FilteredScorecard = s.FilteredScorecard()
		snap.LTL = s.LTL()
		snap.TL = s.TL()
		snap.CostDaily = s.CostDeltaDailySeries()
		snap.ServiceDaily = s.ServiceDeltaDailySeries()
		snap.Shipments = s.ShipmentsSeries()
		snap.Weight = s.WeightSeries()
	})
	return snap
}

// HandleSnapshotMsgpack returns every view as one MessagePack document.
func (h *Handler) HandleSnapshotMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.snapshot())
	if err != nil {
		return NewInternalError("failed to encode snapshot", err)
	}
	return c.Blob(http.StatusOK, mimeMsgpack, data)
}

// HandleExportScorecard renders the scorecard and series as an xlsx workbook.
// scope=filtered (default) exports the filtered scorecard, scope=all the full one.
func (h *Handler) HandleExportScorecard(c echo.Context) error {
	scope, err := parseScope(c, scopeFiltered)
	if err != nil {
		return err
	}
	var wb export.Workbook
	h.session.Read(func(s *view.Store) {
		if scope == scopeAll {
			wb.Scorecard = s.Scorecard()
		} else {
			wb.Scorecard = s.FilteredScorecard()
		}
		wb.Cost = s.CostDeltaDailySeries()
		wb.Service = s.ServiceDeltaDailySeries()
		wb.Shipments = s.ShipmentsSeries()
		wb.Weight = s.WeightSeries()
	})

	var buf bytes.Buffer
	if err := export.Write(&buf, wb); err != nil {
		return NewInternalError("failed to render workbook", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="scorecard-%s.xlsx"`, scope))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
