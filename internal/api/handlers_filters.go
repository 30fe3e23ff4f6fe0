package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/session"
	"github.com/freight-scorecard/backend/internal/view"
)

type carrierRequest struct {
	CarrierID *int `json:"carrierId" validate:"required"`
}

type truckTypeRequest struct {
	TruckType string `json:"truckType" validate:"required"`
}

type rangeRequest struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type presetRequest struct {
	Preset string `json:"preset" validate:"required,oneof=today last7 last30 all"`
}

func filtersJSON(c echo.Context, f models.FilterState) error {
	return c.JSON(http.StatusOK, session.NewFilterView(f))
}

// HandleGetFilters returns the current filter state.
func (h *Handler) HandleGetFilters(c echo.Context) error {
	return filtersJSON(c, h.session.Filters())
}

// HandleResetFilters restores the default filters.
func (h *Handler) HandleResetFilters(c echo.Context) error {
	return filtersJSON(c, h.session.ResetFilters())
}

// HandleSelectCarrier narrows the filtered views to one carrier.
func (h *Handler) HandleSelectCarrier(c echo.Context) error {
	var req carrierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return filtersJSON(c, h.session.SelectCarrier(*req.CarrierID))
}

// HandleClearCarrier returns the filtered views to all carriers.
func (h *Handler) HandleClearCarrier(c echo.Context) error {
	return filtersJSON(c, h.session.ClearCarrier())
}

// HandleSetTruckType sets the equipment filter of the filtered scorecard.
func (h *Handler) HandleSetTruckType(c echo.Context) error {
	var req truckTypeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	t, err := models.ParseTruckTypeFilter(req.TruckType)
	if err != nil {
		return NewValidationError("truckType")
	}
	return filtersJSON(c, h.session.SetTruckType(t))
}

// HandleSetDateRange sets an inclusive day range. Omitted bounds are open.
func (h *Handler) HandleSetDateRange(c echo.Context) error {
	var req rangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	from, err := parseDay(req.From)
	if err != nil {
		return NewValidationError("from")
	}
	to, err := parseDay(req.To)
	if err != nil {
		return NewValidationError("to")
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return NewBadRequestError("from must not be after to", nil)
	}
	return filtersJSON(c, h.session.SetDateRange(models.NewDateRange(from, to)))
}

// HandleApplyPreset sets the date range from a named preset.
func (h *Handler) HandleApplyPreset(c echo.Context) error {
	var req presetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	f, err := h.session.ApplyPreset(models.RangePreset(req.Preset))
	if err != nil {
		return NewValidationError("preset")
	}
	return filtersJSON(c, f)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(view.DayLayout, s, time.UTC)
}
