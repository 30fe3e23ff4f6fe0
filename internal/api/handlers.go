package api

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/loader"
	"github.com/freight-scorecard/backend/internal/logging"
	"github.com/freight-scorecard/backend/internal/models"
	"github.com/freight-scorecard/backend/internal/session"
	"github.com/freight-scorecard/backend/internal/storage"
)

// Handler serves the dashboard API over one session.
type Handler struct {
	session *session.Manager
	store   storage.Store
	base    loader.Loader
	logger  *zap.Logger
	version string
	started time.Time
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Session *session.Manager
	Store   storage.Store
	Loader  loader.Loader // configured source; uploads override its CSV documents
	Logger  *zap.Logger
	Version string
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		session: deps.Session,
		store:   deps.Store,
		base:    deps.Loader,
		logger:  logger.Named("api"),
		version: deps.Version,
		started: time.Now(),
	}
}

// HandleHealth returns server health status
func (h *Handler) HandleHealth(c echo.Context) error {
	st := h.session.Status()
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   h.version,
		"uptimeSec": int64(time.Since(h.started).Seconds()),
		"load":      st.State,
	})
}

// datasetsResponse lists uploads, and which upload is active per kind.
type datasetsResponse struct {
	Active map[models.DatasetKind]*models.FileInfo `json:"active"`
	Files  []*models.FileInfo                      `json:"files"`
	Source string                                  `json:"source"`
}

// HandleListDatasets returns uploaded dataset files.
func (h *Handler) HandleListDatasets(c echo.Context) error {
	files, err := h.store.List(0)
	if err != nil {
		return NewInternalError("failed to list datasets", err)
	}
	resp := datasetsResponse{
		Active: make(map[models.DatasetKind]*models.FileInfo, len(models.DatasetKinds)),
		Files:  files,
		Source: h.sourceName(),
	}
	for _, kind := range models.DatasetKinds {
		if info, ok := h.store.Latest(kind); ok {
			resp.Active[kind] = info
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type uploadResponse struct {
	File *models.FileInfo `json:"file"`
	Rows int              `json:"rows"`
}

// HandleUploadDataset accepts a CSV document (optionally gzip-compressed) for
// one dataset kind. The next load reads it in place of the configured file.
func (h *Handler) HandleUploadDataset(c echo.Context) error {
	kind, ok := models.ParseDatasetKind(c.Param("kind"))
	if !ok {
		return NewNotFoundError("dataset kind", c.Param("kind"))
	}
	if _, ok := h.base.(*loader.CSVLoader); !ok {
		return NewConflictError("uploads are only accepted for a csv data source")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("missing file field", err)
	}
	src, err := fh.Open()
	if err != nil {
		return NewInternalError("failed to open upload", err)
	}
	defer src.Close()

	data, err := readUpload(src)
	if err != nil {
		return NewBadRequestError("failed to read upload", err)
	}
	if len(data) == 0 {
		return NewBadRequestError("upload is empty", nil)
	}

	rows, err := loader.CountRows(kind, bytes.NewReader(data))
	if err != nil {
		return NewBadRequestError(fmt.Sprintf("not a valid %s document", kind), err)
	}

	info, err := h.store.SaveBytes(kind, fh.Filename, data)
	if err != nil {
		return NewInternalError("failed to save upload", err)
	}
	h.logger.Info("dataset uploaded",
		zap.String("kind", string(kind)),
		zap.String("id", logging.ShortID(info.ID)),
		zap.String("name", info.Name),
		zap.Int("rows", rows),
		zap.Int64("bytes", info.Size),
	)
	return c.JSON(http.StatusCreated, uploadResponse{File: info, Rows: rows})
}

// HandleDeleteDataset removes an uploaded file. The kind then falls back to
// the previous upload or the configured source.
func (h *Handler) HandleDeleteDataset(c echo.Context) error {
	kind, ok := models.ParseDatasetKind(c.Param("kind"))
	if !ok {
		return NewNotFoundError("dataset kind", c.Param("kind"))
	}
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil || info.Kind != kind {
		return NewNotFoundError("dataset", id)
	}
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("dataset", id)
		}
		return NewInternalError("failed to delete dataset", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StartLoad begins a background load from the configured source with
// uploads applied. A load already in flight is superseded.
func (h *Handler) StartLoad() models.LoadStatus {
	return h.session.StartLoad(h.currentLoader())
}

// HandleStartLoad kicks off a background load and returns its initial status.
func (h *Handler) HandleStartLoad(c echo.Context) error {
	return c.JSON(http.StatusAccepted, h.StartLoad())
}

// HandleLoadStatus returns the most recent load status.
func (h *Handler) HandleLoadStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Status())
}

// currentLoader is the configured loader with the latest upload of each
// kind swapped in.
func (h *Handler) currentLoader() loader.Loader {
	csv, ok := h.base.(*loader.CSVLoader)
	if !ok || h.store == nil {
		return h.base
	}
	for _, kind := range models.DatasetKinds {
		info, ok := h.store.Latest(kind)
		if !ok {
			continue
		}
		path, err := h.store.GetFilePath(info.ID)
		if err != nil {
			h.logger.Warn("upload missing on disk", zap.String("id", logging.ShortID(info.ID)), zap.Error(err))
			continue
		}
		csv = csv.WithFetcher(kind, loader.FileFetcher{Path: path})
	}
	return csv
}

func (h *Handler) sourceName() string {
	switch h.base.(type) {
	case *loader.CSVLoader:
		return "csv"
	case *loader.SQLLoader:
		return "sql"
	}
	return "custom"
}

// readUpload returns the upload body, inflating it if it starts with the
// gzip magic bytes.
func readUpload(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompression failed: %w", err)
		}
		return data, nil
	}
	return io.ReadAll(br)
}
