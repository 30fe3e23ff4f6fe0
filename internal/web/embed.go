// Package web embeds the dashboard page so the server runs without a separate
// frontend deployment.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

// FS returns the embedded files rooted at dist.
func FS() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes serves the dashboard for every path outside /api and
// the metrics endpoint. Unknown paths get index.html. Register API routes first.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := FS()
	if err != nil {
		return err
	}
	index, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	e.GET("/*", func(c echo.Context) error {
		name := strings.TrimPrefix(path.Clean(c.Request().URL.Path), "/")
		if strings.HasPrefix(name, "api/") {
			return echo.ErrNotFound
		}
		if name == "" || name == "." || name == "index.html" {
			return c.HTMLBlob(http.StatusOK, index)
		}
		if st, err := fs.Stat(staticFS, name); err != nil || st.IsDir() {
			return c.HTMLBlob(http.StatusOK, index)
		}
		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return nil
}
