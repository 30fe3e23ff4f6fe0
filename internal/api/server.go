package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/freight-scorecard/backend/internal/config"
)

// NewEcho creates the echo instance with the error handler, validator and
// middleware stack configured from cfg. Routes are registered separately.
func NewEcho(cfg config.ServerConfig, logger *zap.Logger, verboseErrors bool) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(verboseErrors)
	e.Validator = NewRequestValidator()

	if cfg.EnableRequestLogging {
		e.Use(RequestLogger(logger.Named("http")))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("handler panic",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return err
		},
	}))

	if cfg.ReadTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      cfg.ReadTimeout,
			Skipper:      isLongLived,
			ErrorMessage: "Request timeout - query took too long",
		}))
	}

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return isWebSocket(c) || strings.HasSuffix(c.Request().URL.Path, ".xlsx")
		},
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := make([]string, 0, len(cfg.AllowOrigins))
		for _, o := range cfg.AllowOrigins {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	return e
}

// RequestLogger logs one line per request through zap. Health and status
// polling are only logged on failure.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote", v.RemoteIP),
			}
			switch {
			case v.Error != nil || v.Status >= http.StatusInternalServerError:
				if v.Error != nil {
					fields = append(fields, zap.Error(v.Error))
				}
				logger.Error("request", fields...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			case isPolling(v.URI):
				logger.Debug("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}

func isPolling(uri string) bool {
	path, _, _ := strings.Cut(uri, "?")
	return path == "/api/health" || strings.HasSuffix(path, "/status") || path == "/metrics"
}

func isWebSocket(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}

// isLongLived skips the timeout middleware for streams, uploads and exports.
func isLongLived(c echo.Context) bool {
	path := c.Request().URL.Path
	return isWebSocket(c) ||
		strings.HasPrefix(path, "/api/datasets") ||
		strings.HasPrefix(path, "/api/export")
}
