// Package dashboard serves the interactive prediction page and its JSON API.
//
// Every request reads the dataset and both artifacts again, so a retrained
// model is picked up without restarting the server.
package dashboard

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/YuminosukeSato/oncolens/config"
	"github.com/YuminosukeSato/oncolens/dataset"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/pkg/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the dashboard HTTP server.
type Server struct {
	cfg    config.Config
	logger log.Logger
	loader *dataset.Loader
	echo   *echo.Echo
}

// NewServer builds the echo instance and registers every route.
// A nil logger uses log.GetLogger().
func NewServer(cfg config.Config, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse dashboard templates")
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.With(log.ComponentKey, "dashboard"),
		loader: dataset.NewLoader(dataset.WithLabelColumn(cfg.Dataset.LabelColumn)),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLevel(cfg.Log.Level))
	e.Renderer = &renderer{tmpl: tmpl}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError: true,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				log.HTTPMethodKey, v.Method,
				log.HTTPURIKey, v.URI,
				log.HTTPStatusKey, v.Status,
				log.DurationMsKey, v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				s.logger.Warn("Request failed", append([]any{v.Error}, fields...)...)
				return nil
			}
			s.logger.Debug("Request served", fields...)
			return nil
		},
	}))

	e.GET("/", s.safe("dashboard.index", s.index))
	e.GET("/radar.svg", s.safe("dashboard.radar", s.radar))
	e.GET("/api/features", s.safe("dashboard.features", s.features))
	e.POST("/api/predict", s.safe("dashboard.predict", s.predict))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s.echo = e
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on cfg.Server.Addr until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Dashboard listening",
		log.HTTPAddrKey, s.cfg.Server.Addr,
		log.SourceKey, s.cfg.Dataset.Path,
		log.ArtifactKey, s.cfg.Artifacts.ModelPath,
	)
	if err := s.echo.Start(s.cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "dashboard server")
	}
	return nil
}

// Addr returns the listening address, or nil before Start has bound it.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// safe runs h inside errors.SafeExecute so that a panic becomes a 500.
func (s *Server) safe(op string, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return errors.SafeExecute(op, func() error { return h(c) })
	}
}

// handleError writes a JSON error. Artifact problems are 503; feature
// mismatches and measurements that overflow the model are 422.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("Request error", err, log.HTTPStatusKey, code)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"message": msg})
	}
	if err != nil {
		s.logger.Error("Write error response", err)
	}
}

func statusOf(err error) (int, string) {
	var (
		httpErr     *echo.HTTPError
		artifactErr *errors.ArtifactLoadError
		dimErr      *errors.DimensionMismatchError
		numErr      *errors.NumericalInstabilityError
		validErr    *errors.ValidationError
		panicErr    *errors.PanicError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, http.StatusText(httpErr.Code)
	case errors.As(err, &artifactErr):
		return http.StatusServiceUnavailable, artifactErr.Error()
	case errors.As(err, &dimErr):
		return http.StatusUnprocessableEntity, dimErr.Error()
	case errors.As(err, &numErr):
		return http.StatusUnprocessableEntity, numErr.Error()
	case errors.As(err, &validErr):
		return http.StatusBadRequest, validErr.Error()
	case errors.As(err, &panicErr):
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// echoLevel maps the application level onto echo's own logger, which only
// reports server start-up problems.
func echoLevel(level string) glog.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return glog.DEBUG
	case "info":
		return glog.INFO
	case "error":
		return glog.ERROR
	default:
		return glog.WARN
	}
}

type renderer struct {
	tmpl *template.Template
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
