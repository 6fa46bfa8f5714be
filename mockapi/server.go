package mockapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"prism-todos/domain"
)

const (
	putTaskMaxSize   = 64 << 10 // 64 KiB
	metricsSubsystem = "todos_mock"
)

// Options configures a Server.
type Options struct {
	// FailMutations makes every PUT and DELETE on /todos answer 503.
	FailMutations bool
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// Server is the development task service.
type Server struct {
	Echo    *echo.Echo
	backend Backend
	faults  atomic.Bool
	logger  *log.Logger
}

type faultsRequest struct {
	FailMutations bool `json:"failMutations"`
}

// NewServer wires routes and middleware for backend onto a new Echo instance.
func NewServer(backend Backend, opts Options, logger *log.Logger) *Server {
	if backend == nil {
		panic("mockapi.NewServer: backend is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{TargetHeader: echo.HeaderXRequestID}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: reg,
	}))

	s := &Server{Echo: e, backend: backend, logger: logger}
	s.faults.Store(opts.FailMutations)

	e.Use(requestLogger(logger))

	todos := e.Group("/todos")
	todos.GET("", s.listTasks)
	todos.GET("/:id", s.getTask)
	todos.PUT("/:id", s.putTask, s.faultInjection)
	todos.DELETE("/:id", s.deleteTask, s.faultInjection)

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.PUT("/_admin/faults", s.setFaults)
	return s
}

// Start serves on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

// SetFailMutations toggles fault injection for mutating routes.
func (s *Server) SetFailMutations(on bool) {
	s.faults.Store(on)
}

func (s *Server) healthz(c echo.Context) error {
	if _, err := s.backend.ListTasks(c.Request().Context()); err != nil {
		return c.String(http.StatusServiceUnavailable, "backend unavailable")
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) listTasks(c echo.Context) error {
	tasks, err := s.backend.ListTasks(c.Request().Context())
	if err != nil {
		return s.backendError(c, err)
	}
	if v := strings.TrimSpace(c.QueryParam("completed")); v != "" {
		want, perr := strconv.ParseBool(v)
		if perr != nil {
			return c.String(http.StatusBadRequest, "invalid completed filter")
		}
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Completed == want {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	if v := strings.TrimSpace(c.QueryParam("_limit")); v != "" {
		limit, perr := strconv.Atoi(v)
		if perr != nil || limit < 0 {
			return c.String(http.StatusBadRequest, "invalid limit")
		}
		if limit < len(tasks) {
			tasks = tasks[:limit]
		}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	task, err := s.backend.GetTask(c.Request().Context(), id)
	if err != nil {
		return s.backendError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) putTask(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	var task domain.Task
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, putTaskMaxSize))
	if err := dec.Decode(&task); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	task.ID = id
	if err := s.backend.PutTask(c.Request().Context(), task); err != nil {
		return s.backendError(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.String(http.StatusBadRequest, "invalid id")
	}
	if err := s.backend.DeleteTask(c.Request().Context(), id); err != nil {
		return s.backendError(c, err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

func (s *Server) setFaults(c echo.Context) error {
	var req faultsRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	s.SetFailMutations(req.FailMutations)
	s.logger.WithField("fail_mutations", req.FailMutations).Info("todos.mock.faults_updated")
	return c.JSON(http.StatusOK, req)
}

func (s *Server) faultInjection(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.faults.Load() {
			c.Set(errorStageKey, "fault_injected")
			return c.String(http.StatusServiceUnavailable, "mutations disabled")
		}
		return next(c)
	}
}

func (s *Server) backendError(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		c.Set(errorStageKey, "not_found")
		return c.String(http.StatusNotFound, "not found")
	}
	c.Set(errorStageKey, "backend")
	c.Set(errorKey, err)
	return c.String(http.StatusInternalServerError, "backend error")
}

func pathID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.Set(errorStageKey, "invalid_id")
		return 0, false
	}
	return id, true
}

type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
