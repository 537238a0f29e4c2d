/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: server.go
Description: HTTP evaluation service. Serves a fuzzy system over gin with a result
cache, Prometheus metrics and an atomically swappable active system so definitions
can be reloaded while requests are in flight.
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/logging"
	"github.com/kleascm/akaylee-fls/pkg/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader  = "X-Request-ID"
	defaultPoints    = 101
	maxPoints        = 10000
	shutdownDeadline = 10 * time.Second
)

// Config holds the server settings
type Config struct {
	Addr        string        `mapstructure:"addr"`
	CacheSize   int           `mapstructure:"cache_size"` // 0 disables the result cache
	Definition  string        `mapstructure:"definition"` // reloaded from disk when Watch is set
	Watch       bool          `mapstructure:"watch"`
	Debounce    time.Duration `mapstructure:"debounce"`
	DefaultMode fuzzy.Mode    `mapstructure:"-"`
}

// DefaultConfig listens on :8080 with a 1024 entry cache
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		CacheSize: 1024,
		Debounce:  200 * time.Millisecond,
	}
}

// active is the system currently served. The generation is part of every cache key
// so results computed against a replaced system are never returned.
type active struct {
	system     *definition.System
	generation uint64
}

// Server serves evaluations of the active system
type Server struct {
	config   Config
	logger   *logging.Logger
	recorder *monitoring.Recorder
	registry *prometheus.Registry
	cache    *lru.Cache
	router   *gin.Engine

	current atomic.Pointer[active]
	gen     atomic.Uint64
}

// New creates a server for sys. A nil logger uses logging.DefaultConfig.
func New(sys *definition.System, config Config, logger *logging.Logger) (*Server, error) {
	if sys == nil {
		return nil, errors.New("server needs a system")
	}
	if config.Watch && config.Definition == "" {
		return nil, errors.New("watch requires a definition file")
	}
	if logger == nil {
		var err error
		if logger, err = logging.NewLogger(nil); err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		config:   config,
		logger:   logger,
		registry: registry,
		recorder: monitoring.NewRecorder(registry, logger.GetLogger()),
	}
	if config.CacheSize > 0 {
		cache, err := lru.New(config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		s.cache = cache
	}
	s.Swap(sys)
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// Recorder returns the metrics recorder
func (s *Server) Recorder() *monitoring.Recorder { return s.recorder }

// Registry returns the registry served on /metrics
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// System returns the active system
func (s *Server) System() *definition.System { return s.current.Load().system }

// Swap makes sys the active system and drops every cached result
func (s *Server) Swap(sys *definition.System) {
	s.current.Store(&active{system: sys, generation: s.gen.Add(1)})
	if s.cache != nil {
		s.cache.Purge()
	}
	s.recorder.SetRules(sys.Name, sys.Rulebase.Len())
}

// Reload rebuilds the system from the configured definition file. On failure the
// active system is kept.
func (s *Server) Reload() error {
	sys, err := s.load()
	s.recorder.ObserveReload(err)
	if err != nil {
		s.logger.LogReload(s.config.Definition, 0, err)
		return err
	}
	s.Swap(sys)
	s.logger.LogReload(s.config.Definition, sys.Rulebase.Len(), nil)
	return nil
}

func (s *Server) load() (*definition.System, error) {
	if s.config.Definition == "" {
		return nil, errors.New("no definition file configured")
	}
	def, err := definition.Load(s.config.Definition)
	if err != nil {
		return nil, err
	}
	return definition.Build(def, fuzzy.WithLogger(s.logger.GetLogger()))
}

// Run serves until ctx is cancelled, watching the definition file when configured
func (s *Server) Run(ctx context.Context) error {
	if s.config.Watch {
		w, err := NewWatcher(s.config.Definition, s.config.Debounce, func() {
			_ = s.Reload()
		}, s.logger.GetLogger())
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.GetLogger().WithFields(logrus.Fields{
			"addr":   s.config.Addr,
			"system": s.System().Name,
			"cache":  s.config.CacheSize,
			"watch":  s.config.Watch,
		}).Info("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		s.logger.GetLogger().Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.accessLog())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.GET("/system", s.handleSystem)
	v1.POST("/evaluate", s.handleEvaluate)
	v1.GET("/membership/:variable", s.handleMembership)
	return router
}

// requestID propagates or assigns X-Request-ID
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.GetLogger().WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDHeader),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		}).Debug("Request served")
	}
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string              `json:"status"`
	System  string              `json:"system"`
	Rules   int                 `json:"rules"`
	Metrics monitoring.Snapshot `json:"metrics"`
}

func (s *Server) handleHealth(c *gin.Context) {
	sys := s.System()
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		System:  sys.Name,
		Rules:   sys.Rulebase.Len(),
		Metrics: s.recorder.Snapshot(),
	})
}

func (s *Server) handleSystem(c *gin.Context) {
	c.JSON(http.StatusOK, s.System().Summarize())
}

// EvaluateRequest is the body of POST /v1/evaluate
type EvaluateRequest struct {
	Values  map[string]float64 `json:"values" binding:"required"`
	Mode    string             `json:"mode"`
	Explain bool               `json:"explain"`
}

// EvaluateResponse is the reply of POST /v1/evaluate
type EvaluateResponse struct {
	RequestID string             `json:"request_id"`
	System    string             `json:"system"`
	Mode      string             `json:"mode"`
	Outputs   map[string]float64 `json:"outputs"`
	Fallbacks []string           `json:"fallbacks,omitempty"`
	Cached    bool               `json:"cached"`
	Trace     []fuzzy.RuleFiring `json:"trace,omitempty"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	mode := s.config.DefaultMode
	if req.Mode != "" {
		m, err := fuzzy.ParseMode(req.Mode)
		if err != nil {
			s.failEvaluation(c, err)
			return
		}
		mode = m
	}

	cur := s.current.Load()
	sys := cur.system
	key := cacheKey(cur.generation, mode, sys.Inputs, req.Values)

	var exp *fuzzy.Explanation
	cached := false
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			exp, cached = v.(*fuzzy.Explanation), true
			s.recorder.CacheHit()
		} else {
			s.recorder.CacheMiss()
		}
	}
	if exp == nil {
		start := time.Now()
		var err error
		exp, err = s.recorder.Explain(c.Request.Context(), sys.Name, sys.Rulebase, fuzzy.Values(req.Values), mode)
		if err != nil {
			s.failEvaluation(c, err)
			return
		}
		s.logger.LogEvaluation(sys.Name, mode.String(), req.Values, exp.Result(), time.Since(start))
		if s.cache != nil {
			s.cache.Add(key, exp)
		}
	}

	resp := EvaluateResponse{
		RequestID: c.GetString(requestIDHeader),
		System:    sys.Name,
		Mode:      mode.String(),
		Outputs:   exp.Result(),
		Cached:    cached,
	}
	for _, o := range exp.Outputs {
		if o.Fallback {
			resp.Fallbacks = append(resp.Fallbacks, o.Output)
		}
	}
	if req.Explain {
		resp.Trace = exp.Firings
	}
	c.JSON(http.StatusOK, resp)
}

// MembershipResponse is the reply of GET /v1/membership/:variable
type MembershipResponse struct {
	Variable string                   `json:"variable"`
	Domain   fuzzy.Domain             `json:"domain"`
	Terms    map[string][]fuzzy.Point `json:"terms"`
}

func (s *Server) handleMembership(c *gin.Context) {
	sys := s.System()
	variable := c.Param("variable")
	points := defaultPoints
	if raw := c.Query("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 || n > maxPoints {
			s.fail(c, http.StatusBadRequest, fmt.Errorf("points must be an integer in [2, %d]", maxPoints))
			return
		}
		points = n
	}

	domain, ok := sys.Domain(variable)
	if !ok {
		s.fail(c, http.StatusNotFound, fmt.Errorf("unknown variable %q", variable))
		return
	}
	names, curves, err := sys.Sample(variable, points)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	resp := MembershipResponse{Variable: variable, Domain: domain, Terms: make(map[string][]fuzzy.Point, len(names))}
	for i, name := range names {
		resp.Terms[name] = curves[i]
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.GetString(requestIDHeader),
		Error:     err.Error(),
	})
}

// failEvaluation reports an engine error with its kind
func (s *Server) failEvaluation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), ErrorResponse{
		RequestID: c.GetString(requestIDHeader),
		Error:     err.Error(),
		Kind:      monitoring.ErrorKind(err),
	})
}

// statusFor maps evaluation errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, fuzzy.ErrDomainMismatch), errors.Is(err, fuzzy.ErrInputNotSet), errors.Is(err, fuzzy.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, fuzzy.ErrNoRuleFired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// cacheKey is the generation, the mode and the values of the system's inputs in name
// order. Values the system does not read are left out.
func cacheKey(generation uint64, mode fuzzy.Mode, inputs []*fuzzy.Input, values map[string]float64) string {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name()
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strconv.FormatUint(generation, 10))
	b.WriteByte('|')
	b.WriteString(mode.String())
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		if v, ok := values[name]; ok {
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
