// Package fakeapi is an in-memory JSON API with the wire shape the entity
// repositories speak. It backs integration tests of the client and the CLI.
//
//	GET  /:entity/:endpoint?page=&length=  {"data":{"items":[...],"total":n}}
//	GET  /:entity/:endpoint/:id            {"data":{...}}
//	POST /:entity/:endpoint                201 {"data":{...}}
//
// Pages are zero-based.
package fakeapi

import (
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wexample/go-api/pkg/entity"
)

// DefaultLength is the page size when the request has no length parameter.
const DefaultLength = 20

// Server holds records per entity name in insertion order.
type Server struct {
	mu      sync.RWMutex
	records map[string][]map[string]any

	apiKey   string
	rps      int
	burst    int
	logger   *zap.Logger
	requests atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer <key>" on every request.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithRateLimit answers 429 once a client exceeds rps with the given burst.
func WithRateLimit(rps, burst int) Option {
	return func(s *Server) { s.rps, s.burst = rps, burst }
}

// WithLogger logs every request.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns an empty Server.
func New(opts ...Option) *Server {
	s := &Server{
		records: make(map[string][]map[string]any),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seed appends records for entityName. Records without a secureId get one.
func (s *Server) Seed(entityName string, records ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := entity.CanonicalName(entityName)
	for _, r := range records {
		r = maps.Clone(r)
		if entity.SecureIDOf(r) == "" {
			r[entity.SecureIDKey] = uuid.NewString()
		}
		s.records[name] = append(s.records[name], r)
	}
}

// Requests returns how many requests the server has received.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Start serves the API on a loopback httptest server. Callers must Close it.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.Handler())
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	if s.rps > 0 {
		r.Use(rateLimiter(s.rps, s.burst))
	}
	if s.apiKey != "" {
		r.Use(s.requireKey())
	}

	r.GET("/:entity/:endpoint", s.list)
	r.GET("/:entity/:endpoint/:id", s.show)
	r.POST("/:entity/:endpoint", s.create)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.requests.Add(1)
		c.Next()
		s.logger.Debug("fakeapi request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", c.GetHeader("X-Request-Id")),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) requireKey() gin.HandlerFunc {
	want := "Bearer " + s.apiKey
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// rateLimiter enforces a per-IP token bucket.
func rateLimiter(rps, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		mu.Unlock()

		if !l.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) list(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	length, err := strconv.Atoi(c.DefaultQuery("length", strconv.Itoa(DefaultLength)))
	if err != nil || length < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid length"})
		return
	}

	s.mu.RLock()
	all := s.records[c.Param("entity")]
	items := make([]map[string]any, 0, length)
	for i := page * length; i < len(all) && len(items) < length; i++ {
		items = append(items, all[i])
	}
	total := len(all)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"items": items, "total": total}})
}

func (s *Server) show(c *gin.Context) {
	id := c.Param("id")

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records[c.Param("entity")] {
		if entity.SecureIDOf(r) == id {
			c.JSON(http.StatusOK, gin.H{"data": r})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": c.Param("entity") + " not found"})
}

func (s *Server) create(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if entity.SecureIDOf(body) == "" {
		body[entity.SecureIDKey] = uuid.NewString()
	}

	s.mu.Lock()
	name := c.Param("entity")
	s.records[name] = append(s.records[name], body)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"data": body})
}
