// Package runtimetest provides an in-process stand-in for the vendor quantum
// runtime API, used by client and workflow tests.
package runtimetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/qpuctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Backend is one fixture device. Nil optional fields are omitted from the
// wire payload so adapter defaulting can be exercised.
type Backend struct {
	Name        string
	NumQubits   int
	Operational *bool
	PendingJobs *int
	Simulator   *bool
}

// JobScript drives one job's lifecycle: each status poll advances through
// Statuses and the final entry sticks. Counts are served once the job
// reports done.
type JobScript struct {
	Statuses []string
	Counts   map[string]int
	Width    int
	Reason   string
}

type jobState struct {
	script JobScript
	polls  int
}

// Server is the fake runtime service.
type Server struct {
	ts *httptest.Server

	mu           sync.Mutex
	apiKey       string
	accountSaved bool
	requireSave  bool
	backends     []Backend
	nextScript   JobScript
	sessions     map[string]bool
	jobs         map[string]*jobState
	seq          int
}

// Option mutates server construction.
type Option func(*Server)

// WithAPIKey sets the bearer token the server accepts.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithBackends seeds the device catalog.
func WithBackends(backends ...Backend) Option {
	return func(s *Server) { s.backends = backends }
}

// WithSaveRequired makes the account probe fail until save-account is called,
// exercising the client's persist-and-retry fallback.
func WithSaveRequired() Option {
	return func(s *Server) { s.requireSave = true }
}

// WithNextJob scripts the lifecycle of the next submitted job.
func WithNextJob(script JobScript) Option {
	return func(s *Server) { s.nextScript = script }
}

// New starts the fixture service on a loopback listener.
func New(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		apiKey:     "test-key",
		sessions:   map[string]bool{},
		jobs:       map[string]*jobState{},
		nextScript: JobScript{Statuses: []string{"done"}, Counts: map[string]int{"11": 1}, Width: 2},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET", "POST", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", s.requireAuth)
	authed.GET("/account", s.handleAccountProbe)
	authed.POST("/account", s.handleAccountSave)
	authed.GET("/backends", s.handleBackends)
	authed.POST("/sessions", s.handleOpenSession)
	authed.DELETE("/sessions/:id", s.handleCloseSession)
	authed.POST("/jobs", s.handleSubmitJob)
	authed.GET("/jobs/:id", s.handleJobStatus)
	authed.GET("/jobs/:id/results", s.handleJobResults)

	s.ts = httptest.NewServer(r)
	return s
}

// URL returns the service base URL.
func (s *Server) URL() string { return s.ts.URL }

// Close shuts the listener down.
func (s *Server) Close() { s.ts.Close() }

// ScriptNextJob replaces the lifecycle script for the next submission.
func (s *Server) ScriptNextJob(script JobScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextScript = script
}

// SeedJob registers a pre-existing job, as if submitted by an earlier run.
func (s *Server) SeedJob(id string, script JobScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &jobState{script: script}
}

// SessionClosed reports whether the given session id has been released.
func (s *Server) SessionClosed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// JobPolls reports how many status polls a job has received.
func (s *Server) JobPolls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.jobs[id]; ok {
		return st.polls
	}
	return 0
}

func (s *Server) requireAuth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api token"})
	}
}

func (s *Server) handleAccountProbe(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requireSave && !s.accountSaved {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no saved account for instance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": c.Query("instance"), "channel": c.Query("channel")})
}

func (s *Server) handleAccountSave(c *gin.Context) {
	var body struct {
		Channel   string `json:"channel"`
		Token     string `json:"token"`
		Instance  string `json:"instance"`
		Overwrite bool   `json:"overwrite"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.accountSaved = true
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) handleBackends(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices := make([]gin.H, 0, len(s.backends))
	for _, b := range s.backends {
		device := gin.H{"name": b.Name, "num_qubits": b.NumQubits}
		if b.Operational != nil {
			device["operational"] = *b.Operational
		}
		if b.PendingJobs != nil {
			device["pending_jobs"] = *b.PendingJobs
		}
		if b.Simulator != nil {
			device["simulator"] = *b.Simulator
		}
		devices = append(devices, device)
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) handleOpenSession(c *gin.Context) {
	var body struct {
		Backend string `json:"backend"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Backend) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "backend required"})
		return
	}
	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("sess-%d", s.seq)
	s.sessions[id] = false
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleCloseSession(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	s.sessions[id] = true
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

func (s *Server) handleSubmitJob(c *gin.Context) {
	var body struct {
		SessionID         string `json:"session_id"`
		Program           string `json:"program"`
		Shots             int    `json:"shots"`
		OptimizationLevel int    `json:"optimization_level"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	closed, ok := s.sessions[body.SessionID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	if closed {
		c.JSON(http.StatusConflict, gin.H{"error": "session closed"})
		return
	}
	if body.Shots <= 0 || strings.TrimSpace(body.Program) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "program and positive shots required"})
		return
	}
	s.seq++
	id := fmt.Sprintf("job-%d", s.seq)
	s.jobs[id] = &jobState{script: s.nextScript}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "queued"})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.jobs[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	idx := st.polls
	if idx >= len(st.script.Statuses) {
		idx = len(st.script.Statuses) - 1
	}
	st.polls++
	c.JSON(http.StatusOK, gin.H{"id": id, "status": st.script.Statuses[idx], "reason": st.script.Reason})
}

func (s *Server) handleJobResults(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.jobs[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	final := st.script.Statuses[len(st.script.Statuses)-1]
	if final != "done" {
		c.JSON(http.StatusConflict, gin.H{"error": "job is not complete"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": st.script.Counts, "shots": sum(st.script.Counts), "width": st.script.Width})
}

func sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// BoolPtr and IntPtr build optional fixture fields.
func BoolPtr(v bool) *bool { return &v }
func IntPtr(v int) *int    { return &v }
