// Package api exposes the control and health HTTP surface.
//
// The server is read-mostly: it lists flows and run history, and its single
// mutating endpoint dispatches a manual run. Dispatch carries no parameters,
// so requests with a body or query string are rejected outright.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/specialistvlad/flowgridgo/internal/history"
)

// FlowInfo is the API-facing summary of one loaded flow.
type FlowInfo struct {
	Name        string
	Description string
	Schedule    string
	Manual      bool
	Steps       int
	NextRuns    []time.Time
}

// DispatchFunc starts a manual run of the named flow and returns its run ID.
// The run itself proceeds in the background.
type DispatchFunc func(ctx context.Context, flowName string) (string, error)

// Options wires the server to the rest of the application.
type Options struct {
	Logger *slog.Logger
	// Flows returns a fresh snapshot so next-fire times stay current.
	Flows    func() []FlowInfo
	Dispatch DispatchFunc
	History  history.Store
}

// Server serves the control API.
type Server struct {
	logger   *slog.Logger
	flows    func() []FlowInfo
	dispatch DispatchFunc
	history  history.Store

	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router. Nothing listens until Start is called.
func NewServer(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		logger:   opts.Logger,
		flows:    opts.Flows,
		dispatch: opts.Dispatch,
		history:  opts.History,
		router:   router,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	router.Use(s.requestLogger())

	router.GET("/healthz", s.handleHealthz)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/flows", s.handleListFlows)
		apiGroup.POST("/flows/:name/dispatch", s.handleDispatch)
		apiGroup.GET("/runs", s.handleListRuns)
		apiGroup.GET("/runs/:id/steps", s.handleRunSteps)
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving on addr until Shutdown is called or the listener
// fails.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("🩺 Control API listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("control API server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
