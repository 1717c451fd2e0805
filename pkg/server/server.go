// Package server exposes the macro index over a REST API. The index is
// read-only, so all handlers are safe to serve concurrently without
// locking.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duynguyendang/semacro/pkg/policy"
)

// Server holds the state for the REST API server.
type Server struct {
	index  *policy.Index
	router *gin.Engine
}

// New creates a new Server instance over a loaded index.
func New(ix *policy.Index) *Server {
	r := gin.Default()
	r.Use(requestID())
	s := &Server{
		index:  ix,
		router: r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/macros", s.handleMacros)
	s.router.GET("/v1/macros/:name", s.handleLookup)
	s.router.POST("/v1/expand", s.handleExpand)
	s.router.GET("/v1/callers/:name", s.handleCallers)
	s.router.POST("/v1/which", s.handleWhich)
	s.router.GET("/v1/deps/:name", s.handleDeps)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// requestID tags every response for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
