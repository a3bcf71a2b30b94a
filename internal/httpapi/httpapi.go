// Package httpapi exposes the ingest and search services over gin: a small
// set of routes, CORS enabled for all origins, and a uniform
// JSON-or-plain-text response shape per route.
package httpapi

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"melt/internal/search"
)

// Ingester is the subset of ingest.Service the HTTP surface calls.
type Ingester interface {
	Bulk(ctx context.Context, table string, body []byte) error
	JSON(ctx context.Context, table string, body []byte) error
}

// Searcher is the subset of search.Service the HTTP surface calls.
type Searcher interface {
	Search(ctx context.Context, table string, req search.Request) ([]map[string]interface{}, error)
}

// Server wires the ingest and search services to HTTP routes.
type Server struct {
	ingest  Ingester
	search  Searcher
	timeout time.Duration
}

// New builds a Server. timeout bounds how long each request is given to
// complete before its context is cancelled.
func New(ingest Ingester, searchSvc Searcher, timeout time.Duration) *Server {
	return &Server{ingest: ingest, search: searchSvc, timeout: timeout}
}

// Router builds the gin engine with every route this surface exposes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.POST("/:table/_bulk", s.handleBulk)
	r.POST("/:table/_json", s.handleJSON)
	r.POST("/:table/_search", s.handleSearch)
	r.GET("/status", s.handleStatus)

	return r
}

// handleBulk ingests a newline-delimited JSON body.
func (s *Server) handleBulk(c *gin.Context) {
	table := c.Param("table")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("bulk: failed to read body for table=%s: %v", table, err)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	if err := s.ingest.Bulk(ctx, table, body); err != nil {
		log.Printf("bulk: ingest failed for table=%s: %v", table, err)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// handleJSON ingests a JSON value or array body.
func (s *Server) handleJSON(c *gin.Context) {
	table := c.Param("table")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("json: failed to read body for table=%s: %v", table, err)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	if err := s.ingest.JSON(ctx, table, body); err != nil {
		log.Printf("json: ingest failed for table=%s: %v", table, err)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// searchRequest is the body shape for /_search.
type searchRequest struct {
	Query     string `json:"query"`
	StartTime *int64 `json:"start_time"`
	EndTime   *int64 `json:"end_time"`
}

const (
	minTime = int64(-1) << 62
	maxTime = int64(1)<<62 - 1
)

// handleSearch parses and executes a search request, wrapping matching rows
// under { "hits": [...] }.
func (s *Server) handleSearch(c *gin.Context) {
	table := c.Param("table")

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("search: invalid request body for table=%s: %v", table, err)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	start, end := minTime, maxTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	hits, err := s.search.Search(ctx, table, search.Request{Query: req.Query, StartTime: start, EndTime: end})
	if err != nil {
		log.Printf("search: query failed for table=%s: %v", table, err)
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

// handleStatus is a trivial liveness probe.
func (s *Server) handleStatus(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
