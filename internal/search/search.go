// Package search implements the query service: parsing a boolean predicate
// string, pruning the catalog to the segments a time range could intersect,
// and executing the predicate against those segments.
package search

import (
	"context"

	"melt/internal/catalog"
	"melt/internal/common"
	"melt/internal/exec"
	"melt/internal/query"
	"melt/internal/storage/block"
)

// Request is a parsed, bounds-checked search request.
type Request struct {
	Query     string
	StartTime int64 // microseconds since epoch, inclusive
	EndTime   int64 // microseconds since epoch, inclusive
}

// Service executes search requests against a catalog and storage backend.
type Service struct {
	storage block.Storage
	catalog *catalog.Catalog
}

// New builds a search service.
func New(storage block.Storage, cat *catalog.Catalog) *Service {
	return &Service{storage: storage, catalog: cat}
}

// Search parses req.Query (if non-empty), prunes table's catalog entries to
// those whose time range intersects [req.StartTime, req.EndTime], and
// returns every row across those segments that matches. An empty query
// string matches every row in the time range.
func (s *Service) Search(ctx context.Context, table string, req Request) ([]map[string]interface{}, error) {
	var expr query.Expr
	if req.Query != "" {
		e, err := query.Parse(req.Query)
		if err != nil {
			return nil, common.ErrUnparseableQueryErrorWithCause("failed to parse query", err)
		}
		expr = e
	}

	descriptors := s.catalog.Query(table, req.StartTime, req.EndTime)

	rows, err := exec.Search(ctx, s.storage, descriptors, expr, req.StartTime, req.EndTime)
	if err != nil {
		return nil, common.ErrInternalErrorWithCause("failed to execute search", err)
	}

	hits := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		hits = append(hits, row)
	}
	return hits, nil
}
