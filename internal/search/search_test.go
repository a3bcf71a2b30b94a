package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melt/internal/catalog"
	"melt/internal/common"
	"melt/internal/ingest"
	"melt/internal/storage/block"
)

func newSearchFixture(t *testing.T) (*ingest.Service, *Service) {
	t.Helper()
	storage, err := block.NewLocalFS(block.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	cat := catalog.New()
	return ingest.New(storage, cat), New(storage, cat)
}

func TestSearchEmptyQueryMatchesEverythingInRange(t *testing.T) {
	ctx := context.Background()
	ingestSvc, searchSvc := newSearchFixture(t)

	require.NoError(t, ingestSvc.IngestBatch(ctx, "t", []map[string]interface{}{
		{"a": float64(1)},
		{"a": float64(2)},
	}))

	hits, err := searchSvc.Search(ctx, "t", Request{StartTime: 0, EndTime: 1 << 62})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchFiltersByPredicate(t *testing.T) {
	ctx := context.Background()
	ingestSvc, searchSvc := newSearchFixture(t)

	require.NoError(t, ingestSvc.IngestBatch(ctx, "t", []map[string]interface{}{
		{"a": float64(1)},
		{"a": float64(2)},
	}))

	hits, err := searchSvc.Search(ctx, "t", Request{Query: "a==2", StartTime: 0, EndTime: 1 << 62})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.EqualValues(t, 2, hits[0]["a"])
}

func TestSearchUnparseableQueryWrapsError(t *testing.T) {
	ctx := context.Background()
	_, searchSvc := newSearchFixture(t)

	_, err := searchSvc.Search(ctx, "t", Request{Query: "a== and", StartTime: 0, EndTime: 1 << 62})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrUnparseableQuery))
}

func TestSearchUnknownTableReturnsNoHits(t *testing.T) {
	ctx := context.Background()
	_, searchSvc := newSearchFixture(t)

	hits, err := searchSvc.Search(ctx, "missing", Request{StartTime: 0, EndTime: 1 << 62})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchRespectsTimeBounds(t *testing.T) {
	ctx := context.Background()
	ingestSvc, searchSvc := newSearchFixture(t)

	require.NoError(t, ingestSvc.IngestBatch(ctx, "t", []map[string]interface{}{
		{"timestamp": float64(1000), "a": float64(1)},
	}))

	hits, err := searchSvc.Search(ctx, "t", Request{StartTime: 2000, EndTime: 3000})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
