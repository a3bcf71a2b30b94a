package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melt/internal/catalog"
	"melt/internal/common"
	"melt/internal/exec"
	"melt/internal/query"
	"melt/internal/storage/block"
)

func newIngestService(t *testing.T) (*Service, *catalog.Catalog, block.Storage) {
	t.Helper()
	storage, err := block.NewLocalFS(block.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	cat := catalog.New()
	return New(storage, cat), cat, storage
}

func TestIngestBatchStampsMissingTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, cat, storage := newIngestService(t)

	before := time.Now().UnixMicro()
	records := []map[string]interface{}{{"a": float64(1)}}
	require.NoError(t, svc.IngestBatch(ctx, "t", records))
	after := time.Now().UnixMicro()

	descriptors := cat.Query("t", 0, after+1)
	require.Len(t, descriptors, 1)
	assert.GreaterOrEqual(t, descriptors[0].MinTime, before)
	assert.LessOrEqual(t, descriptors[0].MaxTime, after)

	rows, err := exec.Search(ctx, storage, descriptors, nil, 0, after+1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], TimestampField)
}

func TestIngestBatchNormalizesFloatTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, cat, storage := newIngestService(t)

	records := []map[string]interface{}{{"timestamp": float64(1700000000), "a": float64(1)}}
	require.NoError(t, svc.IngestBatch(ctx, "t", records))

	descriptors := cat.Query("t", 0, 1<<62)
	require.Len(t, descriptors, 1)

	rows, err := exec.Search(ctx, storage, descriptors, nil, 0, 1<<62)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1700000000000000, rows[0][TimestampField])
}

func TestIngestBatchNormalizesStringTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := newIngestService(t)

	records := []map[string]interface{}{{"timestamp": "2024-03-15T09:45:00Z", "a": float64(1)}}
	require.NoError(t, svc.IngestBatch(ctx, "t", records))

	descriptors := cat.Query("t", 0, 1<<62)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "2024-03-15-09", descriptors[0].Partition)
}

func TestIngestBatchUnsupportedTimestampTypeFails(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newIngestService(t)

	records := []map[string]interface{}{{"timestamp": true}}
	err := svc.IngestBatch(ctx, "t", records)
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrBadInput))
}

func TestIngestBatchBucketsByPartition(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := newIngestService(t)

	records := []map[string]interface{}{
		{"timestamp": "2024-01-01T00:30:00Z", "a": float64(1)},
		{"timestamp": "2024-01-01T01:30:00Z", "a": float64(2)},
	}
	require.NoError(t, svc.IngestBatch(ctx, "t", records))

	descriptors := cat.Query("t", 0, 1<<62)
	partitions := map[string]bool{}
	for _, d := range descriptors {
		partitions[d.Partition] = true
	}
	assert.True(t, partitions["2024-01-01-00"])
	assert.True(t, partitions["2024-01-01-01"])
}

func TestBulkParsesNewlineDelimitedJSON(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := newIngestService(t)

	body := []byte("{\"a\":1}\n{\"a\":2}\n")
	require.NoError(t, svc.Bulk(ctx, "t", body))

	descriptors := cat.Query("t", 0, 1<<62)
	require.Len(t, descriptors, 1)
}

func TestBulkInvalidBodyReturnsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newIngestService(t)

	err := svc.Bulk(ctx, "t", []byte("not json"))
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrBadInput))
}

func TestJSONParsesArrayBody(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := newIngestService(t)

	body := []byte(`[{"a":1},{"a":2},{"a":3}]`)
	require.NoError(t, svc.JSON(ctx, "t", body))

	descriptors := cat.Query("t", 0, 1<<62)
	require.Len(t, descriptors, 1)

	storage := svc.storage
	rows, err := exec.Search(ctx, storage, descriptors, nil, 0, 1<<62)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestJSONParsesObjectBody(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := newIngestService(t)

	body := []byte(`{"a":1}`)
	require.NoError(t, svc.JSON(ctx, "t", body))

	descriptors := cat.Query("t", 0, 1<<62)
	require.Len(t, descriptors, 1)
}

// TestIngestPartialFailureAbortsRemainingPartitions covers the "a failure on
// one bucket aborts the remaining buckets; buckets already written are not
// rolled back" semantics: the earlier partition (sorted first) commits even
// though the later partition's schema inference fails.
func TestIngestPartialFailureAbortsRemainingPartitions(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := newIngestService(t)

	records := []map[string]interface{}{
		{"timestamp": "2024-01-01T00:00:00Z", "a": float64(1)},
		{"timestamp": "2024-01-02T00:00:00Z", "a": map[string]interface{}{"nested": true}},
	}
	err := svc.IngestBatch(ctx, "t", records)
	require.Error(t, err)

	descriptors := cat.Query("t", 0, 1<<62)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "2024-01-01-00", descriptors[0].Partition)
}

func TestIngestThenSearchWithQuery(t *testing.T) {
	ctx := context.Background()
	svc, cat, storage := newIngestService(t)

	records := []map[string]interface{}{
		{"a": float64(1)},
		{"a": float64(2)},
	}
	require.NoError(t, svc.IngestBatch(ctx, "t", records))

	descriptors := cat.Query("t", 0, 1<<62)
	expr, err := query.Parse("a==2")
	require.NoError(t, err)

	rows, err := exec.Search(ctx, storage, descriptors, expr, 0, 1<<62)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0]["a"])
}
