package segment

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melt/internal/storage/block"
)

func newTestStorage(t *testing.T) block.Storage {
	t.Helper()
	s, err := block.NewLocalFS(block.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func buildRecord(t *testing.T, values []int64) arrow.Record {
	t.Helper()
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(values, nil)
	col := b.NewArray()
	defer col.Release()
	return array.NewRecord(sch, []arrow.Array{col}, int64(len(values)))
}

func TestWriteReadRoundtrip(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	rec := buildRecord(t, []int64{10, 20, 30})
	defer rec.Release()

	require.NoError(t, Write(ctx, storage, "t/p/seg1.parquet", rec))

	got, err := Read(ctx, storage, "t/p/seg1.parquet")
	require.NoError(t, err)
	defer got.Release()

	require.Equal(t, int64(3), got.NumRows())
	col := got.Column(0).(*array.Int64)
	assert.Equal(t, int64(10), col.Value(0))
	assert.Equal(t, int64(20), col.Value(1))
	assert.Equal(t, int64(30), col.Value(2))
}

func TestWriteReadEmptyBatch(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	rec := buildRecord(t, nil)
	defer rec.Release()

	require.NoError(t, Write(ctx, storage, "t/p/empty.parquet", rec))

	got, err := Read(ctx, storage, "t/p/empty.parquet")
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, int64(0), got.NumRows())
}
