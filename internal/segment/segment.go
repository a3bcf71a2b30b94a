// Package segment serializes record batches to and from the Parquet-framed
// on-disk format segments are stored in.
package segment

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"melt/internal/storage/block"
)

// Write serializes rec to path through storage, Snappy-compressed with
// dictionary encoding disabled and one row group holding the whole batch.
func Write(ctx context.Context, storage block.Storage, path string, rec arrow.Record) error {
	out, err := storage.Writer(ctx, path)
	if err != nil {
		return fmt.Errorf("open segment for write: %w", err)
	}
	defer out.Close()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(false),
		parquet.WithMaxRowGroupLength(rec.NumRows()),
	)

	pqWriter, err := pqarrow.NewFileWriter(rec.Schema(), out, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	defer pqWriter.Close()

	if err := pqWriter.Write(rec); err != nil {
		return fmt.Errorf("write record batch: %w", err)
	}
	return pqWriter.Close()
}

// Read reads every row group of the segment at path back into a single
// Arrow record batch.
func Read(ctx context.Context, storage block.Storage, path string) (arrow.Record, error) {
	in, err := storage.Reader(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open segment for read: %w", err)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read segment bytes: %w", err)
	}

	pqFile, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer pqFile.Close()

	pqReader, err := pqarrow.NewFileReader(pqFile, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}

	table, err := pqReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	defer table.Release()

	return tableToRecord(table)
}

// tableToRecord pulls the table's single chunk out as a record batch.
// Segments are written with exactly one row group per batch (§4.5), so a
// freshly read table always has exactly one chunk; NumRows()==0 is the only
// case with zero chunks, handled by returning an empty batch.
func tableToRecord(table arrow.Table) (arrow.Record, error) {
	if table.NumRows() == 0 {
		cols := make([]arrow.Array, len(table.Schema().Fields()))
		for i, f := range table.Schema().Fields() {
			b := array.NewBuilder(memory.DefaultAllocator, f.Type)
			cols[i] = b.NewArray()
			b.Release()
		}
		return array.NewRecord(table.Schema(), cols, 0), nil
	}

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()
	if !tr.Next() {
		return nil, fmt.Errorf("empty table chunk")
	}
	rec := tr.Record()
	rec.Retain()
	return rec, nil
}
