// Package batch builds Arrow record batches out of JSON records against an
// already-inferred schema.
package batch

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
)

// Build constructs one record batch from records against schema, one typed
// builder per column. A row missing a field gets a null in that column. A
// utf8 column stores any other value as its formatted text, and an int64
// column truncates a float64 value to an integer; in a bool or float64
// column a value of another type becomes a null.
func Build(alloc memory.Allocator, arrowSchema *arrow.Schema, records []map[string]interface{}) (arrow.Record, error) {
	fields := arrowSchema.Fields()
	builders := make([]array.Builder, len(fields))
	for i, f := range fields {
		builders[i] = newBuilder(alloc, f.Type)
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, rec := range records {
		for i, f := range fields {
			appendValue(builders[i], f.Type, rec[f.Name])
		}
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	return array.NewRecord(arrowSchema, cols, int64(len(records))), nil
}

// MinMaxInt64 scans an int64 column and returns its minimum and maximum
// values. It panics if the column doesn't exist or isn't int64-typed — it is
// only ever called against the timestamp column of a batch this package
// itself built.
func MinMaxInt64(rec arrow.Record, columnName string) (min, max int64) {
	idx := -1
	for i, f := range rec.Schema().Fields() {
		if f.Name == columnName {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic(fmt.Sprintf("batch: column %q not found", columnName))
	}
	col, ok := rec.Column(idx).(*array.Int64)
	if !ok {
		panic(fmt.Sprintf("batch: column %q is not int64", columnName))
	}
	if col.Len() == 0 {
		return 0, 0
	}
	min, max = col.Value(0), col.Value(0)
	for i := 1; i < col.Len(); i++ {
		v := col.Value(i)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func newBuilder(alloc memory.Allocator, t arrow.DataType) array.Builder {
	switch t.ID() {
	case arrow.BOOL:
		return array.NewBooleanBuilder(alloc)
	case arrow.INT64:
		return array.NewInt64Builder(alloc)
	case arrow.FLOAT64:
		return array.NewFloat64Builder(alloc)
	case arrow.STRING:
		return array.NewStringBuilder(alloc)
	default:
		panic(fmt.Sprintf("batch: unsupported column type %s", t))
	}
}

func appendValue(b array.Builder, t arrow.DataType, v interface{}) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch t.ID() {
	case arrow.BOOL:
		if bv, ok := v.(bool); ok {
			b.(*array.BooleanBuilder).Append(bv)
			return
		}
	case arrow.INT64:
		switch iv := v.(type) {
		case float64:
			b.(*array.Int64Builder).Append(int64(iv))
			return
		case int64:
			b.(*array.Int64Builder).Append(iv)
			return
		case int:
			b.(*array.Int64Builder).Append(int64(iv))
			return
		}
	case arrow.FLOAT64:
		if fv, ok := v.(float64); ok {
			b.(*array.Float64Builder).Append(fv)
			return
		}
	case arrow.STRING:
		switch sv := v.(type) {
		case string:
			b.(*array.StringBuilder).Append(sv)
			return
		default:
			b.(*array.StringBuilder).Append(fmt.Sprintf("%v", sv))
			return
		}
	}
	b.AppendNull()
}
