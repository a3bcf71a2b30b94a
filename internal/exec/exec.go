// Package exec evaluates a parsed query, conjoined with catalog time bounds,
// against segment files, registering and deregistering each segment under
// table alias "t" for the duration of its own evaluation.
package exec

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"

	"melt/internal/catalog"
	"melt/internal/query"
	"melt/internal/segment"
	"melt/internal/storage/block"
)

// TimestampField is the reserved column every ingested record carries.
const TimestampField = "timestamp"

// aliasRegistry models the scoped table-alias lifecycle the original
// DataFusion-backed executor had: a segment is registered under alias "t"
// before its predicate is evaluated and always deregistered afterward, even
// if evaluation failed. There is no shared session to register against in a
// pure-Go evaluator, so this is a no-op bookkeeping shim kept to preserve
// that lifecycle shape for anything (tests, future backends) that inspects
// it mid-execution.
type aliasRegistry struct {
	active string
}

func (r *aliasRegistry) register(name string) { r.active = name }
func (r *aliasRegistry) deregister()          { r.active = "" }

// Search executes expr (already parsed) against every descriptor in
// descriptors, conjoined with [startTime, endTime] on the timestamp column,
// concatenating matching rows in descriptor order.
func Search(ctx context.Context, storage block.Storage, descriptors []catalog.Descriptor, expr query.Expr, startTime, endTime int64) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	reg := &aliasRegistry{}

	for _, d := range descriptors {
		reg.register("t")
		matched, err := searchOne(ctx, storage, d, expr, startTime, endTime)
		reg.deregister()
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", d.SegmentPath(), err)
		}
		rows = append(rows, matched...)
	}
	return rows, nil
}

func searchOne(ctx context.Context, storage block.Storage, d catalog.Descriptor, expr query.Expr, startTime, endTime int64) ([]map[string]interface{}, error) {
	rec, err := segment.Read(ctx, storage, d.SegmentPath())
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var rows []map[string]interface{}
	for i := 0; i < int(rec.NumRows()); i++ {
		ts, ok := int64Column(rec, TimestampField, i)
		if ok && (ts < startTime || ts > endTime) {
			continue
		}
		if expr != nil {
			matched, err := eval(expr, rec, i)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
		}
		rows = append(rows, rowToMap(rec, i))
	}
	return rows, nil
}

func rowToMap(rec arrow.Record, row int) map[string]interface{} {
	m := make(map[string]interface{}, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		col := rec.Column(i)
		if col.IsNull(row) {
			m[f.Name] = nil
			continue
		}
		switch a := col.(type) {
		case *array.Boolean:
			m[f.Name] = a.Value(row)
		case *array.Int64:
			m[f.Name] = a.Value(row)
		case *array.Float64:
			m[f.Name] = a.Value(row)
		case *array.String:
			m[f.Name] = a.Value(row)
		}
	}
	return m
}

func int64Column(rec arrow.Record, name string, row int) (int64, bool) {
	for i, f := range rec.Schema().Fields() {
		if f.Name != name {
			continue
		}
		col, ok := rec.Column(i).(*array.Int64)
		if !ok || col.IsNull(row) {
			return 0, false
		}
		return col.Value(row), true
	}
	return 0, false
}
