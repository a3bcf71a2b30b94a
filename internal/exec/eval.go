package exec

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"

	"melt/internal/query"
)

// eval evaluates expr against row of rec. A comparison against a field the
// schema doesn't have, or a null cell, is false (not an error) — the same
// way a row missing a column simply fails to match rather than aborting the
// whole search.
func eval(expr query.Expr, rec arrow.Record, row int) (bool, error) {
	switch e := expr.(type) {
	case query.And:
		left, err := eval(e.Left, rec, row)
		if err != nil {
			return false, err
		}
		if !left {
			return false, nil
		}
		return eval(e.Right, rec, row)
	case query.Or:
		left, err := eval(e.Left, rec, row)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return eval(e.Right, rec, row)
	case query.Comparison:
		return evalComparison(e, rec, row)
	default:
		return false, fmt.Errorf("unknown expression node %T", expr)
	}
}

func evalComparison(c query.Comparison, rec arrow.Record, row int) (bool, error) {
	idx := -1
	for i, f := range rec.Schema().Fields() {
		if f.Name == c.Field {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}
	col := rec.Column(idx)
	if col.IsNull(row) {
		return false, nil
	}

	switch a := col.(type) {
	case *array.String:
		return compareString(c.Operator, a.Value(row), c.Value.String), nil
	case *array.Int64:
		return compareFloat(c.Operator, float64(a.Value(row)), c.Value.Number), nil
	case *array.Float64:
		return compareFloat(c.Operator, a.Value(row), c.Value.Number), nil
	case *array.Boolean:
		want := c.Value.String == "true"
		return compareBool(c.Operator, a.Value(row), want), nil
	default:
		return false, nil
	}
}

func compareString(op query.Operator, got, want string) bool {
	switch op {
	case query.OpEqual:
		return got == want
	case query.OpNotEqual:
		return got != want
	case query.OpMatch:
		return strings.Contains(got, want)
	case query.OpGreater:
		return got > want
	case query.OpGreaterOrEqual:
		return got >= want
	case query.OpLess:
		return got < want
	case query.OpLessOrEqual:
		return got <= want
	default:
		return false
	}
}

func compareFloat(op query.Operator, got, want float64) bool {
	switch op {
	case query.OpEqual:
		return got == want
	case query.OpNotEqual:
		return got != want
	case query.OpMatch:
		return got == want
	case query.OpGreater:
		return got > want
	case query.OpGreaterOrEqual:
		return got >= want
	case query.OpLess:
		return got < want
	case query.OpLessOrEqual:
		return got <= want
	default:
		return false
	}
}

func compareBool(op query.Operator, got, want bool) bool {
	switch op {
	case query.OpEqual:
		return got == want
	case query.OpNotEqual:
		return got != want
	default:
		return false
	}
}
