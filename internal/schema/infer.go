package schema

import (
	"fmt"
	"sort"

	"github.com/apache/arrow/go/v14/arrow"
)

type kind int

const (
	kindBool kind = iota
	kindInt64
	kindFloat64
	kindUtf8
)

// Infer builds a schema from a slice of JSON records by unioning the
// observed value kind for each field name across all records, then
// collapsing each field's union to a single Arrow type. Null values
// contribute no kind (absorbed); a field with no non-null observation
// defaults to utf8. Arrays and nested objects are rejected.
func Infer(records []map[string]interface{}) (*Schema, error) {
	kinds := make(map[string]map[kind]bool)
	order := make([]string, 0)

	for _, rec := range records {
		for name, v := range rec {
			if v == nil {
				if _, ok := kinds[name]; !ok {
					kinds[name] = make(map[kind]bool)
					order = append(order, name)
				}
				continue
			}
			k, err := valueKind(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			if _, ok := kinds[name]; !ok {
				kinds[name] = make(map[kind]bool)
				order = append(order, name)
			}
			kinds[name][k] = true
		}
	}

	sort.Strings(order)
	fields := make([]arrow.Field, 0, len(order))
	for _, name := range order {
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     coerce(kinds[name]),
			Nullable: true,
		})
	}
	return &Schema{arrow: arrow.NewSchema(fields, nil)}, nil
}

// Merge unions several already-inferred schemas into one, using the same
// coercion rule as Infer.
func Merge(schemas []*Schema) (*Schema, error) {
	kinds := make(map[string]map[kind]bool)
	order := make([]string, 0)

	for _, s := range schemas {
		for _, f := range s.arrow.Fields() {
			if _, ok := kinds[f.Name]; !ok {
				kinds[f.Name] = make(map[kind]bool)
				order = append(order, f.Name)
			}
			k, err := typeKind(f.Type)
			if err != nil {
				return nil, err
			}
			kinds[f.Name][k] = true
		}
	}

	sort.Strings(order)
	fields := make([]arrow.Field, 0, len(order))
	for _, name := range order {
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     coerce(kinds[name]),
			Nullable: true,
		})
	}
	return &Schema{arrow: arrow.NewSchema(fields, nil)}, nil
}

func valueKind(v interface{}) (kind, error) {
	switch t := v.(type) {
	case bool:
		return kindBool, nil
	case float64:
		if t == float64(int64(t)) {
			return kindInt64, nil
		}
		return kindFloat64, nil
	case int64:
		return kindInt64, nil
	case int:
		return kindInt64, nil
	case string:
		return kindUtf8, nil
	case map[string]interface{}, []interface{}:
		return 0, fmt.Errorf("arrays and nested objects are not supported")
	default:
		return kindUtf8, nil
	}
}

func typeKind(t arrow.DataType) (kind, error) {
	switch t.ID() {
	case arrow.BOOL:
		return kindBool, nil
	case arrow.INT64:
		return kindInt64, nil
	case arrow.FLOAT64:
		return kindFloat64, nil
	case arrow.STRING:
		return kindUtf8, nil
	default:
		return 0, fmt.Errorf("unsupported arrow type %s", t)
	}
}

// coerce collapses a set of observed kinds to a single Arrow type:
// bool-only stays bool; int64/float64-only stays int64 (or float64 if any
// member is float64); any other mix, or an empty set, becomes utf8.
func coerce(kinds map[kind]bool) arrow.DataType {
	if len(kinds) == 0 {
		return arrow.BinaryTypes.String
	}
	if len(kinds) == 1 {
		if kinds[kindBool] {
			return arrow.FixedWidthTypes.Boolean
		}
		if kinds[kindInt64] {
			return arrow.PrimitiveTypes.Int64
		}
		if kinds[kindFloat64] {
			return arrow.PrimitiveTypes.Float64
		}
		return arrow.BinaryTypes.String
	}
	numericOnly := true
	for k := range kinds {
		if k != kindInt64 && k != kindFloat64 {
			numericOnly = false
			break
		}
	}
	if numericOnly {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}
