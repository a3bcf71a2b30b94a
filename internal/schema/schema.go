// Package schema infers and merges column schemas from JSON records and
// wraps the resulting Arrow schema for (de)serialization to the on-disk
// ".schema" sidecar file.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
)

// Schema wraps an Arrow schema, delegating field access to it while adding
// the JSON (de)serialization this engine's sidecar files need.
type Schema struct {
	arrow *arrow.Schema
}

// New wraps an existing Arrow schema.
func New(s *arrow.Schema) *Schema {
	return &Schema{arrow: s}
}

// Arrow returns the underlying Arrow schema.
func (s *Schema) Arrow() *arrow.Schema {
	return s.arrow
}

// FieldNames returns the schema's column names in declaration order.
func (s *Schema) FieldNames() []string {
	fields := s.arrow.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

type jsonField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type jsonSchema struct {
	Fields []jsonField `json:"fields"`
}

// Serialize encodes the schema as JSON, the format written to "<segment>.schema".
func (s *Schema) Serialize() ([]byte, error) {
	out := jsonSchema{}
	for _, f := range s.arrow.Fields() {
		typeName, err := typeToName(f.Type)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, jsonField{Name: f.Name, Type: typeName, Nullable: f.Nullable})
	}
	return json.Marshal(out)
}

// Deserialize parses a schema previously written by Serialize.
func Deserialize(data []byte) (*Schema, error) {
	var in jsonSchema
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse schema json: %w", err)
	}
	fields := make([]arrow.Field, 0, len(in.Fields))
	for _, f := range in.Fields {
		dt, err := nameToType(f.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: f.Name, Type: dt, Nullable: f.Nullable})
	}
	return &Schema{arrow: arrow.NewSchema(fields, nil)}, nil
}

func typeToName(t arrow.DataType) (string, error) {
	switch t.ID() {
	case arrow.BOOL:
		return "bool", nil
	case arrow.INT64:
		return "int64", nil
	case arrow.FLOAT64:
		return "float64", nil
	case arrow.STRING:
		return "utf8", nil
	default:
		return "", fmt.Errorf("unsupported arrow type %s", t)
	}
}

func nameToType(name string) (arrow.DataType, error) {
	switch name {
	case "bool":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int64":
		return arrow.PrimitiveTypes.Int64, nil
	case "float64":
		return arrow.PrimitiveTypes.Float64, nil
	case "utf8":
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("unsupported schema field type %q", name)
	}
}
