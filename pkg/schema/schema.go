// Package schema declares the column layout of every logical table a
// generator can produce and validates generated batches against it. A batch
// whose columns or value types do not match the declared schema aborts the
// run: it indicates a generator bug, not a transient condition.
package schema

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
)

// FieldType is the semantic type of a column.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInt      FieldType = "int"
	FieldTypeFloat    FieldType = "float"
	FieldTypeBool     FieldType = "bool"
	FieldTypeDate     FieldType = "date"
	FieldTypeDatetime FieldType = "datetime"
)

// Field is one column in a table schema.
type Field struct {
	Name     string    `yaml:"name" json:"name"`
	Type     FieldType `yaml:"type" json:"type"`
	Nullable bool      `yaml:"nullable" json:"nullable"`
}

// Schema describes every column a generator emits for one table. Field
// order is the column order used by writers.
type Schema struct {
	Name   string  `yaml:"name" json:"name"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// New creates a schema for the named table.
func New(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// Columns returns the column names in declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Field returns the named field, or false if the schema does not declare it.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// WithFields returns a copy of the schema with extra fields appended.
// Generators use this to attach partition value columns to a base schema.
func (s *Schema) WithFields(extra ...Field) *Schema {
	fields := make([]Field, 0, len(s.Fields)+len(extra))
	fields = append(fields, s.Fields...)
	fields = append(fields, extra...)
	return &Schema{Name: s.Name, Fields: fields}
}

// Validate checks every record of the batch against the schema: the column
// set must match exactly and each value must be assignable to the declared
// field type. The first violation is returned as a schema error.
func (s *Schema) Validate(batch *models.Batch) error {
	declared := make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		declared[f.Name] = f
	}

	for i, rec := range batch.Records {
		if len(rec.Data) != len(declared) {
			for col := range rec.Data {
				if _, ok := declared[col]; !ok {
					return errors.Newf(errors.ErrorTypeSchema,
						"table %s row %d: column %q not declared in schema", s.Name, i, col)
				}
			}
			for col := range declared {
				if _, ok := rec.Data[col]; !ok {
					return errors.Newf(errors.ErrorTypeSchema,
						"table %s row %d: declared column %q missing", s.Name, i, col)
				}
			}
		}
		for col, f := range declared {
			v, ok := rec.Data[col]
			if !ok {
				return errors.Newf(errors.ErrorTypeSchema,
					"table %s row %d: declared column %q missing", s.Name, i, col)
			}
			if v == nil {
				if f.Nullable {
					continue
				}
				return errors.Newf(errors.ErrorTypeSchema,
					"table %s row %d: column %q is nil but not nullable", s.Name, i, col)
			}
			if err := checkType(v, f.Type); err != nil {
				return errors.Newf(errors.ErrorTypeSchema,
					"table %s row %d column %q: %v", s.Name, i, col, err)
			}
		}
	}
	return nil
}

func checkType(v interface{}, t FieldType) error {
	switch t {
	case FieldTypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
	case FieldTypeInt:
		switch v.(type) {
		case int, int8, int16, int32, int64:
		default:
			return fmt.Errorf("expected integer, got %T", v)
		}
	case FieldTypeFloat:
		switch v.(type) {
		case float32, float64:
		default:
			return fmt.Errorf("expected float, got %T", v)
		}
	case FieldTypeBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
	case FieldTypeDate, FieldTypeDatetime:
		if _, ok := v.(time.Time); !ok {
			return fmt.Errorf("expected time.Time, got %T", v)
		}
	default:
		return fmt.Errorf("unknown field type %q", t)
	}
	return nil
}
