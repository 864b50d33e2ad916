// Package schema declares the shape of every supported GTFS table and
// implements the generic row validator that turns raw CSV cells into
// typed values.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tfitracker-data/internal/common/logger"
)

// Kind is the scalar type of a field.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
)

// Field is one column of a table spec.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Table is the declared shape of one GTFS file.
type Table struct {
	Name   string
	Fields []Field
}

func (t *Table) field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ParseError is a schema-level failure: a malformed value, a missing
// required field, or (in strict mode) an unknown file or field.
type ParseError struct {
	File  string
	Row   int
	Field string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s/%d %s: %s", e.File, e.Row, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s/%d: %s", e.File, e.Row, e.Msg)
}

// Value is one typed cell. Present is false when the raw cell was empty or
// the field was absent from the file; handlers check it instead of a map hit.
type Value struct {
	Kind    Kind
	Present bool
	Str     string
	Int     int
	Float   float64
	Bool    bool
}

// Row is a validated row. Every field of the table spec has an entry,
// absent ones carry a non-Present Value.
type Row map[string]Value

func (r Row) Has(name string) bool      { return r[name].Present }
func (r Row) Str(name string) string    { return r[name].Str }
func (r Row) Int(name string) int       { return r[name].Int }
func (r Row) Float(name string) float64 { return r[name].Float }
func (r Row) Bool(name string) bool     { return r[name].Bool }

// Validator applies table specs to raw rows.
type Validator struct {
	log logger.Logger
}

func NewValidator(log logger.Logger) *Validator {
	return &Validator{log: log}
}

// ValidateRow types one raw row against the table spec. Empty cells
// normalize to absence; booleans accept only "0"/"1"; unknown fields are
// passed through as optional strings in lenient mode or rejected in strict
// mode, with the diagnostic emitted on the first row only.
func (v *Validator) ValidateRow(
	table *Table, rowIndex int, raw map[string]string, allowUnknownField bool,
) (Row, error) {
	row := Row{}
	for name, rawValue := range raw {
		clean := strings.TrimSpace(rawValue)
		spec, known := table.field(name)
		if !known {
			if rowIndex == 0 {
				msg := fmt.Sprintf("extra field %q", name)
				if !allowUnknownField {
					return nil, &ParseError{File: table.Name, Row: rowIndex, Field: name, Msg: msg}
				}
				v.log.Warn("Extra fields found", "file", table.Name, "field", name)
			}
			row[name] = Value{Kind: String, Present: clean != "", Str: clean}
			continue
		}
		if clean == "" {
			if spec.Required {
				return nil, &ParseError{
					File: table.Name, Row: rowIndex, Field: name, Msg: "empty required field",
				}
			}
			row[name] = Value{Kind: spec.Kind}
			continue
		}
		value, err := coerce(spec.Kind, clean)
		if err != nil {
			return nil, &ParseError{File: table.Name, Row: rowIndex, Field: name, Msg: err.Error()}
		}
		row[name] = value
	}
	// required fields absent from the file entirely
	for _, f := range table.Fields {
		if _, seen := row[f.Name]; seen {
			continue
		}
		if f.Required {
			return nil, &ParseError{
				File: table.Name, Row: rowIndex, Field: f.Name, Msg: "missing required field",
			}
		}
		row[f.Name] = Value{Kind: f.Kind}
	}
	return row, nil
}

func coerce(kind Kind, clean string) (Value, error) {
	switch kind {
	case String:
		return Value{Kind: String, Present: true, Str: clean}, nil
	case Bool:
		switch clean {
		case "0":
			return Value{Kind: Bool, Present: true}, nil
		case "1":
			return Value{Kind: Bool, Present: true, Bool: true}, nil
		default:
			return Value{}, fmt.Errorf("invalid bool value %q", clean)
		}
	case Int:
		n, err := strconv.Atoi(clean)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int value %q", clean)
		}
		return Value{Kind: Int, Present: true, Int: n}, nil
	case Float:
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float value %q", clean)
		}
		return Value{Kind: Float, Present: true, Float: f}, nil
	default:
		return Value{}, fmt.Errorf("invalid field kind %d", kind)
	}
}
