// Package partition describes how time-series tables are laid out on
// storage. A Spec couples a contiguous date range with the ordered list of
// partition-key columns (year/month/day/hour or yearmonth) used to build
// hive-style directory paths.
//
// Date components are always zero-padded to fixed width (4-digit year,
// 2-digit month/day/hour) so lexicographic ordering of partition paths
// equals chronological ordering.
package partition

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/schema"
)

// Column is a partition-key column. The set is closed: writers match on it
// exhaustively when rendering paths.
type Column string

const (
	ColumnYear      Column = "year"
	ColumnMonth     Column = "month"
	ColumnDay       Column = "day"
	ColumnHour      Column = "hour"
	ColumnYearMonth Column = "yearmonth"
)

// Spec is an immutable description of a date range and its partition
// columns. It is created by the caller and consumed read-only by generators
// and writers; all methods operate on a value receiver.
type Spec struct {
	StartDate time.Time
	EndDate   time.Time
	Columns   []Column
}

// New creates a partition spec covering [start, end] with the given
// columns. Dates are truncated to UTC midnight.
func New(start, end time.Time, columns ...Column) (Spec, error) {
	s := Spec{
		StartDate: Day(start),
		EndDate:   Day(end),
		Columns:   columns,
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Validate checks the spec invariants: start <= end, at least one column,
// only known columns.
func (s Spec) Validate() error {
	if s.StartDate.After(s.EndDate) {
		return errors.Newf(errors.ErrorTypeConfig,
			"start_date %s must be <= end_date %s",
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
	}
	if len(s.Columns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "partition columns must not be empty")
	}
	for _, c := range s.Columns {
		switch c {
		case ColumnYear, ColumnMonth, ColumnDay, ColumnHour, ColumnYearMonth:
		default:
			return errors.Newf(errors.ErrorTypeConfig, "unsupported partition column %q", string(c))
		}
	}
	return nil
}

// Days returns every date in the range, inclusive.
func (s Spec) Days() []time.Time {
	var days []time.Time
	for d := s.StartDate; !d.After(s.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Fields returns the schema fields for the spec's partition value columns.
// Generators append these to a table's base schema so partition values
// travel with every row.
func (s Spec) Fields() []schema.Field {
	fields := make([]schema.Field, len(s.Columns))
	for i, c := range s.Columns {
		if c == ColumnYearMonth {
			fields[i] = schema.Field{Name: string(c), Type: schema.FieldTypeString}
		} else {
			fields[i] = schema.Field{Name: string(c), Type: schema.FieldTypeInt}
		}
	}
	return fields
}

// Value returns the partition value a row carries for the given column at
// time t: integers for year/month/day/hour, "YYYY-MM" for yearmonth.
func Value(c Column, t time.Time) interface{} {
	switch c {
	case ColumnYear:
		return int64(t.Year())
	case ColumnMonth:
		return int64(t.Month())
	case ColumnDay:
		return int64(t.Day())
	case ColumnHour:
		return int64(t.Hour())
	case ColumnYearMonth:
		return t.Format("2006-01")
	default:
		return nil
	}
}

// SetValues assigns all partition value columns on a record for time t.
func (s Spec) SetValues(rec *models.Record, t time.Time) {
	for _, c := range s.Columns {
		rec.Set(string(c), Value(c, t))
	}
}

// Path renders the partition directory path for time t, e.g.
// "year=2024/month=03/day=05".
func (s Spec) Path(t time.Time) string {
	path := ""
	for i, c := range s.Columns {
		if i > 0 {
			path += "/"
		}
		path += renderPart(c, Value(c, t))
	}
	return path
}

// RecordPath renders the partition directory path from the partition value
// columns carried by the record. The rendered path doubles as the grouping
// key: equal paths mean the same partition.
func (s Spec) RecordPath(rec *models.Record) (string, error) {
	path := ""
	for i, c := range s.Columns {
		v, ok := rec.Get(string(c))
		if !ok {
			return "", errors.Newf(errors.ErrorTypeSchema,
				"record missing partition column %q", string(c))
		}
		if i > 0 {
			path += "/"
		}
		path += renderPart(c, v)
	}
	return path, nil
}

func renderPart(c Column, v interface{}) string {
	switch val := v.(type) {
	case int64:
		return renderInt(c, val)
	case int:
		return renderInt(c, int64(val))
	case string:
		return fmt.Sprintf("%s=%s", c, val)
	default:
		return fmt.Sprintf("%s=%v", c, v)
	}
}

func renderInt(c Column, v int64) string {
	if c == ColumnYear {
		return fmt.Sprintf("%s=%04d", c, v)
	}
	return fmt.Sprintf("%s=%02d", c, v)
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
