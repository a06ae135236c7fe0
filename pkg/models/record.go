// Package models provides the in-memory data structures passed between
// generators and writers. A Record is one row keyed by column name; a Batch
// is one table's rows for a single generation step. Batches are created by a
// generator, validated and written, then discarded - they are never retained.
package models

import "time"

// Record is a single row. Values use the Go types matching the declared
// schema field types: string, int64, float64, bool, time.Time. A nil value
// represents a missing measurement for a nullable column.
type Record struct {
	Data map[string]interface{}
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{Data: make(map[string]interface{})}
}

// Set assigns a column value and returns the record for chaining.
func (r *Record) Set(column string, value interface{}) *Record {
	r.Data[column] = value
	return r
}

// Get returns a column value.
func (r *Record) Get(column string) (interface{}, bool) {
	v, ok := r.Data[column]
	return v, ok
}

// Int returns an integer column value, tolerating the common widths.
func (r *Record) Int(column string) (int64, bool) {
	switch v := r.Data[column].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	default:
		return 0, false
	}
}

// Time returns a date or datetime column value.
func (r *Record) Time(column string) (time.Time, bool) {
	v, ok := r.Data[column].(time.Time)
	return v, ok
}

// Batch is one unit of generated rows for one logical table.
type Batch struct {
	Table   string
	Records []*Record
}

// NewBatch creates a batch for the named table with the given capacity hint.
func NewBatch(table string, capacity int) *Batch {
	return &Batch{
		Table:   table,
		Records: make([]*Record, 0, capacity),
	}
}

// Append adds a record to the batch.
func (b *Batch) Append(r *Record) {
	b.Records = append(b.Records, r)
}

// Rows returns the number of rows in the batch.
func (b *Batch) Rows() int {
	return len(b.Records)
}
