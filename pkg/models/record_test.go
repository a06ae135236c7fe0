package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordAccessors(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	r := NewRecord().
		Set("id", int64(7)).
		Set("count", 3).
		Set("small", int32(2)).
		Set("name", "alice").
		Set("day", day).
		Set("score", nil)

	t.Run("get", func(t *testing.T) {
		v, ok := r.Get("name")
		assert.True(t, ok)
		assert.Equal(t, "alice", v)

		v, ok = r.Get("score")
		assert.True(t, ok)
		assert.Nil(t, v)

		_, ok = r.Get("absent")
		assert.False(t, ok)
	})

	t.Run("int widths", func(t *testing.T) {
		for _, col := range []string{"id", "count", "small"} {
			_, ok := r.Int(col)
			assert.True(t, ok, col)
		}
		v, _ := r.Int("count")
		assert.Equal(t, int64(3), v)

		_, ok := r.Int("name")
		assert.False(t, ok)
		_, ok = r.Int("absent")
		assert.False(t, ok)
	})

	t.Run("time", func(t *testing.T) {
		v, ok := r.Time("day")
		assert.True(t, ok)
		assert.True(t, v.Equal(day))

		_, ok = r.Time("id")
		assert.False(t, ok)
	})
}

func TestBatch(t *testing.T) {
	b := NewBatch("orders", 4)
	assert.Equal(t, "orders", b.Table)
	assert.Equal(t, 0, b.Rows())

	b.Append(NewRecord().Set("order_id", int64(1)))
	b.Append(NewRecord().Set("order_id", int64(2)))
	assert.Equal(t, 2, b.Rows())
	id, _ := b.Records[1].Int("order_id")
	assert.Equal(t, int64(2), id)
}
