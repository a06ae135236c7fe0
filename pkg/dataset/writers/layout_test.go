package writers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
)

func ymdSpec(t *testing.T) *partition.Spec {
	t.Helper()
	spec, err := partition.New(
		partition.Date(2024, time.March, 1), partition.Date(2024, time.March, 31),
		partition.ColumnYear, partition.ColumnMonth, partition.ColumnDay)
	require.NoError(t, err)
	return &spec
}

func recordAt(spec *partition.Spec, day time.Time, id int64) *models.Record {
	rec := models.NewRecord().Set("id", id)
	spec.SetValues(rec, day)
	return rec
}

func TestGroupByPartition(t *testing.T) {
	spec := ymdSpec(t)
	day1 := partition.Date(2024, time.March, 5)
	day2 := partition.Date(2024, time.March, 6)

	batch := models.NewBatch("t", 5)
	batch.Append(recordAt(spec, day1, 1))
	batch.Append(recordAt(spec, day2, 2))
	batch.Append(recordAt(spec, day1, 3))
	batch.Append(recordAt(spec, day2, 4))
	batch.Append(recordAt(spec, day1, 5))

	groups, err := groupByPartition(spec, batch)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// First-seen order is preserved.
	assert.Equal(t, "year=2024/month=03/day=05", groups[0].Path)
	assert.Equal(t, "year=2024/month=03/day=06", groups[1].Path)
	assert.Len(t, groups[0].Rows, 3)
	assert.Len(t, groups[1].Rows, 2)

	// Row order within a group is preserved.
	id, _ := groups[0].Rows[2].Int("id")
	assert.Equal(t, int64(5), id)

	t.Run("missing partition column fails", func(t *testing.T) {
		bad := models.NewBatch("t", 1)
		bad.Append(models.NewRecord().Set("id", int64(1)))
		_, err := groupByPartition(spec, bad)
		assert.Error(t, err)
	})
}

func TestSplitRows(t *testing.T) {
	rows := make([]*models.Record, 7)
	for i := range rows {
		rows[i] = models.NewRecord().Set("id", int64(i))
	}

	t.Run("chunks at target", func(t *testing.T) {
		chunks := splitRows(rows, 3)
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], 3)
		assert.Len(t, chunks[1], 3)
		assert.Len(t, chunks[2], 1)
	})

	t.Run("no empty trailing chunk on exact multiple", func(t *testing.T) {
		chunks := splitRows(rows[:6], 3)
		require.Len(t, chunks, 2)
		assert.Len(t, chunks[1], 3)
	})

	t.Run("single chunk when under target", func(t *testing.T) {
		chunks := splitRows(rows, 100)
		require.Len(t, chunks, 1)
		assert.Len(t, chunks[0], 7)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, splitRows(nil, 3))
	})
}

func TestPartCounters(t *testing.T) {
	c := newPartCounters()

	assert.Equal(t, 0, c.Next("orders", "year=2024/month=03"))
	assert.Equal(t, 1, c.Next("orders", "year=2024/month=03"))
	// Counters are independent per path and per table.
	assert.Equal(t, 0, c.Next("orders", "year=2024/month=04"))
	assert.Equal(t, 0, c.Next("order_items", "year=2024/month=03"))
	assert.Equal(t, 2, c.Next("orders", "year=2024/month=03"))
}
