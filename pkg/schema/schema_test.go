package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
)

func testSchema() *Schema {
	return New("readings",
		Field{Name: "id", Type: FieldTypeInt},
		Field{Name: "name", Type: FieldTypeString},
		Field{Name: "score", Type: FieldTypeFloat},
		Field{Name: "active", Type: FieldTypeBool},
		Field{Name: "day", Type: FieldTypeDate},
		Field{Name: "value", Type: FieldTypeFloat, Nullable: true},
	)
}

func validRecord() *models.Record {
	return models.NewRecord().
		Set("id", int64(1)).
		Set("name", "a").
		Set("score", 0.5).
		Set("active", true).
		Set("day", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)).
		Set("value", 1.25)
}

func TestColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "name", "score", "active", "day", "value"},
		testSchema().Columns())
}

func TestWithFields(t *testing.T) {
	base := New("t", Field{Name: "a", Type: FieldTypeInt})
	extended := base.WithFields(Field{Name: "b", Type: FieldTypeString})

	assert.Len(t, base.Fields, 1)
	require.Len(t, extended.Fields, 2)
	assert.Equal(t, "b", extended.Fields[1].Name)
}

func TestValidate(t *testing.T) {
	sch := testSchema()

	t.Run("valid batch", func(t *testing.T) {
		batch := models.NewBatch("readings", 1)
		batch.Append(validRecord())
		assert.NoError(t, sch.Validate(batch))
	})

	t.Run("nullable column accepts nil", func(t *testing.T) {
		rec := validRecord().Set("value", nil)
		batch := models.NewBatch("readings", 1)
		batch.Append(rec)
		assert.NoError(t, sch.Validate(batch))
	})

	t.Run("nil on non-nullable column", func(t *testing.T) {
		rec := validRecord().Set("score", nil)
		batch := models.NewBatch("readings", 1)
		batch.Append(rec)
		err := sch.Validate(batch)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
	})

	t.Run("undeclared column", func(t *testing.T) {
		rec := validRecord().Set("extra", "x")
		batch := models.NewBatch("readings", 1)
		batch.Append(rec)
		err := sch.Validate(batch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extra")
	})

	t.Run("missing declared column", func(t *testing.T) {
		rec := validRecord()
		delete(rec.Data, "name")
		batch := models.NewBatch("readings", 1)
		batch.Append(rec)
		err := sch.Validate(batch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")
	})

	t.Run("type mismatch", func(t *testing.T) {
		rec := validRecord().Set("id", "not-an-int")
		batch := models.NewBatch("readings", 1)
		batch.Append(rec)
		err := sch.Validate(batch)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
	})

	t.Run("narrow int widths accepted", func(t *testing.T) {
		rec := validRecord().Set("id", int32(7))
		batch := models.NewBatch("readings", 1)
		batch.Append(rec)
		assert.NoError(t, sch.Validate(batch))
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.NoError(t, sch.Validate(models.NewBatch("readings", 0)))
	})
}
