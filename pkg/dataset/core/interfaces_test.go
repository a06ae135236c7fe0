package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
)

func TestProduce(t *testing.T) {
	t.Run("delivers batches in order and closes", func(t *testing.T) {
		stream := Produce(context.Background(), func(ctx context.Context, emit func(*models.Batch) error) error {
			for i := 0; i < 3; i++ {
				if err := emit(models.NewBatch("t", 0)); err != nil {
					return err
				}
			}
			return nil
		})

		count := 0
		for range stream.Batches {
			count++
		}
		assert.Equal(t, 3, count)
		assert.NoError(t, <-stream.Errors)
	})

	t.Run("producer error reaches the error channel", func(t *testing.T) {
		boom := errors.New(errors.ErrorTypeInternal, "producer bug")
		stream := Produce(context.Background(), func(ctx context.Context, emit func(*models.Batch) error) error {
			if err := emit(models.NewBatch("t", 0)); err != nil {
				return err
			}
			return boom
		})

		for range stream.Batches {
		}
		assert.Equal(t, boom, <-stream.Errors)
	})

	t.Run("cancellation unblocks the producer", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		stream := Produce(ctx, func(ctx context.Context, emit func(*models.Batch) error) error {
			for {
				if err := emit(models.NewBatch("t", 0)); err != nil {
					return err
				}
			}
		})

		// Drain one batch, then cancel and drain the rest.
		<-stream.Batches
		cancel()
		for range stream.Batches {
		}
		err := <-stream.Errors
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
