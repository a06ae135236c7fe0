package dist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterminism(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}

	t.Run("different seeds diverge", func(t *testing.T) {
		c := New(42)
		d := New(43)
		same := true
		for i := 0; i < 10; i++ {
			if c.Float64() != d.Float64() {
				same = false
			}
		}
		assert.False(t, same)
	})

	t.Run("sub-streams are independent", func(t *testing.T) {
		base := Sub(42, 101)
		other := Sub(42, 202)
		assert.NotEqual(t, base.Float64(), other.Float64())

		again := Sub(42, 101)
		fresh := Sub(42, 101)
		assert.Equal(t, again.Float64(), fresh.Float64())
	})
}

func TestIntBetween(t *testing.T) {
	rng := New(1)
	for i := 0; i < 1000; i++ {
		v := rng.IntBetween(3, 7)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 7)
	}

	t.Run("degenerate range", func(t *testing.T) {
		assert.Equal(t, 5, rng.IntBetween(5, 5))
		assert.Equal(t, 5, rng.IntBetween(5, 2))
	})
}

func TestFloatBetween(t *testing.T) {
	rng := New(1)
	for i := 0; i < 1000; i++ {
		v := rng.FloatBetween(-2.5, 2.5)
		assert.GreaterOrEqual(t, v, -2.5)
		assert.Less(t, v, 2.5)
	}
}

func TestNormal(t *testing.T) {
	rng := New(7)
	sum := 0.0
	const n = 20_000
	for i := 0; i < n; i++ {
		sum += rng.Normal(10, 2)
	}
	assert.InDelta(t, 10.0, sum/n, 0.1)
}

func TestPoisson(t *testing.T) {
	t.Run("zero and negative lambda", func(t *testing.T) {
		rng := New(1)
		assert.Equal(t, 0, rng.Poisson(0))
		assert.Equal(t, 0, rng.Poisson(-2))
	})

	t.Run("small lambda mean", func(t *testing.T) {
		rng := New(7)
		sum := 0
		const n = 20_000
		for i := 0; i < n; i++ {
			sum += rng.Poisson(2.6)
		}
		assert.InDelta(t, 2.6, float64(sum)/n, 0.1)
	})

	t.Run("large lambda approximation is non-negative", func(t *testing.T) {
		rng := New(7)
		for i := 0; i < 1000; i++ {
			assert.GreaterOrEqual(t, rng.Poisson(500), 0)
		}
	})
}

func TestGamma(t *testing.T) {
	t.Run("invalid parameters", func(t *testing.T) {
		rng := New(1)
		assert.Zero(t, rng.Gamma(0, 1))
		assert.Zero(t, rng.Gamma(1, -1))
	})

	t.Run("mean is shape times scale", func(t *testing.T) {
		rng := New(7)
		sum := 0.0
		const n = 20_000
		for i := 0; i < n; i++ {
			v := rng.Gamma(3.0, 20.0)
			require.Greater(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, 60.0, sum/n, 2.0)
	})

	t.Run("shape below one", func(t *testing.T) {
		rng := New(7)
		for i := 0; i < 1000; i++ {
			assert.Greater(t, rng.Gamma(0.5, 1.0), 0.0)
		}
	})
}

func TestChoice(t *testing.T) {
	rng := New(1)
	items := []string{"a", "b", "c"}
	for i := 0; i < 100; i++ {
		assert.Contains(t, items, Choice(rng, items))
	}
}

func TestWeightedChoice(t *testing.T) {
	t.Run("zero-weight item never chosen", func(t *testing.T) {
		rng := New(1)
		items := []string{"never", "always"}
		for i := 0; i < 1000; i++ {
			assert.Equal(t, "always", WeightedChoice(rng, items, []float64{0, 1}))
		}
	})

	t.Run("ratios drive frequency", func(t *testing.T) {
		rng := New(7)
		counts := map[string]int{}
		const n = 10_000
		for i := 0; i < n; i++ {
			counts[WeightedChoice(rng, []string{"x", "y"}, []float64{9, 1})]++
		}
		assert.InDelta(t, 0.9, float64(counts["x"])/n, 0.02)
	})
}

func TestWeightedIndex(t *testing.T) {
	rng := New(1)
	weights := []float64{1, 0, 1}
	for i := 0; i < 1000; i++ {
		idx := WeightedIndex(rng, weights)
		assert.NotEqual(t, 1, idx)
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-1, 0, 10))
	assert.Equal(t, 10.0, Clip(11, 0, 10))
	assert.Equal(t, 5.0, Clip(5, 0, 10))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2345))
	assert.Equal(t, 3.46, Round2(3.456))
	assert.Equal(t, -2.5, Round2(-2.4999))
}
