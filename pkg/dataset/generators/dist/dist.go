// Package dist provides seeded random sampling for the dataset
// generators. All sampling goes through RNG, a PCG-backed source, so a
// generator seeded identically reproduces the same values on every run.
// Sub-streams are derived with fixed seed offsets per table to keep one
// table's draw count from perturbing another's.
package dist

import (
	"math"
	"math/rand/v2"
)

// RNG is a deterministic random source with distribution samplers.
type RNG struct {
	src *rand.Rand
}

// New creates an RNG seeded from a single integer seed.
func New(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewPCG(uint64(seed), uint64(seed)+0x9e3779b97f4a7c15))}
}

// Sub derives an independent RNG using a fixed offset from the base seed.
func Sub(seed, offset int64) *RNG {
	return New(seed + offset)
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 { return r.src.Float64() }

// IntN returns a uniform int in [0, n).
func (r *RNG) IntN(n int) int { return r.src.IntN(n) }

// IntBetween returns a uniform int in [lo, hi] inclusive.
func (r *RNG) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.src.IntN(hi-lo+1)
}

// FloatBetween returns a uniform float64 in [lo, hi).
func (r *RNG) FloatBetween(lo, hi float64) float64 {
	return lo + (hi-lo)*r.src.Float64()
}

// Normal samples a normal distribution with the given mean and standard
// deviation.
func (r *RNG) Normal(mean, std float64) float64 {
	return mean + std*r.src.NormFloat64()
}

// LogNormal samples a log-normal distribution parameterized by the mean
// and standard deviation of the underlying normal.
func (r *RNG) LogNormal(mu, sigma float64) float64 {
	return math.Exp(r.Normal(mu, sigma))
}

// Poisson samples a Poisson distribution with rate lambda. Uses Knuth's
// multiplication method for small lambda and a normal approximation above
// 30, where the exact method degrades numerically.
func (r *RNG) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 30 {
		v := int(math.Round(r.Normal(lambda, math.Sqrt(lambda))))
		if v < 0 {
			return 0
		}
		return v
	}
	limit := math.Exp(-lambda)
	p := 1.0
	k := 0
	for {
		p *= r.src.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// Gamma samples a gamma distribution with the given shape and scale using
// the Marsaglia-Tsang method.
func (r *RNG) Gamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		return 0
	}
	if shape < 1 {
		// Boost to shape+1 and correct with a uniform power.
		u := r.src.Float64()
		return r.Gamma(shape+1, scale) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := r.src.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.src.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Choice returns a uniformly chosen element of items.
func Choice[T any](r *RNG, items []T) T {
	return items[r.src.IntN(len(items))]
}

// WeightedChoice returns an element of items chosen with the given
// weights. Weights need not sum to one; only their ratios matter. items
// and weights must have equal nonzero length.
func WeightedChoice[T any](r *RNG, items []T, weights []float64) T {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := r.src.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return items[i]
		}
	}
	return items[len(items)-1]
}

// WeightedIndex returns an index into weights chosen proportionally to
// each weight.
func WeightedIndex(r *RNG, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := r.src.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds v to two decimal places, the convention for monetary
// columns.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
