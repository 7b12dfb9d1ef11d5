package airtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDefaultModelMatchesCalibratedConstants(t *testing.T) {
	m := DefaultModel()
	assert.Equal(t, uint64(401), m.ToAMs(0))
	assert.Equal(t, uint64(401+5*37), m.ToAMs(5))
	assert.Equal(t, uint64(401+255*37), m.ToAMs(255))
}

func TestToAIsMonotonicNonDecreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := DefaultModel()
		a := rapid.IntRange(0, 500).Draw(t, "a")
		b := rapid.IntRange(0, 500).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		assert.LessOrEqual(t, m.ToAMs(a), m.ToAMs(b))
	})
}

func TestNewModelFallsBackToDefaultForZeroValue(t *testing.T) {
	m := NewModel(Params{})
	d := DefaultModel()
	assert.Equal(t, d.ToAMs(30), m.ToAMs(30))
}

func TestNewModelProducesPositiveEstimates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Params{
			SF:              rapid.IntRange(7, 12).Draw(t, "sf"),
			BWKHz:           rapid.SampledFrom([]int{125, 250, 500}).Draw(t, "bw"),
			CR:              rapid.IntRange(5, 8).Draw(t, "cr"),
			PreambleSymbols: rapid.IntRange(6, 12).Draw(t, "preamble"),
		}
		m := NewModel(p)
		assert.Greater(t, m.ToAMs(0), uint64(0))
		assert.Greater(t, m.ToAMs(100), m.ToAMs(0))
	})
}

func TestCalculateDifsMsIsPositive(t *testing.T) {
	assert.Greater(t, CalculateDifsMs(12, 125), uint64(0))
	assert.Greater(t, CalculateDifsMs(0, 0), uint64(0)) // falls back to defaults
}
