package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffOrdinary(t *testing.T) {
	assert.Equal(t, uint64(50), Diff(100, 150))
	assert.Equal(t, uint64(0), Diff(100, 100))
}

func TestDiffWraparound(t *testing.T) {
	max := ^uint64(0)
	// a is near the top of the range, b has wrapped to a small value.
	got := Diff(max-5, 4)
	assert.Equal(t, uint64(10), got)
}

func TestVirtualAdvancesOnSleep(t *testing.T) {
	c := NewVirtual(1000)
	assert.Equal(t, uint64(1000), c.NowMs())
	c.SleepMs(250)
	assert.Equal(t, uint64(1250), c.NowMs())
	c.Advance(10)
	assert.Equal(t, uint64(1260), c.NowMs())
}
