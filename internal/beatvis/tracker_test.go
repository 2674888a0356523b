package beatvis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerBeatFiresOnceThenFloorSnaps(t *testing.T) {
	tr := NewTracker(DefaultTriggerThreshold, DefaultMinimumIntensity)

	// 36 > floor(0) + 0.7 × runningMax(50) = 35, so the first sample
	// qualifies. The floor snaps up to 36, so holding the same power
	// must not retrigger on the next tick.
	beat, _ := tr.Update(36)
	assert.True(t, beat, "first qualifying sample should fire")

	beat, _ = tr.Update(36)
	assert.False(t, beat, "held power must not retrigger after the floor snap")
}

func TestTrackerFloorDecay(t *testing.T) {
	tr := NewTracker(DefaultTriggerThreshold, DefaultMinimumIntensity)

	tr.Update(200) // beat; floor snaps to 200
	assert.Equal(t, uint32(200), tr.latestMinimum)

	// Quiet-but-nonzero ticks drift the floor down one per tick rather
	// than snapping, as long as the sample stays above it.
	tr.latestMinimum = 5
	for i := 0; i < 3; i++ {
		tr.Update(10)
	}
	assert.Equal(t, uint32(2), tr.latestMinimum)

	// A sample below the floor snaps it down immediately.
	tr.Update(1)
	assert.Equal(t, uint32(1), tr.latestMinimum)
}

func TestRunningMaxRisesFastDecaysSlow(t *testing.T) {
	tr := NewTracker(DefaultTriggerThreshold, DefaultMinimumIntensity)
	assert.Equal(t, uint32(seedRunningMax), tr.runningMax)

	// Rising then falling: the 200 peak folds in on the tick after the
	// fall, with a halved trail because it exceeds the estimate.
	for _, p := range []uint8{0, 100, 200, 100} {
		tr.Update(p)
	}
	assert.Greater(t, tr.runningMax, uint32(100),
		"a strong peak should pull the estimate up within a few ticks")

	// Small peaks over near-silence decay the estimate, but gently: full
	// trail, no halving.
	before := tr.runningMax
	for i := 0; i < 3; i++ {
		tr.Update(40)
		tr.Update(0)
	}
	assert.Less(t, tr.runningMax, before, "quiet passage should decay the estimate")
	assert.Greater(t, tr.runningMax, before/2, "decay should be gradual")
}

func TestAddToRunningMax(t *testing.T) {
	// Sample above the estimate halves the trail: 50 − 50/4 + 200/2.
	assert.Equal(t, uint32(137), addToRunningMax(50, 200, 4))
	// Sample below keeps the full trail: 100 − 100/4 + 0/4.
	assert.Equal(t, uint32(75), addToRunningMax(100, 0, 4))
	// Trail of 1 never halves.
	assert.Equal(t, uint32(200), addToRunningMax(50, 200, 1))
}

func TestIntensityBounds(t *testing.T) {
	tr := NewTracker(DefaultTriggerThreshold, DefaultMinimumIntensity)

	for _, tc := range []struct {
		power, max uint32
	}{
		{2, 2}, {2, 255}, {10, 100}, {100, 100}, {255, 2}, {200, 50},
	} {
		tr.soundPower = tc.power
		tr.runningMax = tc.max
		got := tr.intensity()
		assert.GreaterOrEqual(t, got, DefaultMinimumIntensity,
			"power=%d max=%d", tc.power, tc.max)
		assert.LessOrEqual(t, got, 1.0, "power=%d max=%d", tc.power, tc.max)
	}
}

func TestIntensityDegenerateFallsBackToFull(t *testing.T) {
	tr := NewTracker(DefaultTriggerThreshold, DefaultMinimumIntensity)

	for _, tc := range []struct {
		power, max uint32
	}{
		{0, 50}, {1, 50}, {50, 0}, {50, 1}, {1, 1},
	} {
		tr.soundPower = tc.power
		tr.runningMax = tc.max
		assert.Equal(t, 1.0, tr.intensity(), "power=%d max=%d", tc.power, tc.max)
	}
}

func TestMaximumTriggerTracksBeatHighWater(t *testing.T) {
	tr := NewTracker(DefaultTriggerThreshold, DefaultMinimumIntensity)

	tr.Update(200)
	assert.Equal(t, uint32(200), tr.Stats().MaximumTrigger)

	// Non-beat samples never move it.
	tr.Update(100)
	assert.Equal(t, uint32(200), tr.Stats().MaximumTrigger)
}
