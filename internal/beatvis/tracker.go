package beatvis

import "math"

// Tracker keeps the adaptive statistics of a single frequency bin and
// decides when its sound power constitutes a beat. One Tracker exists per
// palette color; bins are independent of each other.
type Tracker struct {
	soundPower          uint32
	previousPower       uint32
	secondPreviousPower uint32
	runningMax          uint32
	latestMinimum       uint32
	maximumTrigger      uint32

	threshold    float64
	minIntensity float64
}

// Tracker seed values. The running maximum starts well above silence so
// the first few ticks do not fire on noise.
const (
	seedRunningMax     = 50
	seedMaximumTrigger = 1
)

// NewTracker returns a tracker seeded so detection behaves reasonably from
// the first tick.
func NewTracker(threshold, minIntensity float64) Tracker {
	return Tracker{
		runningMax:     seedRunningMax,
		maximumTrigger: seedMaximumTrigger,
		threshold:      threshold,
		minIntensity:   minIntensity,
	}
}

// Update feeds one sound power sample into the tracker. It reports whether
// the sample counts as a beat, and if so, the perceptual intensity of the
// beat in [minIntensity, 1].
//
// The detector looks for a strong signal after a period of quietness. It
// fires on more than literal beats: strong instrumental sections in music
// without a beat trip it too, which is what we want for lighting.
func (t *Tracker) Update(power uint8) (beat bool, intensity float64) {
	t.soundPower = uint32(power)

	// The previous sample was a local peak that we have now fallen away
	// from by more than a quarter of the running max. Fold it in.
	if t.soundPower+t.runningMax/4 < t.previousPower && t.previousPower > t.secondPreviousPower {
		t.runningMax = addToRunningMax(t.runningMax, t.previousPower, 4)
	}

	// Track the floor. It drifts back up by one per quiet tick so that a
	// single deep dip does not pin it low forever.
	if t.soundPower < t.latestMinimum {
		t.latestMinimum = t.soundPower
	} else if t.latestMinimum > 0 {
		t.latestMinimum--
	}

	// A beat is a sample exceeding the floor by a threshold fraction of
	// the running max. Snapping the floor up to the sample stops the same
	// peak from retriggering on the next tick.
	if float64(t.soundPower) > float64(t.latestMinimum)+float64(t.runningMax)*t.threshold {
		t.latestMinimum = t.soundPower
		beat = true
		if t.soundPower > t.maximumTrigger {
			t.maximumTrigger = t.soundPower
		}
	}

	t.secondPreviousPower = t.previousPower
	t.previousPower = t.soundPower

	if beat {
		intensity = t.intensity()
	}
	return beat, intensity
}

// intensity maps the bin's power, on a log scale relative to its own
// running ceiling, into [minIntensity, 1]. Degenerate statistics fall back
// to full intensity instead of taking the logarithm of ≤1.
func (t *Tracker) intensity() float64 {
	intensity := 1.0
	if t.soundPower > 1 && t.runningMax > 1 {
		intensity = math.Log(float64(t.soundPower))/math.Log(float64(t.runningMax))*(1-t.minIntensity) + t.minIntensity
	}
	if intensity > 1 {
		intensity = 1
	}
	return intensity
}

// Stats returns a snapshot of the tracker's adaptive state.
func (t *Tracker) Stats() BinStats {
	return BinStats{
		SoundPower:     t.soundPower,
		RunningMax:     t.runningMax,
		LatestMinimum:  t.latestMinimum,
		MaximumTrigger: t.maximumTrigger,
	}
}

// BinStats is the observable state of one frequency bin.
type BinStats struct {
	SoundPower     uint32 `json:"sound_power"`
	RunningMax     uint32 `json:"running_max"`
	LatestMinimum  uint32 `json:"latest_minimum"`
	MaximumTrigger uint32 `json:"maximum_trigger"`
}

// addToRunningMax folds sample into an exponential running estimate over
// effectiveTrail values. The trail halves when the sample exceeds the
// current estimate, so the estimate rises quickly on new peaks and decays
// slowly through quiet passages. This is an approximation of an envelope
// follower, not a principled filter.
func addToRunningMax(current, sample uint32, effectiveTrail uint32) uint32 {
	trail := effectiveTrail
	if sample > current && effectiveTrail > 1 {
		trail = trail / 2
	}
	return uint32(float64(current) - float64(current)/float64(effectiveTrail) + float64(sample)/float64(trail))
}
