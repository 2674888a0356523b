package beatvis

import (
	"math/rand"
	"time"

	"libdb.so/tileglow/internal/panel"
)

// Reference tuning. These match the panel hardware this animation was
// originally tuned against; Options fields left at zero fall back to them.
const (
	// DefaultAdjacentDistance is the centroid distance between two
	// touching panels, in layout units.
	DefaultAdjacentDistance = 86.599995
	// DefaultTransitionTime is the per-frame transition hint, in tenths
	// of a second.
	DefaultTransitionTime = 1
	// DefaultMinimumIntensity is the dimmest a beat-spawned source gets.
	DefaultMinimumIntensity = 0.2
	// DefaultTriggerThreshold is the fraction of a bin's running maximum
	// its power must rise above the floor to count as a beat.
	DefaultTriggerThreshold = 0.7
	// DefaultSpawnPerBeat is how many sources one beat births.
	DefaultSpawnPerBeat = 1
	// DefaultLifespan is how many ticks a source lives.
	DefaultLifespan = 1
	// DefaultWarmupTicks is how many ticks are swallowed before the
	// pipeline starts producing frames, giving the bin statistics time
	// to settle.
	DefaultWarmupTicks = 50
)

// Tempo diffusion tuning. When enabled, the host's tempo estimate widens
// the falloff of every source; off by default.
const (
	TempoDivisor             = 25
	DefaultMinimumMultiplier = 1.5
)

// Options tunes an Engine. The zero value reproduces the reference tuning
// above; fields are normalized by New.
type Options struct {
	// BaseColor is the background every panel decays to. Black.
	BaseColor panel.RGBColor
	// AdjacentDistance normalizes source-to-panel distances into
	// panel-width units.
	AdjacentDistance float64
	// TransitionTime rides every output frame as a controller hint.
	TransitionTime int
	// MinimumIntensity floors the log-scaled beat intensity.
	MinimumIntensity float64
	// TriggerThreshold scales the running maximum in the beat criterion.
	TriggerThreshold float64
	// SpawnPerBeat is the number of sources spawned per detected beat.
	SpawnPerBeat int
	// Lifespan is the number of ticks a source survives. The pool
	// capacity is panels × Lifespan.
	Lifespan int
	// WarmupTicks is the number of leading ticks that produce no frame.
	// Zero selects the default; negative disables the warm-up.
	WarmupTicks int
	// TempoDiffusion folds the per-tick tempo estimate into the falloff
	// multiplier instead of using MinimumMultiplier alone.
	TempoDiffusion bool
	// MinimumMultiplier is the falloff multiplier floor.
	MinimumMultiplier float64
	// Rand drives spawn panel selection. Nil gets a time-seeded source;
	// tests inject a fixed seed for reproducible spawns.
	Rand *rand.Rand
}

func (o Options) normalized() Options {
	if o.AdjacentDistance <= 0 {
		o.AdjacentDistance = DefaultAdjacentDistance
	}
	if o.TransitionTime <= 0 {
		o.TransitionTime = DefaultTransitionTime
	}
	if o.MinimumIntensity <= 0 {
		o.MinimumIntensity = DefaultMinimumIntensity
	}
	if o.TriggerThreshold <= 0 {
		o.TriggerThreshold = DefaultTriggerThreshold
	}
	if o.SpawnPerBeat <= 0 {
		o.SpawnPerBeat = DefaultSpawnPerBeat
	}
	if o.Lifespan <= 0 {
		o.Lifespan = DefaultLifespan
	}
	if o.WarmupTicks == 0 {
		o.WarmupTicks = DefaultWarmupTicks
	}
	if o.WarmupTicks < 0 {
		o.WarmupTicks = 0
	}
	if o.MinimumMultiplier <= 0 {
		o.MinimumMultiplier = DefaultMinimumMultiplier
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}
