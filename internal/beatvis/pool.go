package beatvis

import (
	"math/rand"

	"libdb.so/tileglow/internal/panel"
)

// Source is one transient point light. It is born on a panel centroid at
// age 0, stays put, and is removed by the aging pass once it has lived out
// the pool's lifespan.
type Source struct {
	X     float64
	Y     float64
	Color panel.RGBColor
	Age   int
}

// Pool is a bounded collection of light sources. Insertion appends;
// eviction always takes slot 0, the oldest by insertion order. That is not
// the same as oldest by age once spawns and removals interleave, but the
// asymmetry is part of the effect's look and is kept on purpose.
type Pool struct {
	sources  []Source
	capacity int
	lifespan int
	perBeat  int
	rng      *rand.Rand
}

// NewPool returns a pool sized for the given panel count: capacity is
// panels × lifespan, fixed for the pool's lifetime.
func NewPool(numPanels, lifespan, perBeat int, rng *rand.Rand) *Pool {
	return &Pool{
		sources:  make([]Source, 0, numPanels*lifespan),
		capacity: numPanels * lifespan,
		lifespan: lifespan,
		perBeat:  perBeat,
		rng:      rng,
	}
}

// Spawn births sources for one detected beat: each lands on a uniformly
// random panel's centroid with the given color scaled by intensity. It
// needs at least two panels to do anything meaningful; with fewer it is a
// no-op. At capacity the slot-0 source is evicted first.
func (p *Pool) Spawn(c panel.RGBColor, intensity float64, panels []panel.Panel) {
	if len(panels) < 2 {
		return
	}
	for i := 0; i < p.perBeat; i++ {
		n := int(p.rng.Float64() * float64(len(panels)))
		if len(p.sources) >= p.capacity {
			p.remove(0)
		}
		p.sources = append(p.sources, Source{
			X:     panels[n].X,
			Y:     panels[n].Y,
			Color: c.Scale(intensity),
		})
	}
}

// AgeAll advances every source by one tick, removing the ones that have
// reached the lifespan. Removal always takes slot 0 and the cursor keeps
// moving, so one source is skipped per removal; this matches the spawn
// eviction above and keeps frames reproducible.
func (p *Pool) AgeAll() {
	for i := 0; i < len(p.sources); i++ {
		if p.sources[i].Age == p.lifespan {
			p.remove(0)
		} else {
			p.sources[i].Age++
		}
	}
}

func (p *Pool) remove(idx int) {
	p.sources = append(p.sources[:idx], p.sources[idx+1:]...)
}

// Sources returns the live sources in insertion order. The slice is the
// pool's own backing storage; callers must not hold onto it across ticks.
func (p *Pool) Sources() []Source {
	return p.sources
}

// Len returns the number of live sources.
func (p *Pool) Len() int {
	return len(p.sources)
}

// Clear drops every live source.
func (p *Pool) Clear() {
	p.sources = p.sources[:0]
}
