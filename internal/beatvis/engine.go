// Package beatvis implements the beat-reactive panel animation: per-bin
// beat detection over the incoming sound power, a bounded pool of aging
// light sources spawned on beats, and per-panel color compositing with
// distance falloff.
//
// The package is pure computation. It does no I/O, spawns no goroutines
// and keeps no global state; the daemon owns the tick cadence and feeds
// one Engine per run.
package beatvis

import (
	"libdb.so/tileglow/internal/panel"
)

// Engine ties the bin trackers, the source pool and the compositor into
// one tick pipeline. It is single-threaded: exactly one caller invokes
// Tick per animation tick.
type Engine struct {
	opts    Options
	panels  []panel.Panel
	palette []panel.RGBColor
	bins    []Tracker
	pool    *Pool
	ticks   int
}

// New builds an engine for the given layout and palette. The palette is
// truncated to at most len(panels)−2 colors; one frequency bin is tracked
// per retained color. Degenerate inputs are fine: an empty palette means
// beats never become visible, and fewer than two panels means sources are
// never spawned.
func New(panels []panel.Panel, palette []panel.RGBColor, opts Options) *Engine {
	opts = opts.normalized()

	maxColors := len(panels) - 2
	if maxColors < 0 {
		maxColors = 0
	}
	if len(palette) > maxColors {
		palette = palette[:maxColors]
	}

	e := &Engine{
		opts:    opts,
		panels:  panels,
		palette: palette,
		bins:    make([]Tracker, len(palette)),
		pool:    NewPool(len(panels), opts.Lifespan, opts.SpawnPerBeat, opts.Rand),
	}
	for i := range e.bins {
		e.bins[i] = NewTracker(opts.TriggerThreshold, opts.MinimumIntensity)
	}
	return e
}

// Tick runs one frame of the pipeline: update every bin tracker with its
// power sample, spawn a source per detected beat, age the pool, then
// composite every panel. It returns one frame per panel in layout order,
// or nil while the warm-up period is still swallowing ticks.
//
// power carries one byte per tracked bin; a short slice updates only the
// bins it covers. tempo is the host's tempo estimate, used only when tempo
// diffusion is enabled.
func (e *Engine) Tick(power []uint8, tempo float64) []panel.Frame {
	if e.ticks < e.opts.WarmupTicks {
		e.ticks++
		return nil
	}
	e.ticks++

	for i := range e.bins {
		if i >= len(power) {
			break
		}
		beat, intensity := e.bins[i].Update(power[i])
		if beat {
			e.pool.Spawn(e.palette[i], intensity, e.panels)
		}
	}

	e.pool.AgeAll()

	multiplier := falloffMultiplier(e.opts.TempoDiffusion, tempo, e.opts.MinimumMultiplier)

	frames := make([]panel.Frame, len(e.panels))
	for i, p := range e.panels {
		r, g, b := renderPanel(p, e.pool.Sources(), e.opts.BaseColor, multiplier, e.opts.AdjacentDistance)
		frames[i] = panel.Frame{
			PanelID:    p.ID,
			R:          r,
			G:          g,
			B:          b,
			Transition: e.opts.TransitionTime,
		}
	}
	return frames
}

// Reset restores the engine to its post-construction state: trackers
// reseeded, pool emptied, warm-up restarted. The layout and palette are
// kept.
func (e *Engine) Reset() {
	for i := range e.bins {
		e.bins[i] = NewTracker(e.opts.TriggerThreshold, e.opts.MinimumIntensity)
	}
	e.pool.Clear()
	e.ticks = 0
}

// NumSources returns the number of live light sources.
func (e *Engine) NumSources() int {
	return e.pool.Len()
}

// Palette returns the retained palette, after truncation to the panel
// count cap.
func (e *Engine) Palette() []panel.RGBColor {
	return e.palette
}

// BinStats snapshots the adaptive state of every tracked bin, for
// diagnostics surfaces.
func (e *Engine) BinStats() []BinStats {
	stats := make([]BinStats, len(e.bins))
	for i := range e.bins {
		stats[i] = e.bins[i].Stats()
	}
	return stats
}
