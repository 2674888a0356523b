// Package soundfeed supplies the daemon with per-bin sound power. A feed
// hands out the latest sample per tracked frequency bin plus an optional
// tempo estimate; where the data comes from (a catnip pipeline, a
// generator) is the feed's business.
package soundfeed

import (
	"math"
	"math/rand"
)

// Feed is the boundary between the tick loop and whatever produces sound
// power. ReadBins fills dst with the freshest sample per bin, one byte
// each; a feed with fewer bins than len(dst) leaves the rest at zero.
type Feed interface {
	ReadBins(dst []uint8)
	// Tempo returns the current tempo estimate in BPM, or 0 when the
	// feed has none.
	Tempo() float64
}

// Synthetic is a deterministic stand-in feed for development and tests:
// each bin pulses on its own period with an exponential decay, plus a
// little seeded noise so the detector has something to chew on.
type Synthetic struct {
	rng   *rand.Rand
	tempo float64
	tick  int
}

var _ Feed = (*Synthetic)(nil)

// NewSynthetic creates a synthetic feed. The same seed always produces the
// same sample stream.
func NewSynthetic(seed int64, tempo float64) *Synthetic {
	return &Synthetic{
		rng:   rand.New(rand.NewSource(seed)),
		tempo: tempo,
	}
}

// ReadBins advances the generator by one tick and fills dst.
func (s *Synthetic) ReadBins(dst []uint8) {
	s.tick++
	for i := range dst {
		period := 16 + 4*i
		phase := s.tick % period

		v := 180 * math.Exp(-float64(phase)/3)
		if phase == 0 {
			v = 200 + s.rng.Float64()*55
		}
		v += s.rng.Float64() * 20

		if v > 255 {
			v = 255
		}
		dst[i] = uint8(v)
	}
}

// Tempo returns the configured tempo.
func (s *Synthetic) Tempo() float64 {
	return s.tempo
}
