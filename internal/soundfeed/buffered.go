package soundfeed

import (
	"sync"

	"github.com/noriah/catnip/processor"
)

// Buffered is a latest-value store bridging a catnip processing pipeline
// into the tick loop. catnip calls Write from its own goroutine whenever a
// new spectrum is ready; the tick loop calls ReadBins at its own cadence
// and always sees the freshest data.
type Buffered struct {
	mu    sync.Mutex
	bins  []uint8
	tempo float64
}

var (
	_ processor.Output = (*Buffered)(nil)
	_ Feed             = (*Buffered)(nil)
)

// NewBuffered creates a buffered feed tracking nbins frequency bins.
func NewBuffered(nbins int) *Buffered {
	return &Buffered{
		bins: make([]uint8, nbins),
	}
}

// Bins returns the number of bins to ask the pipeline for.
func (b *Buffered) Bins(int) int {
	return len(b.bins)
}

// Write stores the latest spectrum. Channels are averaged per bin, clamped
// to [0, 1] and scaled to the byte range.
func (b *Buffered) Write(bins [][]float64, nchannels int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if nchannels > len(bins) {
		nchannels = len(bins)
	}
	for i := range b.bins {
		if nchannels == 0 {
			b.bins[i] = 0
			continue
		}

		var sum float64
		for ch := 0; ch < nchannels; ch++ {
			if i < len(bins[ch]) {
				sum += bins[ch][i]
			}
		}
		v := sum / float64(nchannels)
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		b.bins[i] = uint8(v * 255)
	}
	return nil
}

// SetTempo stores the pipeline's tempo estimate.
func (b *Buffered) SetTempo(bpm float64) {
	b.mu.Lock()
	b.tempo = bpm
	b.mu.Unlock()
}

// ReadBins copies the latest samples into dst.
func (b *Buffered) ReadBins(dst []uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(dst, b.bins)
}

// Tempo returns the latest tempo estimate.
func (b *Buffered) Tempo() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tempo
}
