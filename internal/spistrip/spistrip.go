// Package spistrip mirrors the panel colors onto a WS2812-style LED strip
// driven over SPI, one LED per panel in layout order. It is meant for
// desk-scale mockups of a panel wall.
package spistrip

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"libdb.so/tileglow/internal/panel"
)

// NRZ timing wants the SPI clock at roughly 3× the 800kHz strip rate.
const stripFreq = 2500 * physic.KiloHertz

// Strip is a frame sink driving the LED strip.
type Strip struct {
	port  spi.PortCloser
	dev   *nrzled.Dev
	img   *image.NRGBA
	index map[int]int // panel ID → pixel offset
}

// New opens the SPI port and prepares the strip for len(panels) pixels.
// dev is a spireg path or alias; an empty string picks the first port.
func New(dev string, panels []panel.Panel) (*Strip, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}

	port, err := spireg.Open(dev)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SPI port")
	}

	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: len(panels),
		Channels:  3,
		Freq:      stripFreq,
	})
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to open LED strip")
	}

	index := make(map[int]int, len(panels))
	for i, p := range panels {
		index[p.ID] = i
	}

	return &Strip{
		port:  port,
		dev:   d,
		img:   image.NewNRGBA(image.Rect(0, 0, len(panels), 1)),
		index: index,
	}, nil
}

// WriteFrames pushes one frame set to the strip. Frames for unknown panel
// IDs are ignored.
func (s *Strip) WriteFrames(frames []panel.Frame) error {
	for _, f := range frames {
		i, ok := s.index[f.PanelID]
		if !ok {
			continue
		}
		s.img.SetNRGBA(i, 0, color.NRGBA{R: f.R, G: f.G, B: f.B, A: 255})
	}
	return errors.Wrap(s.dev.Draw(s.dev.Bounds(), s.img, image.Point{}), "failed to draw strip")
}

// Close blanks the strip and releases the SPI port.
func (s *Strip) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.port.Close()
		return errors.Wrap(err, "failed to halt strip")
	}
	return errors.Wrap(s.port.Close(), "failed to close SPI port")
}
