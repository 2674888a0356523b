package tileglow

import (
	"fmt"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"libdb.so/tileglow/internal/panel"
)

// Config is the configuration for the tileglow daemon.
type Config struct {
	// Device is the path to the serial device for the panel controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0. Empty runs the
	// daemon without a controller, which is useful with the preview
	// sinks.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Rate is the animation tick rate in ticks per second.
	Rate int `toml:"rate"`
	// Listen is the address for the preview/health HTTP server. Empty
	// disables it.
	Listen string `toml:"listen"`
	// Preview renders the panels as colored cells on stdout.
	Preview bool `toml:"preview"`
	// SPI configures the optional LED strip mirror.
	SPI SPIConfig `toml:"spi"`
	// Panels is the panel layout: one entry per tile with its centroid.
	Panels []PanelConfig `toml:"panel"`
	// Palette is the list of beat colors as "#rrggbb" strings. Empty
	// picks an evenly-spaced hue wheel sized to the layout.
	Palette []panel.RGBColor `toml:"palette"`
	// Feed configures where sound power comes from.
	Feed FeedConfig `toml:"feed"`
}

// PanelConfig is one panel of the layout.
type PanelConfig struct {
	ID int     `toml:"id"`
	X  float64 `toml:"x"`
	Y  float64 `toml:"y"`
}

// SPIConfig configures the LED strip mirror sink.
type SPIConfig struct {
	// Dev is the spireg port name or alias. Empty disables the mirror.
	Dev string `toml:"dev"`
}

// FeedConfig configures the sound power source.
type FeedConfig struct {
	// Kind selects the feed: "synthetic" (the default) generates a
	// deterministic test signal, "external" waits for a feed attached
	// through Daemon.AttachFeed.
	Kind string `toml:"kind"`
	// Seed seeds the synthetic generator.
	Seed int64 `toml:"seed"`
	// Tempo is the tempo reported by the synthetic feed, in BPM.
	Tempo float64 `toml:"tempo"`
}

// Feed kinds.
const (
	SyntheticFeed = "synthetic"
	ExternalFeed  = "external"
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Panels) == 0 {
		return errors.New("no panels configured")
	}
	if c.Rate <= 0 {
		return errors.New("rate must be positive")
	}
	if c.Device != "" && c.Baud <= 0 {
		return errors.New("baud must be positive when a device is set")
	}

	seen := make(map[int]struct{}, len(c.Panels))
	for _, p := range c.Panels {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("duplicate panel ID %d", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	switch c.Feed.Kind {
	case "", SyntheticFeed, ExternalFeed:
	default:
		return fmt.Errorf("unknown feed kind %q", c.Feed.Kind)
	}

	return nil
}

// Layout returns the configured panels in order.
func (c *Config) Layout() []panel.Panel {
	panels := make([]panel.Panel, len(c.Panels))
	for i, p := range c.Panels {
		panels[i] = panel.Panel{ID: p.ID, X: p.X, Y: p.Y}
	}
	return panels
}

// PaletteColors returns the configured palette, or a generated hue wheel
// sized to the layout when the config has none.
func (c *Config) PaletteColors() []panel.RGBColor {
	if len(c.Palette) > 0 {
		return c.Palette
	}
	n := len(c.Panels) - 2
	if n < 0 {
		n = 0
	}
	return DefaultPalette(n)
}

// DefaultPalette returns n evenly-spaced fully-saturated hues.
func DefaultPalette(n int) []panel.RGBColor {
	colors := make([]panel.RGBColor, n)
	for i := range colors {
		r, g, b := colorful.Hsv(360*float64(i)/float64(n), 1, 1).RGB255()
		colors[i] = panel.RGBColor{r, g, b}
	}
	return colors
}

// ParseConfig parses a configuration from a reader.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
