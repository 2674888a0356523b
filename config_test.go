package tileglow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libdb.so/tileglow/internal/panel"
)

const testConfig = `
device = "/dev/ttyACM0"
baud = 115200
rate = 30
listen = "localhost:8456"
preview = true

palette = ["#ff0000", "#00ff00"]

[spi]
dev = "SPI0.0"

[feed]
kind = "synthetic"
seed = 42
tempo = 120

[[panel]]
id = 1
x = 0.0
y = 0.0

[[panel]]
id = 2
x = 86.599995
y = 0.0

[[panel]]
id = 3
x = 43.3
y = 75.0
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(testConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 30, cfg.Rate)
	assert.Equal(t, "localhost:8456", cfg.Listen)
	assert.True(t, cfg.Preview)
	assert.Equal(t, "SPI0.0", cfg.SPI.Dev)
	assert.Equal(t, int64(42), cfg.Feed.Seed)
	assert.Equal(t, 120.0, cfg.Feed.Tempo)

	require.Len(t, cfg.Panels, 3)
	assert.Equal(t, PanelConfig{ID: 2, X: 86.599995, Y: 0}, cfg.Panels[1])

	require.Len(t, cfg.Palette, 2)
	assert.Equal(t, panel.RGBColor{255, 0, 0}, cfg.Palette[0])
	assert.Equal(t, panel.RGBColor{0, 255, 0}, cfg.Palette[1])
}

func TestParseConfigBadPaletteColor(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`palette = ["#xyzzy"]`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Rate:   30,
			Panels: []PanelConfig{{ID: 1}, {ID: 2}},
		}
	}

	assert.NoError(t, valid().Validate())

	noPanels := valid()
	noPanels.Panels = nil
	assert.ErrorContains(t, noPanels.Validate(), "no panels")

	badRate := valid()
	badRate.Rate = 0
	assert.ErrorContains(t, badRate.Validate(), "rate")

	dupID := valid()
	dupID.Panels = []PanelConfig{{ID: 7}, {ID: 7}}
	assert.ErrorContains(t, dupID.Validate(), "duplicate panel ID")

	noBaud := valid()
	noBaud.Device = "/dev/ttyUSB0"
	assert.ErrorContains(t, noBaud.Validate(), "baud")

	badFeed := valid()
	badFeed.Feed.Kind = "microphone"
	assert.ErrorContains(t, badFeed.Validate(), "feed kind")
}

func TestLayout(t *testing.T) {
	cfg := &Config{Panels: []PanelConfig{{ID: 5, X: 1, Y: 2}, {ID: 6, X: 3, Y: 4}}}

	assert.Equal(t, []panel.Panel{
		{ID: 5, X: 1, Y: 2},
		{ID: 6, X: 3, Y: 4},
	}, cfg.Layout())
}

func TestPaletteColorsDefaultsToHueWheel(t *testing.T) {
	cfg := &Config{Panels: make([]PanelConfig, 6)}

	colors := cfg.PaletteColors()
	require.Len(t, colors, 4)

	// All hues distinct, starting at red.
	assert.Equal(t, panel.RGBColor{255, 0, 0}, colors[0])
	seen := map[panel.RGBColor]struct{}{}
	for _, c := range colors {
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, 4)
}

func TestPaletteColorsDegenerateLayout(t *testing.T) {
	cfg := &Config{Panels: []PanelConfig{{ID: 1}}}
	assert.Empty(t, cfg.PaletteColors())
}

func TestPaletteColorsKeepsConfigured(t *testing.T) {
	cfg := &Config{
		Panels:  make([]PanelConfig, 6),
		Palette: []panel.RGBColor{{1, 2, 3}},
	}
	assert.Equal(t, []panel.RGBColor{{1, 2, 3}}, cfg.PaletteColors())
}
