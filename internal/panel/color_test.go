package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBColorTextRoundTrip(t *testing.T) {
	var c RGBColor
	require.NoError(t, c.UnmarshalText([]byte("#ff8000")))
	assert.Equal(t, RGBColor{255, 128, 0}, c)

	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#ff8000", string(text))

	// The leading # is optional.
	require.NoError(t, c.UnmarshalText([]byte("00ff24")))
	assert.Equal(t, RGBColor{0, 255, 36}, c)
}

func TestRGBColorUnmarshalRejectsGarbage(t *testing.T) {
	var c RGBColor
	assert.Error(t, c.UnmarshalText([]byte("#ff80")))
	assert.Error(t, c.UnmarshalText([]byte("not a color")))
	assert.Error(t, c.UnmarshalText([]byte("#gggggg")))
}

func TestRGBColorScale(t *testing.T) {
	c := RGBColor{255, 100, 50}

	assert.Equal(t, RGBColor{127, 50, 25}, c.Scale(0.5))
	assert.Equal(t, RGBColor{255, 100, 50}, c.Scale(1))
	assert.Equal(t, RGBColor{}, c.Scale(0))
	// Out-of-range factors clamp per channel instead of wrapping.
	assert.Equal(t, RGBColor{255, 200, 100}, c.Scale(2))
}
