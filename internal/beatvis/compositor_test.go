package beatvis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"libdb.so/tileglow/internal/panel"
)

var black = panel.RGBColor{}

func TestRenderPanelCoincidentSourceWinsOutright(t *testing.T) {
	src := []Source{{X: 10, Y: 20, Color: panel.RGBColor{200, 50, 25}}}
	p := panel.Panel{ID: 1, X: 10, Y: 20}

	r, g, b := renderPanel(p, src, black, DefaultMinimumMultiplier, DefaultAdjacentDistance)
	assert.Equal(t, [3]uint8{200, 50, 25}, [3]uint8{r, g, b})
}

func TestRenderPanelFarSourceLeavesBaseColor(t *testing.T) {
	base := panel.RGBColor{7, 8, 9}
	src := []Source{{X: 1e9, Y: 1e9, Color: panel.RGBColor{255, 255, 255}}}

	r, g, b := renderPanel(panel.Panel{}, src, base, DefaultMinimumMultiplier, DefaultAdjacentDistance)
	assert.Equal(t, [3]uint8{7, 8, 9}, [3]uint8{r, g, b})
}

func TestRenderPanelNoSourcesIsBaseColor(t *testing.T) {
	base := panel.RGBColor{1, 2, 3}
	r, g, b := renderPanel(panel.Panel{}, nil, base, DefaultMinimumMultiplier, DefaultAdjacentDistance)
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})
}

func TestRenderPanelDistanceFalloff(t *testing.T) {
	// One full-intensity red source; panels at 0×, 1× and 2× the
	// adjacent-panel distance. With multiplier 1.5 the mix factors are
	// 1, 1/2.5 and 1/7, giving 255, 102 and 36 red truncated.
	src := []Source{{X: 0, Y: 0, Color: panel.RGBColor{255, 0, 0}}}

	for _, tc := range []struct {
		distance float64
		wantR    uint8
	}{
		{0, 255},
		{DefaultAdjacentDistance, 102},
		{2 * DefaultAdjacentDistance, 36},
	} {
		p := panel.Panel{X: tc.distance}
		r, g, b := renderPanel(p, src, black, DefaultMinimumMultiplier, DefaultAdjacentDistance)
		assert.Equal(t, tc.wantR, r, "distance %v", tc.distance)
		assert.Zero(t, g)
		assert.Zero(t, b)
	}
}

func TestRenderPanelFoldIsSequential(t *testing.T) {
	// Two coincident sources each have factor 1, so the fold ends at
	// whichever came later in pool order. Swapping the order must swap
	// the result; the blend is deliberately order-sensitive.
	red := Source{Color: panel.RGBColor{255, 0, 0}}
	blue := Source{Color: panel.RGBColor{0, 0, 255}}
	p := panel.Panel{}

	r, _, b := renderPanel(p, []Source{red, blue}, black, DefaultMinimumMultiplier, DefaultAdjacentDistance)
	assert.Equal(t, [2]uint8{0, 255}, [2]uint8{r, b})

	r, _, b = renderPanel(p, []Source{blue, red}, black, DefaultMinimumMultiplier, DefaultAdjacentDistance)
	assert.Equal(t, [2]uint8{255, 0}, [2]uint8{r, b})
}

func TestFalloffMultiplier(t *testing.T) {
	assert.Equal(t, 1.5, falloffMultiplier(false, 120, 1.5))
	assert.InDelta(t, math.Log(121)+1.5, falloffMultiplier(true, 120, 1.5), 1e-12)
	// Zero tempo with diffusion on degrades to the bare minimum, not to
	// a blown-out panel.
	assert.InDelta(t, 1.5, falloffMultiplier(true, 0, 1.5), 1e-12)
}
