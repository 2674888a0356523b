package termview

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libdb.so/tileglow/internal/panel"
)

func TestWriteFramesRewritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	require.NoError(t, v.WriteFrames([]panel.Frame{
		{PanelID: 1, R: 255},
		{PanelID: 2, B: 36},
	}))

	out := buf.String()
	assert.True(t, len(out) > 1, "expected rendered cells")
	assert.Equal(t, byte('\r'), out[0], "frame must rewrite the line in place")
	assert.NotContains(t, out, "\n")
}
