// Package termview renders the panel colors as a row of colored cells in
// the terminal, for developing without any hardware attached.
package termview

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"libdb.so/tileglow/internal/panel"
)

// View is a frame sink that rewrites one terminal line per frame, one
// two-column cell per panel in layout order.
type View struct {
	w     io.Writer
	style lipgloss.Style
}

// New creates a terminal view writing to w, usually os.Stdout.
func New(w io.Writer) *View {
	return &View{
		w:     w,
		style: lipgloss.NewStyle(),
	}
}

// WriteFrames renders one frame set over the current line.
func (v *View) WriteFrames(frames []panel.Frame) error {
	cells := make([]string, len(frames))
	for i, f := range frames {
		hex := panel.RGBColor{f.R, f.G, f.B}.Hex()
		cells[i] = v.style.Background(lipgloss.Color(hex)).Render("  ")
	}

	_, err := fmt.Fprintf(v.w, "\r%s", lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	return err
}
