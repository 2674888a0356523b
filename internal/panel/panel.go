// Package panel holds the light panel primitives shared by the animation
// core and the output sinks.
package panel

// Panel is one tile of the layout. Positions are centroid coordinates in
// the same unit the layout was measured in; the compositor only ever looks
// at distances between them.
type Panel struct {
	ID int
	X  float64
	Y  float64
}

// Frame is the rendered color for a single panel on a single tick.
// Transition is a hint for the controller, in tenths of a second.
type Frame struct {
	PanelID    int   `json:"panel_id"`
	R          uint8 `json:"r"`
	G          uint8 `json:"g"`
	B          uint8 `json:"b"`
	Transition int   `json:"transition"`
}
