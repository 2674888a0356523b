package tileglow

import "libdb.so/tileglow/internal/panel"

// FrameSink consumes one rendered frame set per tick. The daemon fans
// every frame set out to all of its sinks; a sink error is logged and the
// loop keeps going, since a dropped frame beats a stalled pipeline.
type FrameSink interface {
	WriteFrames(frames []panel.Frame) error
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(frames []panel.Frame) error

// WriteFrames calls f.
func (f FrameSinkFunc) WriteFrames(frames []panel.Frame) error {
	return f(frames)
}
