// Package monitor serves a live preview of the rendered frames: a
// websocket that streams every frame set as JSON, plus a health endpoint.
// It is a passive window into the pipeline, not a control plane.
package monitor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"libdb.so/tileglow/internal/beatvis"
	"libdb.so/tileglow/internal/panel"
)

// Server broadcasts frames to connected websocket clients. It implements
// the daemon's frame sink interface, so it can sit next to the serial link
// in the fan-out.
type Server struct {
	logger   *slog.Logger
	panels   []panel.Panel
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	clients   map[*websocket.Conn]struct{}
	frameID   uint64
	binStats  []beatvis.BinStats
	startTime time.Time
}

// New creates a monitor for the given layout.
func New(panels []panel.Panel, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		panels: panels,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:   map[*websocket.Conn]struct{}{},
		startTime: time.Now(),
	}
}

// UpdateBinStats stores the latest per-bin statistics snapshot for the
// health endpoint. The tick loop pushes it; the engine itself is never
// touched from the HTTP goroutines.
func (s *Server) UpdateBinStats(stats []beatvis.BinStats) {
	s.mu.Lock()
	s.binStats = stats
	s.mu.Unlock()
}

// Handler returns the monitor's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/frames", s.handleFramesWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// WriteFrames broadcasts one frame set to every connected client. It is
// called from the tick loop only, so conns see exactly one writer: the
// topology message goes out before a conn joins the client set.
func (s *Server) WriteFrames(frames []panel.Frame) error {
	// Snapshot the client set so a slow client cannot stall the pipeline
	// behind the lock; a frame dropped on a dead conn just gets logged.
	s.mu.Lock()
	s.frameID++
	frameID := s.frameID
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if len(conns) == 0 {
		return nil
	}

	msg := struct {
		T       int64         `json:"t"`
		FrameID uint64        `json:"frame_id"`
		Frames  []panel.Frame `json:"frames"`
	}{
		T:       time.Now().UnixNano(),
		FrameID: frameID,
		Frames:  frames,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.logger.Debug(
				"failed to write frame to preview client",
				"error", err)
		}
	}
	return nil
}

func (s *Server) handleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.logger.Debug("preview client connected", "addr", conn.RemoteAddr())

	// The topology must go out before the conn joins the broadcast set:
	// once registered, the tick loop owns writes to it, and a websocket
	// conn tolerates only one writer at a time.
	s.sendTopology(conn)

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Drain the client until it hangs up; we never expect messages.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) sendTopology(conn *websocket.Conn) {
	type topoPanel struct {
		ID int     `json:"id"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}

	panels := make([]topoPanel, len(s.panels))
	for i, p := range s.panels {
		panels[i] = topoPanel{ID: p.ID, X: p.X, Y: p.Y}
	}

	b, err := json.Marshal(map[string]any{"panels": panels})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		s.logger.Debug(
			"failed to send layout to preview client",
			"error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"panels":   len(s.panels),
		"clients":  len(s.clients),
	}
	if s.binStats != nil {
		resp["bins"] = s.binStats
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
