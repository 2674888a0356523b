// Package tileglow implements a beat-reactive light panel daemon: sound
// power per frequency bin comes in from a feed, the animation engine turns
// detected beats into transient light sources and composites a color per
// panel, and the resulting frames fan out to a serial panel controller and
// any configured preview sinks.
package tileglow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"libdb.so/tileglow/internal/beatvis"
	"libdb.so/tileglow/internal/monitor"
	"libdb.so/tileglow/internal/panel"
	"libdb.so/tileglow/internal/panellink"
	"libdb.so/tileglow/internal/soundfeed"
	"libdb.so/tileglow/internal/spistrip"
	"libdb.so/tileglow/internal/termview"
)

// Daemon is the main tileglow daemon.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
	engine *beatvis.Engine
	feed   soundfeed.Feed
	sinks  []FrameSink
}

// NewDaemon creates a new tileglow daemon.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	engine := beatvis.New(cfg.Layout(), cfg.PaletteColors(), beatvis.Options{})

	logger.Info(
		"loaded palette",
		"colors", len(engine.Palette()))
	for _, c := range engine.Palette() {
		logger.Debug("palette color", "color", c)
	}

	logger.Info(
		"loaded layout",
		"panels", len(cfg.Panels))
	for _, p := range cfg.Layout() {
		logger.Debug("panel", "id", p.ID, "x", p.X, "y", p.Y)
	}

	return &Daemon{
		cfg:    cfg,
		logger: logger,
		engine: engine,
	}, nil
}

// AttachFeed supplies the daemon's bin feed. It must be called before Run
// when the config selects the external feed; it replaces the synthetic
// default otherwise.
func (d *Daemon) AttachFeed(feed soundfeed.Feed) {
	d.feed = feed
}

// AddSink registers an extra frame sink alongside the configured ones.
func (d *Daemon) AddSink(sink FrameSink) {
	d.sinks = append(d.sinks, sink)
}

// Run starts the daemon. It blocks until the given context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	return (&internalDaemon{Daemon: d}).Run(ctx)
}

type internalDaemon struct {
	*Daemon
	port   serial.Port
	mon    *monitor.Server
	binBuf []uint8
}

func (d *internalDaemon) Run(ctx context.Context) error {
	switch d.cfg.Feed.Kind {
	case "", SyntheticFeed:
		if d.feed == nil {
			d.feed = soundfeed.NewSynthetic(d.cfg.Feed.Seed, d.cfg.Feed.Tempo)
		}
	case ExternalFeed:
		if d.feed == nil {
			return errors.New("external feed configured but none attached")
		}
	}

	d.binBuf = make([]uint8, len(d.engine.Palette()))

	sinks := d.sinks
	if d.cfg.Preview {
		sinks = append(sinks, termview.New(os.Stdout))
	}
	if d.cfg.SPI.Dev != "" {
		strip, err := spistrip.New(d.cfg.SPI.Dev, d.cfg.Layout())
		if err != nil {
			return errors.Wrap(err, "failed to open strip mirror")
		}
		defer strip.Close()
		sinks = append(sinks, strip)
	}

	errg, ctx := errgroup.WithContext(ctx)

	if d.cfg.Listen != "" {
		mon := monitor.New(d.cfg.Layout(), d.logger)
		d.mon = mon
		sinks = append(sinks, mon)

		server := &http.Server{Addr: d.cfg.Listen, Handler: mon.Handler()}
		errg.Go(func() error {
			d.logger.Info("monitor listening", "addr", d.cfg.Listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "monitor server failed")
			}
			return nil
		})
		errg.Go(func() error {
			<-ctx.Done()
			server.Close()
			return ctx.Err()
		})
	}

	packets := make(chan panellink.DevicePacket)
	if d.cfg.Device != "" {
		port, err := serial.Open(d.cfg.Device, &serial.Mode{
			BaudRate: d.cfg.Baud,
		})
		if err != nil {
			return errors.Wrap(err, "failed to open serial port")
		}

		d.port = port
		sinks = append(sinks, FrameSinkFunc(d.writeFrames))

		errg.Go(func() error {
			<-ctx.Done()
			d.logger.Debug("closing serial port")
			if err := port.Close(); err != nil {
				return errors.Wrap(err, "failed to close serial port")
			}
			return ctx.Err()
		})
		errg.Go(func() error {
			return d.readPackets(ctx, packets)
		})
	}

	d.sinks = sinks

	errg.Go(func() error {
		return d.mainLoop(ctx, packets)
	})

	return errg.Wait()
}

func (d *internalDaemon) mainLoop(ctx context.Context, packets <-chan panellink.DevicePacket) error {
	if d.port != nil {
		d.logger.Debug("waiting 100ms for the read loop to start...")
		time.Sleep(100 * time.Millisecond)

		d.logger.Debug("sending initialize packet")
		err := panellink.WriteHostPacket(d.port, panellink.InitializePacket{
			NumPanels: uint16(len(d.cfg.Panels)),
		})
		if err != nil {
			return errors.Wrap(err, "failed to initialize controller")
		}
	}

	frameTicker := time.NewTicker(time.Second / time.Duration(d.cfg.Rate))
	defer frameTicker.Stop()

eventLoop:
	for {
		select {
		case <-ctx.Done():
			break eventLoop

		case p := <-packets:
			switch p := p.(type) {
			case panellink.AckPacket:
				d.logger.Debug(
					"received ack packet from controller",
					"acked_for", p.HostPacketType)

			case panellink.ErrorPacket:
				d.logger.Warn(
					"received error packet from controller",
					"message", p.Message)
				return errors.New("controller reported error")

			case panellink.PanicPacket:
				d.logger.Error(
					"controller unrecoverably panicked",
					"message", p.Message)
				return errors.New("controller panicked")

			case panellink.LogPacket:
				d.logger.Info(
					"received log packet from controller",
					"message", p.Message)

			default:
				return fmt.Errorf("received unknown packet from controller: %s", p.Type())
			}

		case <-frameTicker.C:
			d.tick()
		}
	}

	// Best effort: the port may already be closed by the shutdown
	// goroutine.
	if d.port != nil {
		panellink.WriteHostPacket(d.port, panellink.ClearPacket{})
	}

	return nil
}

// tick runs one frame of the pipeline: pull the freshest bins, advance the
// engine, fan the frames out. Nil frames mean the engine is still warming
// up and nothing is sent.
func (d *internalDaemon) tick() {
	d.feed.ReadBins(d.binBuf)

	frames := d.engine.Tick(d.binBuf, d.feed.Tempo())
	if frames == nil {
		return
	}

	if n := d.engine.NumSources(); n > 0 {
		d.logger.Debug("live sources", "count", n)
	}
	if d.mon != nil {
		d.mon.UpdateBinStats(d.engine.BinStats())
	}

	for _, sink := range d.sinks {
		if err := sink.WriteFrames(frames); err != nil {
			d.logger.Warn(
				"failed to write frames to sink",
				"sink", fmt.Sprintf("%T", sink),
				"error", err)
		}
	}
}

func (d *internalDaemon) writeFrames(frames []panel.Frame) error {
	return panellink.WriteHostPacket(d.port, panellink.FramePacket{Frames: frames})
}

func (d *internalDaemon) readPackets(ctx context.Context, dst chan<- panellink.DevicePacket) error {
	if err := d.port.SetReadTimeout(serial.NoTimeout); err != nil {
		return errors.Wrap(err, "failed to reset read timeout")
	}

	for ctx.Err() == nil {
		p, err := panellink.ReadDevicePacket(d.port)
		if err != nil {
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case dst <- p:
			// ok
		}
	}

	return ctx.Err()
}
