package engine

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/core/event"
	"github.com/starfield/engine/internal/data"
)

const (
	KeyEscape event.Key = "Escape"
	KeyF2     event.Key = "F2"
	KeyW      event.Key = "W"
	KeyA      event.Key = "A"
	KeyS      event.Key = "S"
	KeyD      event.Key = "D"
)

type KeyState int

const (
	KeyUp KeyState = iota
	KeyJustPressed
	KeyDown
	KeyJustReleased
)

func (s KeyState) String() string {
	switch s {
	case KeyUp:
		return "up"
	case KeyJustPressed:
		return "just_pressed"
	case KeyDown:
		return "down"
	case KeyJustReleased:
		return "just_released"
	default:
		return "unknown"
	}
}

// IsDown reports whether the key is held this frame.
func (s KeyState) IsDown() bool { return s == KeyJustPressed || s == KeyDown }

// InputSource yields key transitions for a frame.
type InputSource interface {
	Poll(frame uint64) []data.InputEvent
}

// InputSourceFunc adapts a function to InputSource.
type InputSourceFunc func(frame uint64) []data.InputEvent

func (f InputSourceFunc) Poll(frame uint64) []data.InputEvent { return f(frame) }

type replaySource struct {
	replay *data.InputReplay
}

func (r replaySource) Poll(frame uint64) []data.InputEvent { return r.replay.At(frame) }

// ReplayInput plays back a loaded input timeline.
func ReplayInput(r *data.InputReplay) InputSource { return replaySource{replay: r} }

// PlatformController keeps the frame clock and key state. Its Loop ends the
// program on a quit request, Escape, or after the configured frame budget.
type PlatformController struct {
	controller.Base
	log       *zap.Logger
	sched     *controller.Scheduler
	cfg       config.InputConfig
	maxFrames uint64

	source InputSource
	now    func() time.Time
	bus    *event.Bus

	keys  map[event.Key]KeyState
	frame uint64
	last  time.Time
	dt    float64

	quit       bool
	quitReason string
	signals    chan os.Signal
}

type PlatformOption func(*PlatformController)

func WithInputSource(src InputSource) PlatformOption {
	return func(p *PlatformController) { p.source = src }
}

// WithClock replaces time.Now, e.g. with a fixed-step clock in tests.
func WithClock(now func() time.Time) PlatformOption {
	return func(p *PlatformController) { p.now = now }
}

func NewPlatformController(s *controller.Scheduler, cfg *config.Config, log *zap.Logger, opts ...PlatformOption) *PlatformController {
	p := &PlatformController{
		log:       log,
		sched:     s,
		cfg:       cfg.Input,
		maxFrames: cfg.Loop.MaxFrames,
		now:       time.Now,
		keys:      make(map[event.Key]KeyState),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (*PlatformController) Name() string { return "platform" }

func (p *PlatformController) Initialize() error {
	events, err := controller.Get[EventsController](p.sched)
	if err != nil {
		return err
	}
	p.bus = events.Bus()
	if p.cfg.WatchSignal {
		p.signals = make(chan os.Signal, 1)
		signal.Notify(p.signals, syscall.SIGINT, syscall.SIGTERM)
	}
	p.last = p.now()
	return nil
}

func (p *PlatformController) PollEvents() {
	p.frame++
	now := p.now()
	p.dt = now.Sub(p.last).Seconds()
	p.last = now

	for k, st := range p.keys {
		switch st {
		case KeyJustPressed:
			p.keys[k] = KeyDown
		case KeyJustReleased:
			p.keys[k] = KeyUp
		}
	}

	if p.source != nil {
		for _, ev := range p.source.Poll(p.frame) {
			key := event.Key(ev.Key)
			switch ev.Action {
			case data.ActionPress:
				if !p.keys[key].IsDown() {
					p.keys[key] = KeyJustPressed
					event.Emit(p.bus, event.KeyPressed{Key: key, Frame: p.frame})
				}
			case data.ActionRelease:
				if p.keys[key].IsDown() {
					p.keys[key] = KeyJustReleased
					event.Emit(p.bus, event.KeyReleased{Key: key, Frame: p.frame})
				}
			}
		}
	}

	select {
	case sig := <-p.signals:
		p.RequestQuit("signal " + sig.String())
	default:
	}
}

func (p *PlatformController) Loop() bool {
	switch {
	case p.quit:
		return false
	case p.cfg.QuitOnEsc && p.keys[KeyEscape].IsDown():
		p.log.Info("escape pressed", zap.Uint64("frame", p.frame))
		return false
	case p.maxFrames > 0 && p.frame >= p.maxFrames:
		p.log.Info("frame budget reached", zap.Uint64("frames", p.frame))
		return false
	}
	return true
}

func (p *PlatformController) Terminate() {
	if p.signals != nil {
		signal.Stop(p.signals)
	}
}

// RequestQuit makes the next Loop call end the program.
func (p *PlatformController) RequestQuit(reason string) {
	if p.quit {
		return
	}
	p.quit = true
	p.quitReason = reason
	p.log.Info("quit requested", zap.String("reason", reason))
	if p.bus != nil {
		event.Emit(p.bus, event.QuitRequested{Reason: reason})
	}
}

func (p *PlatformController) Key(k event.Key) KeyState { return p.keys[k] }

// Frame is the 1-based number of the current frame.
func (p *PlatformController) Frame() uint64 { return p.frame }

// DT is the time since the previous frame in seconds.
func (p *PlatformController) DT() float64 { return p.dt }

func (p *PlatformController) QuitReason() string { return p.quitReason }
