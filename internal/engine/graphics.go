package engine

import (
	"go.uber.org/zap"

	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/core/event"
	"github.com/starfield/engine/internal/data"
)

type Camera struct {
	Position data.Vec3
}

// DrawItem is one body submitted for the current frame.
type DrawItem struct {
	Name     string
	Model    string
	Position data.Vec3
	Scale    float64
	Rotation float64
}

// Frame collects everything submitted between BeginDraw and EndDraw.
type Frame struct {
	Number  uint64
	Camera  Camera
	Items   []DrawItem
	Overlay []string
}

// Presenter receives each completed frame. The frame is reused afterwards,
// so implementations must copy what they keep.
type Presenter interface {
	Present(f *Frame)
}

// LogPresenter logs a frame summary every N frames.
type LogPresenter struct {
	log   *zap.Logger
	every uint64
}

func NewLogPresenter(log *zap.Logger, every uint64) *LogPresenter {
	return &LogPresenter{log: log, every: every}
}

func (p *LogPresenter) Present(f *Frame) {
	if p.every == 0 || f.Number%p.every != 0 {
		return
	}
	p.log.Info("frame presented",
		zap.Uint64("frame", f.Number),
		zap.Int("items", len(f.Items)),
		zap.Strings("overlay", f.Overlay),
	)
}

// GraphicsController owns the camera and the frame under construction.
type GraphicsController struct {
	controller.Base
	log       *zap.Logger
	sched     *controller.Scheduler
	presenter Presenter

	platform  *PlatformController
	camera    Camera
	frame     Frame
	presented uint64
}

func NewGraphicsController(s *controller.Scheduler, cfg *config.Config, presenter Presenter, log *zap.Logger) *GraphicsController {
	p := cfg.Camera.Position
	return &GraphicsController{
		log:       log,
		sched:     s,
		presenter: presenter,
		camera:    Camera{Position: data.Vec3{X: p[0], Y: p[1], Z: p[2]}},
	}
}

func (*GraphicsController) Name() string { return "graphics" }

func (g *GraphicsController) Initialize() error {
	platform, err := controller.Get[PlatformController](g.sched)
	if err != nil {
		return err
	}
	g.platform = platform
	events, err := controller.Get[EventsController](g.sched)
	if err != nil {
		return err
	}
	event.Subscribe(events.Bus(), func(e event.HUDToggled) {
		g.log.Debug("hud toggled", zap.Bool("visible", e.Visible))
	})
	return nil
}

func (g *GraphicsController) BeginDraw() {
	g.frame.Number = g.platform.Frame()
	g.frame.Items = g.frame.Items[:0]
	g.frame.Overlay = g.frame.Overlay[:0]
}

func (g *GraphicsController) EndDraw() {
	g.frame.Camera = g.camera
	if g.presenter != nil {
		g.presenter.Present(&g.frame)
	}
	g.presented++
}

func (g *GraphicsController) Terminate() {
	g.log.Info("graphics stopped", zap.Uint64("frames_presented", g.presented))
}

func (g *GraphicsController) Submit(item DrawItem) {
	g.frame.Items = append(g.frame.Items, item)
}

func (g *GraphicsController) Overlay(line string) {
	g.frame.Overlay = append(g.frame.Overlay, line)
}

func (g *GraphicsController) Camera() *Camera { return &g.camera }

func (g *GraphicsController) Presented() uint64 { return g.presented }
