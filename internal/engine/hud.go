package engine

import (
	"fmt"

	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/core/event"
)

// HUDController draws the camera info overlay. It starts hidden and F2
// toggles it. The toggle arrives through the event bus because a disabled
// controller receives no PollEvents of its own.
type HUDController struct {
	controller.Base
	sched *controller.Scheduler

	bus      *event.Bus
	graphics *GraphicsController
}

func NewHUDController(s *controller.Scheduler) *HUDController {
	return &HUDController{sched: s}
}

func (*HUDController) Name() string { return "hud" }

func (h *HUDController) Initialize() error {
	h.SetEnabled(false)
	events, err := controller.Get[EventsController](h.sched)
	if err != nil {
		return err
	}
	if h.graphics, err = controller.Get[GraphicsController](h.sched); err != nil {
		return err
	}
	h.bus = events.Bus()
	event.Subscribe(h.bus, func(e event.KeyPressed) {
		if e.Key != KeyF2 {
			return
		}
		h.SetEnabled(!h.Enabled())
		event.Emit(h.bus, event.HUDToggled{Visible: h.Enabled()})
	})
	return nil
}

func (h *HUDController) Draw() {
	p := h.graphics.Camera().Position
	h.graphics.Overlay(fmt.Sprintf("Camera position: (%f, %f, %f)", p.X, p.Y, p.Z))
}
