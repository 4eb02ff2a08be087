package engine

import (
	"go.uber.org/zap"

	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/core/event"
)

// EventsController owns the frame event bus. Registered first, it swaps and
// dispatches the bus at the start of every frame so events emitted in frame
// N reach subscribers in frame N+1.
type EventsController struct {
	controller.Base
	bus       *event.Bus
	log       *zap.Logger
	delivered uint64
}

func NewEventsController(log *zap.Logger) *EventsController {
	return &EventsController{bus: event.NewBus(), log: log}
}

func (*EventsController) Name() string { return "events" }

func (c *EventsController) Bus() *event.Bus { return c.bus }

func (c *EventsController) PollEvents() {
	c.bus.Swap()
	c.delivered += uint64(c.bus.Dispatch())
}

func (c *EventsController) Terminate() {
	c.log.Debug("event bus closed",
		zap.Uint64("delivered", c.delivered),
		zap.Int("undelivered", c.bus.Pending()),
	)
}
