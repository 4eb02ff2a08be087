package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/data"
	"github.com/starfield/engine/internal/scene"
)

// SceneController loads the scene table, advances body motion in Update and
// submits every body to graphics in Draw.
type SceneController struct {
	controller.Base
	log   *zap.Logger
	sched *controller.Scheduler
	path  string

	scene    *scene.Scene
	platform *PlatformController
	graphics *GraphicsController
}

func NewSceneController(s *controller.Scheduler, path string, log *zap.Logger) *SceneController {
	return &SceneController{log: log, sched: s, path: path, scene: scene.New()}
}

func (*SceneController) Name() string { return "scene" }

func (c *SceneController) Initialize() error {
	var err error
	if c.platform, err = controller.Get[PlatformController](c.sched); err != nil {
		return err
	}
	if c.graphics, err = controller.Get[GraphicsController](c.sched); err != nil {
		return err
	}
	table, err := data.LoadSceneTable(c.path)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	c.scene.Load(table)
	c.log.Info("scene loaded", zap.String("path", c.path), zap.Int("bodies", table.Count()))
	return nil
}

func (c *SceneController) Update() {
	c.scene.Advance(c.platform.DT())
	if n := c.scene.Flush(); n > 0 {
		c.log.Debug("scene bodies expired",
			zap.Uint64("frame", c.platform.Frame()),
			zap.Int("removed", n),
			zap.Int("remaining", c.scene.Bodies.Len()),
		)
	}
}

func (c *SceneController) Draw() {
	scene.Each2(c.scene.Bodies, c.scene.Transforms, func(_ scene.NodeID, b *scene.Body, t *scene.Transform) {
		c.graphics.Submit(DrawItem{
			Name:     b.Name,
			Model:    b.Model,
			Position: t.Position,
			Scale:    t.Scale,
			Rotation: t.Rotation,
		})
	})
}

func (c *SceneController) Scene() *scene.Scene { return c.scene }
