package engine

import (
	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
)

// CameraController flies the camera with WASD. Movement pauses while the
// HUD is visible.
type CameraController struct {
	controller.Base
	sched *controller.Scheduler
	speed float64

	platform *PlatformController
	graphics *GraphicsController
	hud      *HUDController
}

func NewCameraController(s *controller.Scheduler, cfg *config.Config) *CameraController {
	return &CameraController{sched: s, speed: cfg.Camera.Speed}
}

func (*CameraController) Name() string { return "camera" }

func (c *CameraController) Initialize() error {
	var err error
	if c.platform, err = controller.Get[PlatformController](c.sched); err != nil {
		return err
	}
	if c.graphics, err = controller.Get[GraphicsController](c.sched); err != nil {
		return err
	}
	// The HUD is optional.
	if hud, err := controller.Get[HUDController](c.sched); err == nil {
		c.hud = hud
	}
	return nil
}

func (c *CameraController) Update() {
	if c.hud != nil && c.hud.Enabled() {
		return
	}
	step := c.speed * c.platform.DT()
	cam := c.graphics.Camera()
	if c.platform.Key(KeyW).IsDown() {
		cam.Position.Z -= step
	}
	if c.platform.Key(KeyS).IsDown() {
		cam.Position.Z += step
	}
	if c.platform.Key(KeyA).IsDown() {
		cam.Position.X -= step
	}
	if c.platform.Key(KeyD).IsDown() {
		cam.Position.X += step
	}
}
