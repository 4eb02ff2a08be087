// Package app assembles the built-in controllers into a scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/data"
	"github.com/starfield/engine/internal/engine"
	"github.com/starfield/engine/internal/scripting"
)

// Deps are the pieces Setup does not build from config itself.
type Deps struct {
	Config *config.Config
	Log    *zap.Logger

	// Input overrides the replay file named in config.
	Input engine.InputSource
	// Presenter defaults to a LogPresenter.
	Presenter engine.Presenter
	// Journal registers the journal controller when non-nil.
	Journal engine.JournalStore
	// Clock replaces time.Now for the frame clock.
	Clock func() time.Time
	// Context bounds journal store calls.
	Context context.Context
}

type App struct {
	Sched    *controller.Scheduler
	Manifest *data.Manifest

	cfg *config.Config
	log *zap.Logger
}

// Setup registers every controller, declares the built-in ordering and then
// applies the controller manifest. The scheduler is left in setup state.
func Setup(deps Deps) (*App, error) {
	cfg, log := deps.Config, deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := deps.Input
	if input == nil && cfg.Input.Replay != "" {
		replay, err := data.LoadInputReplay(cfg.Input.Replay)
		if err != nil {
			return nil, err
		}
		input = engine.ReplayInput(replay)
		log.Info("input replay loaded", zap.String("path", cfg.Input.Replay), zap.Int("events", replay.Count()))
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = engine.NewLogPresenter(log, cfg.Loop.PresentEvery)
	}
	manifest, err := data.LoadManifest(cfg.Controllers.Manifest)
	if err != nil {
		return nil, err
	}

	s := controller.NewScheduler(log)
	a := &App{Sched: s, Manifest: manifest, cfg: cfg, log: log}

	var platformOpts []engine.PlatformOption
	if input != nil {
		platformOpts = append(platformOpts, engine.WithInputSource(input))
	}
	if deps.Clock != nil {
		platformOpts = append(platformOpts, engine.WithClock(deps.Clock))
	}

	providers := []func() error{
		func() error {
			return controller.Provide(s, func() *engine.EventsController { return engine.NewEventsController(log) })
		},
		func() error {
			return controller.Provide(s, func() *engine.PlatformController {
				return engine.NewPlatformController(s, cfg, log, platformOpts...)
			})
		},
		func() error {
			return controller.Provide(s, func() *engine.GraphicsController {
				return engine.NewGraphicsController(s, cfg, presenter, log)
			})
		},
		func() error {
			return controller.Provide(s, func() *engine.CameraController { return engine.NewCameraController(s, cfg) })
		},
		func() error {
			return controller.Provide(s, func() *engine.SceneController {
				return engine.NewSceneController(s, cfg.Scene.Path, log)
			})
		},
		func() error {
			return controller.Provide(s, func() *engine.HUDController { return engine.NewHUDController(s) })
		},
		func() error {
			return controller.Provide(s, func() *scripting.Host { return scripting.NewHost(s, cfg.Scripting.Dir, log) })
		},
		func() error {
			return controller.Provide(s, func() *engine.JournalController {
				return engine.NewJournalController(ctx, s, deps.Journal, cfg, log)
			})
		},
	}
	for _, provide := range providers {
		if err := provide(); err != nil {
			return nil, err
		}
	}

	if err := a.registerBuiltins(cfg.Scripting.Enabled, deps.Journal != nil); err != nil {
		return nil, err
	}
	if err := a.applyManifest(); err != nil {
		return nil, fmt.Errorf("controller manifest %s: %w", cfg.Controllers.Manifest, err)
	}

	log.Info("controllers registered",
		zap.Strings("controllers", controller.Names(s.Registered())),
		zap.Int("manifest_edges", manifest.Count()),
		zap.Strings("disabled", manifest.Disabled),
	)
	return a, nil
}

func (a *App) registerBuiltins(withScripts, withJournal bool) error {
	s := a.Sched
	events, err := controller.Register[engine.EventsController](s)
	if err != nil {
		return err
	}
	platform, err := controller.Register[engine.PlatformController](s)
	if err != nil {
		return err
	}
	graphics, err := controller.Register[engine.GraphicsController](s)
	if err != nil {
		return err
	}
	camera, err := controller.Register[engine.CameraController](s)
	if err != nil {
		return err
	}
	scene, err := controller.Register[engine.SceneController](s)
	if err != nil {
		return err
	}
	var scripts *scripting.Host
	if withScripts {
		if scripts, err = controller.Register[scripting.Host](s); err != nil {
			return err
		}
	}
	hud, err := controller.Register[engine.HUDController](s)
	if err != nil {
		return err
	}
	var journal *engine.JournalController
	if withJournal {
		if journal, err = controller.Register[engine.JournalController](s); err != nil {
			return err
		}
	}

	constraints := []func() error{
		func() error { return platform.After(events) },
		func() error { return graphics.After(platform) },
		func() error { return camera.After(graphics) },
		func() error { return camera.Before(scene) },
		func() error { return hud.After(scene) },
	}
	if scripts != nil {
		constraints = append(constraints,
			func() error { return scripts.After(scene) },
			func() error { return hud.After(scripts) },
		)
	}
	if journal != nil {
		constraints = append(constraints, func() error { return journal.After(platform) })
	}
	for _, c := range constraints {
		if err := c(); err != nil {
			return err
		}
	}
	return nil
}

// applyManifest adds the named before/after edges and disables the listed
// controllers. Names must refer to registered controllers.
func (a *App) applyManifest() error {
	s := a.Sched
	for _, c := range a.Manifest.Constraints {
		self, err := s.Lookup(c.Controller)
		if err != nil {
			return err
		}
		for _, name := range c.Before {
			peer, err := s.Lookup(name)
			if err != nil {
				return err
			}
			if err := self.Before(peer); err != nil {
				return err
			}
		}
		for _, name := range c.After {
			peer, err := s.Lookup(name)
			if err != nil {
				return err
			}
			if err := self.After(peer); err != nil {
				return err
			}
		}
	}
	for _, name := range a.Manifest.Disabled {
		c, err := s.Lookup(name)
		if err != nil {
			return err
		}
		c.SetEnabled(false)
	}
	return nil
}

// Resolve computes the execution order without initializing anything.
func (a *App) Resolve() ([]controller.Controller, error) {
	return a.Sched.Resolve()
}

// Initialize resolves the order and runs every controller's Initialize hook,
// so the report printed before the loop shows hooks' own enable decisions.
// On failure the controllers that did initialize are terminated.
func (a *App) Initialize() error {
	if err := a.Sched.Initialize(); err != nil {
		if a.Sched.State() == controller.StateInitialized {
			if terr := a.Sched.Terminate(); terr != nil {
				a.log.Warn("terminate after failed initialize", zap.Error(terr))
			}
		}
		return err
	}
	return nil
}

// Run drives frames at the configured interval until a controller stops the
// loop or ctx is done. Initialize is run first unless it already has been.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	err := a.Sched.Run(ctx, a.cfg.Loop.FrameInterval)
	a.log.Info("frame loop finished",
		zap.String("stopped_by", a.Sched.StoppedBy()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}
