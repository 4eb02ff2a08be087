package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/core/event"
	"github.com/starfield/engine/internal/engine"
)

// Hook names a script may define in its starfield.register table.
const (
	HookInitialize = "initialize"
	HookLoop       = "loop"
	HookUpdate     = "update"
	HookDraw       = "draw"
	HookTerminate  = "terminate"
	HookOnKey      = "on_key"
)

var hookNames = []string{HookInitialize, HookLoop, HookUpdate, HookDraw, HookTerminate, HookOnKey}

type script struct {
	name   string
	file   string
	hooks  map[string]*lua.LFunction
	failed bool
}

// Host runs the Lua scripts in a directory as one controller. Scripts call
// starfield.register{name = ..., update = function(frame, dt) ... end} and
// their hooks run in registration order within each phase. A hook that
// raises an error disables its script for the rest of the run.
type Host struct {
	controller.Base
	log   *zap.Logger
	sched *controller.Scheduler
	dir   string

	engine   *Engine
	scripts  []*script
	byName   map[string]*script
	loading  string
	current  string
	platform *engine.PlatformController
	graphics *engine.GraphicsController
}

func NewHost(s *controller.Scheduler, dir string, log *zap.Logger) *Host {
	return &Host{
		log:    log,
		sched:  s,
		dir:    dir,
		byName: make(map[string]*script),
	}
}

func (*Host) Name() string { return "scripts" }

func (h *Host) Initialize() error {
	var err error
	if h.platform, err = controller.Get[engine.PlatformController](h.sched); err != nil {
		return err
	}
	if h.graphics, err = controller.Get[engine.GraphicsController](h.sched); err != nil {
		return err
	}
	events, err := controller.Get[engine.EventsController](h.sched)
	if err != nil {
		return err
	}

	h.engine = NewEngine(h.api(), h.log)
	files, err := h.engine.LoadDir(h.dir, func(path string) { h.loading = path })
	h.loading = ""
	if err != nil {
		h.engine.Close()
		h.engine = nil
		return fmt.Errorf("load scripts: %w", err)
	}

	event.Subscribe(events.Bus(), func(e event.KeyPressed) {
		if !h.Enabled() {
			return
		}
		h.each(HookOnKey, lua.LString(e.Key), lua.LNumber(e.Frame))
	})

	h.each(HookInitialize)
	h.log.Info("scripts loaded",
		zap.String("dir", h.dir),
		zap.Int("files", files),
		zap.Strings("scripts", h.Scripts()),
	)
	return nil
}

// Loop ends the program when any script's loop hook returns false.
func (h *Host) Loop() bool {
	for _, sc := range h.scripts {
		ret, ok := h.call(sc, HookLoop, 1)
		if ok && ret == lua.LFalse {
			h.log.Info("script requested stop", zap.String("script", sc.name))
			return false
		}
	}
	return true
}

func (h *Host) Update() {
	h.each(HookUpdate, lua.LNumber(h.platform.Frame()), lua.LNumber(h.platform.DT()))
}

func (h *Host) Draw() {
	h.each(HookDraw)
}

func (h *Host) Terminate() {
	h.each(HookTerminate)
	if h.engine != nil {
		h.engine.Close()
		h.engine = nil
	}
}

// Scripts lists registered script names in registration order.
func (h *Host) Scripts() []string {
	names := make([]string, len(h.scripts))
	for i, sc := range h.scripts {
		names[i] = sc.name
	}
	return names
}

// Failed reports whether the named script was disabled by an error.
func (h *Host) Failed(name string) bool {
	sc, ok := h.byName[name]
	return ok && sc.failed
}

// Engine exposes the VM while the host is initialized.
func (h *Host) Engine() *Engine { return h.engine }

func (h *Host) each(hook string, args ...lua.LValue) {
	for _, sc := range h.scripts {
		h.call(sc, hook, 0, args...)
	}
}

func (h *Host) call(sc *script, hook string, nret int, args ...lua.LValue) (lua.LValue, bool) {
	fn, ok := sc.hooks[hook]
	if !ok || sc.failed {
		return lua.LNil, false
	}
	h.current = sc.name
	ret, err := h.engine.Call(fn, nret, args...)
	h.current = ""
	if err != nil {
		sc.failed = true
		h.log.Error("lua hook failed, script disabled",
			zap.String("script", sc.name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, false
	}
	return ret, true
}

func (h *Host) api() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"register": h.luaRegister,
		"log":      h.luaLog,
		"frame": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.platform.Frame()))
			return 1
		},
		"dt": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.platform.DT()))
			return 1
		},
		"key_down": func(L *lua.LState) int {
			key := event.Key(L.CheckString(1))
			L.Push(lua.LBool(h.platform.Key(key).IsDown()))
			return 1
		},
		"quit": func(L *lua.LState) int {
			h.platform.RequestQuit(L.OptString(1, "script "+h.current))
			return 0
		},
		"overlay": func(L *lua.LState) int {
			h.graphics.Overlay(L.CheckString(1))
			return 0
		},
		"camera": func(L *lua.LState) int {
			p := h.graphics.Camera().Position
			L.Push(lua.LNumber(p.X))
			L.Push(lua.LNumber(p.Y))
			L.Push(lua.LNumber(p.Z))
			return 3
		},
	}
}

func (h *Host) luaRegister(L *lua.LState) int {
	tbl := L.CheckTable(1)
	name := lStr(tbl, "name")
	if name == "" {
		L.ArgError(1, "script name is required")
		return 0
	}
	if prev, dup := h.byName[name]; dup {
		L.RaiseError("script %q already registered by %s", name, prev.file)
		return 0
	}
	sc := &script{name: name, file: h.loading, hooks: make(map[string]*lua.LFunction)}
	for _, hook := range hookNames {
		if fn, ok := tbl.RawGetString(hook).(*lua.LFunction); ok {
			sc.hooks[hook] = fn
		}
	}
	h.scripts = append(h.scripts, sc)
	h.byName[name] = sc
	return 0
}

func (h *Host) luaLog(L *lua.LState) int {
	h.log.Info(L.CheckString(1), zap.String("script", h.current), zap.String("file", h.loading))
	return 0
}
