package scripting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"

	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/data"
	"github.com/starfield/engine/internal/engine"
)

type overlayPresenter struct {
	overlays [][]string
}

func (p *overlayPresenter) Present(f *engine.Frame) {
	p.overlays = append(p.overlays, append([]string(nil), f.Overlay...))
}

func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func newHost(t *testing.T, dir string, maxFrames uint64, input []data.InputEvent) (*controller.Scheduler, *Host, *engine.PlatformController, *overlayPresenter) {
	t.Helper()
	log := zaptest.NewLogger(t)
	s := controller.NewScheduler(log)
	cfg := config.Default()
	cfg.Loop.MaxFrames = maxFrames
	cfg.Input.WatchSignal = false
	presenter := &overlayPresenter{}
	src := engine.ReplayInput(data.NewInputReplay(input))

	require.NoError(t, controller.Provide(s, func() *engine.EventsController { return engine.NewEventsController(log) }))
	require.NoError(t, controller.Provide(s, func() *engine.PlatformController {
		return engine.NewPlatformController(s, cfg, log, engine.WithInputSource(src))
	}))
	require.NoError(t, controller.Provide(s, func() *engine.GraphicsController {
		return engine.NewGraphicsController(s, cfg, presenter, log)
	}))
	require.NoError(t, controller.Provide(s, func() *Host { return NewHost(s, dir, log) }))

	_, err := controller.Register[engine.EventsController](s)
	require.NoError(t, err)
	platform, err := controller.Register[engine.PlatformController](s)
	require.NoError(t, err)
	_, err = controller.Register[engine.GraphicsController](s)
	require.NoError(t, err)
	host, err := controller.Register[Host](s)
	require.NoError(t, err)
	return s, host, platform, presenter
}

func TestHost_LoopHookStopsRun(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"stopper.lua": `
starfield.register{
  name = "stopper",
  loop = function() return starfield.frame() < 3 end,
}`,
	})
	s, host, platform, _ := newHost(t, dir, 100, nil)
	require.NoError(t, s.Run(context.Background(), 0))

	assert.Equal(t, []string{"stopper"}, host.Scripts())
	assert.Equal(t, "scripts", s.StoppedBy())
	assert.Equal(t, uint64(3), platform.Frame())
}

func TestHost_HooksRunInFileOrder(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"a_first.lua": `
starfield.register{
  name = "first",
  draw = function() starfield.overlay("first " .. starfield.frame()) end,
}`,
		"b_second.lua": `
starfield.register{
  name = "second",
  draw = function() starfield.overlay("second") end,
}`,
		"notes.txt": "not a script",
	})
	s, host, _, presenter := newHost(t, dir, 2, nil)
	require.NoError(t, s.Run(context.Background(), 0))

	assert.Equal(t, []string{"first", "second"}, host.Scripts())
	assert.Equal(t, [][]string{{"first 1", "second"}, {"first 2", "second"}}, presenter.overlays)
}

func TestHost_FailingHookDisablesOnlyThatScript(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"bad.lua": `
starfield.register{
  name = "bad",
  update = function(frame) if frame == 2 then error("boom") end end,
  draw = function() starfield.overlay("bad") end,
}`,
		"good.lua": `
updates = 0
starfield.register{
  name = "good",
  update = function(frame, dt) updates = updates + 1 end,
}`,
	})
	s, host, _, presenter := newHost(t, dir, 0, nil)
	require.NoError(t, s.Initialize())
	for i := 0; i < 4; i++ {
		require.NoError(t, s.PollEvents())
		ok, err := s.Loop()
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, s.Update())
		require.NoError(t, s.Draw())
	}

	assert.True(t, host.Failed("bad"))
	assert.False(t, host.Failed("good"))
	assert.Equal(t, lua.LNumber(4), host.Engine().Global("updates"))
	assert.Equal(t, [][]string{{"bad"}, nil, nil, nil}, presenter.overlays)
	require.NoError(t, s.Terminate())
}

func TestHost_OnKeyCanQuit(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"keys.lua": `
starfield.register{
  name = "keys",
  on_key = function(key, frame)
    if key == "F2" then starfield.quit("key " .. key .. " at " .. frame) end
  end,
}`,
	})
	s, _, platform, _ := newHost(t, dir, 100, []data.InputEvent{
		{Frame: 1, Key: "F2", Action: data.ActionPress},
	})
	require.NoError(t, s.Run(context.Background(), 0))

	// Pressed in frame 1, delivered by the bus in frame 2.
	assert.Equal(t, uint64(2), platform.Frame())
	assert.Equal(t, "key F2 at 1", platform.QuitReason())
}

func TestHost_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax", src: `starfield.register{ name = `, want: "load scripts"},
		{name: "missing name", src: `starfield.register{ update = function() end }`, want: "script name is required"},
		{name: "duplicate", src: `
starfield.register{ name = "dup" }
starfield.register{ name = "dup" }`, want: `"dup" already registered`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeScripts(t, map[string]string{"broken.lua": tt.src})
			s, _, _, _ := newHost(t, dir, 1, nil)
			err := s.Run(context.Background(), 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), `"scripts"`)
		})
	}
}

func TestHost_MissingDirLoadsNothing(t *testing.T) {
	s, host, _, _ := newHost(t, filepath.Join(t.TempDir(), "absent"), 2, nil)
	require.NoError(t, s.Run(context.Background(), 0))
	assert.Empty(t, host.Scripts())
}
