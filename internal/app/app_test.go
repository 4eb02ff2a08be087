package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/data"
	"github.com/starfield/engine/internal/engine"
	"github.com/starfield/engine/internal/persist"
)

type memStore struct {
	runs   []persist.RunRecord
	ends   []persist.RunEnd
	frames int
}

func (m *memStore) StartRun(_ context.Context, run persist.RunRecord) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memStore) AppendSamples(_ context.Context, _ uuid.UUID, samples []persist.FrameSample) error {
	m.frames += len(samples)
	return nil
}

func (m *memStore) FinishRun(_ context.Context, _ uuid.UUID, end persist.RunEnd) error {
	m.ends = append(m.ends, end)
	return nil
}

func testConfig(t *testing.T, manifest string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene_list.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte("- name: sun\n  model: sphere\n"), 0o644))

	cfg := config.Default()
	cfg.Scene.Path = scenePath
	cfg.Controllers.Manifest = ""
	if manifest != "" {
		cfg.Controllers.Manifest = filepath.Join(dir, "controllers.yaml")
		require.NoError(t, os.WriteFile(cfg.Controllers.Manifest, []byte(manifest), 0o644))
	}
	cfg.Loop.FrameInterval = 0
	cfg.Loop.MaxFrames = 5
	cfg.Input.WatchSignal = false
	cfg.Scripting.Dir = filepath.Join(dir, "scripts")
	return cfg
}

func orderOf(t *testing.T, a *App) []string {
	t.Helper()
	order, err := a.Resolve()
	require.NoError(t, err)
	return controller.Names(order)
}

func TestSetup_DefaultOrder(t *testing.T) {
	a, err := Setup(Deps{Config: testConfig(t, ""), Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{"events", "platform", "graphics", "camera", "scene", "hud"}, orderOf(t, a))
}

func TestSetup_OptionalControllers(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Scripting.Enabled = true
	a, err := Setup(Deps{Config: cfg, Log: zaptest.NewLogger(t), Journal: &memStore{}})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"events", "platform", "graphics", "camera", "scene", "scripts", "hud", "journal"},
		orderOf(t, a))
}

func TestSetup_ManifestConstraintsAndDisabled(t *testing.T) {
	cfg := testConfig(t, `
constraints:
  - controller: journal
    before: [graphics]
disabled: [scene]
`)
	a, err := Setup(Deps{Config: cfg, Log: zaptest.NewLogger(t), Journal: &memStore{}})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Manifest.Count())

	assert.Equal(t,
		[]string{"events", "platform", "journal", "graphics", "camera", "scene", "hud"},
		orderOf(t, a))

	scene, err := a.Sched.Lookup("scene")
	require.NoError(t, err)
	assert.False(t, scene.Enabled())
}

func TestSetup_ManifestCycle(t *testing.T) {
	cfg := testConfig(t, `
constraints:
  - controller: events
    after: [hud]
`)
	a, err := Setup(Deps{Config: cfg, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	_, err = a.Resolve()
	require.ErrorIs(t, err, controller.ErrCycleDetected)
	require.ErrorIs(t, a.Run(context.Background()), controller.ErrCycleDetected)
}

func TestSetup_ManifestUnknownController(t *testing.T) {
	cfg := testConfig(t, `
constraints:
  - controller: camera
    after: [radar]
`)
	_, err := Setup(Deps{Config: cfg, Log: zaptest.NewLogger(t)})
	require.ErrorIs(t, err, controller.ErrUnregisteredController)
	assert.Contains(t, err.Error(), "radar")
}

func TestSetup_ReplayFromConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Input.Replay = filepath.Join(t.TempDir(), "input_replay.yaml")
	require.NoError(t, os.WriteFile(cfg.Input.Replay, []byte(`
- frame: 2
  key: Escape
  action: press
`), 0o644))
	cfg.Loop.MaxFrames = 50

	a, err := Setup(Deps{Config: cfg, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	platform, err := controller.Get[engine.PlatformController](a.Sched)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), platform.Frame())
}

func TestRun_WithJournal(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Journal.SampleEvery = 1
	cfg.Journal.FlushEvery = 100
	store := &memStore{}
	clock := time.Unix(0, 0)
	a, err := Setup(Deps{
		Config:  cfg,
		Log:     zaptest.NewLogger(t),
		Journal: store,
		Input: engine.InputSourceFunc(func(uint64) []data.InputEvent {
			return nil
		}),
		Clock: func() time.Time {
			clock = clock.Add(16 * time.Millisecond)
			return clock
		},
	})
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	require.Len(t, store.runs, 1)
	assert.Equal(t, controller.Fingerprint(a.Sched.Order()), store.runs[0].Fingerprint)
	assert.Equal(t, 5, store.frames)
	require.Len(t, store.ends, 1)
	assert.Equal(t, uint64(5), store.ends[0].Frames)
	assert.Equal(t, controller.StateTerminated, a.Sched.State())
}

func TestInitialize_ReportSeesHookDecisions(t *testing.T) {
	a, err := Setup(Deps{Config: testConfig(t, ""), Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	hud, err := a.Sched.Lookup("hud")
	require.NoError(t, err)
	assert.True(t, hud.Enabled(), "registered controllers start enabled")

	require.NoError(t, a.Initialize())
	assert.False(t, hud.Enabled(), "the hud hides itself until F2")
	assert.Equal(t, controller.StateInitialized, a.Sched.State())

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, "platform", a.Sched.StoppedBy())
	assert.Equal(t, controller.StateTerminated, a.Sched.State())
}

func TestInitialize_FailureTerminates(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Scene.Path = filepath.Join(t.TempDir(), "missing.yaml")
	a, err := Setup(Deps{Config: cfg, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	require.ErrorContains(t, a.Initialize(), "load scene")
	assert.Equal(t, controller.StateTerminated, a.Sched.State())
}
