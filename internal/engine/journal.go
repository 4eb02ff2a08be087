package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starfield/engine/internal/config"
	"github.com/starfield/engine/internal/core/controller"
	"github.com/starfield/engine/internal/core/event"
	"github.com/starfield/engine/internal/persist"
)

// JournalStore persists run records. persist.JournalRepo is the Postgres
// implementation. AppendSamples must not retain the samples slice.
type JournalStore interface {
	StartRun(ctx context.Context, run persist.RunRecord) error
	AppendSamples(ctx context.Context, runID uuid.UUID, samples []persist.FrameSample) error
	FinishRun(ctx context.Context, runID uuid.UUID, end persist.RunEnd) error
}

// JournalController records each run: the resolved order at start, sampled
// frame timings while running, and how the run ended. Store failures are
// logged and never stop the frame loop.
type JournalController struct {
	controller.Base
	log   *zap.Logger
	sched *controller.Scheduler
	store JournalStore
	cfg   config.JournalConfig
	app   string
	start time.Time
	ctx   context.Context

	runID    uuid.UUID
	platform *PlatformController
	buffer   []persist.FrameSample
	reason   string
	failed   bool
}

func NewJournalController(ctx context.Context, s *controller.Scheduler, store JournalStore, cfg *config.Config, log *zap.Logger) *JournalController {
	var start time.Time
	if cfg.App.StartTime != 0 {
		start = time.Unix(cfg.App.StartTime, 0)
	}
	return &JournalController{
		log:   log,
		sched: s,
		store: store,
		cfg:   cfg.Journal,
		app:   cfg.App.Name,
		start: start,
		ctx:   ctx,
	}
}

func (*JournalController) Name() string { return "journal" }

func (j *JournalController) Initialize() error {
	var err error
	if j.platform, err = controller.Get[PlatformController](j.sched); err != nil {
		return err
	}
	events, err := controller.Get[EventsController](j.sched)
	if err != nil {
		return err
	}
	event.Subscribe(events.Bus(), func(e event.QuitRequested) { j.reason = e.Reason })

	order := j.sched.Order()
	j.runID = uuid.New()
	j.buffer = make([]persist.FrameSample, 0, j.cfg.FlushEvery)

	if j.start.IsZero() {
		j.start = time.Now()
	}
	ctx, cancel := j.opContext()
	defer cancel()
	run := persist.RunRecord{
		ID:          j.runID,
		App:         j.app,
		Order:       controller.Names(order),
		Fingerprint: controller.Fingerprint(order),
		StartedAt:   j.start,
	}
	if err := j.store.StartRun(ctx, run); err != nil {
		return err
	}
	j.log.Info("journal run started", zap.String("run_id", j.runID.String()), zap.String("fingerprint", run.Fingerprint))
	return nil
}

func (j *JournalController) Update() {
	frame := j.platform.Frame()
	if frame%j.cfg.SampleEvery != 0 {
		return
	}
	j.buffer = append(j.buffer, persist.FrameSample{
		Frame:   frame,
		DT:      j.platform.DT(),
		TakenAt: time.Now(),
	})
	if len(j.buffer) >= j.cfg.FlushEvery {
		j.flush()
	}
}

func (j *JournalController) Terminate() {
	j.flush()
	reason := j.reason
	if reason == "" {
		reason = j.platform.QuitReason()
	}
	end := persist.RunEnd{
		Frames:    j.platform.Frame(),
		StoppedBy: j.sched.StoppedBy(),
		Reason:    reason,
		EndedAt:   time.Now(),
	}
	ctx, cancel := j.opContext()
	defer cancel()
	if err := j.store.FinishRun(ctx, j.runID, end); err != nil {
		j.log.Error("journal finish run", zap.String("run_id", j.runID.String()), zap.Error(err))
		return
	}
	j.log.Info("journal run finished",
		zap.String("run_id", j.runID.String()),
		zap.Uint64("frames", end.Frames),
		zap.String("stopped_by", end.StoppedBy),
	)
}

func (j *JournalController) flush() {
	if len(j.buffer) == 0 {
		return
	}
	ctx, cancel := j.opContext()
	defer cancel()
	if err := j.store.AppendSamples(ctx, j.runID, j.buffer); err != nil {
		// One warning per run is enough; samples are dropped.
		if !j.failed {
			j.log.Warn("journal append samples", zap.Int("dropped", len(j.buffer)), zap.Error(err))
		}
		j.failed = true
	}
	j.buffer = j.buffer[:0]
}

func (j *JournalController) opContext() (context.Context, context.CancelFunc) {
	if j.cfg.Timeout <= 0 {
		return context.WithCancel(j.ctx)
	}
	return context.WithTimeout(j.ctx, j.cfg.Timeout)
}

// RunID identifies the current run once Initialize succeeded.
func (j *JournalController) RunID() uuid.UUID { return j.runID }
