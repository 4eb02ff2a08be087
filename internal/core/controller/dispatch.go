package controller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Resolve closes registration, builds the dependency graph, rejects cycles
// and computes the execution order. It is idempotent once it succeeds.
func (s *Scheduler) Resolve() ([]Controller, error) {
	if s.resolved {
		return s.Order(), nil
	}
	s.closed = true

	g, err := buildGraph(s.registered)
	if err != nil {
		return nil, err
	}
	if cycle := g.findCycle(); cycle != nil {
		err := &CycleError{Path: g.names(cycle)}
		s.log.Error("controller graph rejected", zap.Strings("cycle", err.Path))
		return nil, err
	}

	s.order = g.sort()
	s.resolved = true
	s.log.Info("controller order resolved",
		zap.Strings("order", Names(s.order)),
		zap.Int("edges", g.edges()),
		zap.String("fingerprint", Fingerprint(s.order)),
	)
	return s.Order(), nil
}

// Initialize resolves the order and calls Initialize on every controller,
// enabled or not. If a controller fails, frame phases are rejected from then
// on and a later Terminate only reaches the controllers already initialized.
func (s *Scheduler) Initialize() error {
	if s.state != StateSetup {
		return s.phaseError("initialize", 3)
	}
	if _, err := s.Resolve(); err != nil {
		return err
	}
	s.state = StateInitialized
	for _, c := range s.order {
		if err := c.Initialize(); err != nil {
			s.initFailed = true
			s.log.Error("controller initialize failed", zap.String("controller", c.Name()), zap.Error(err))
			return fmt.Errorf("initialize %q: %w", c.Name(), err)
		}
		s.initialized++
		s.log.Debug("controller initialized", zap.String("controller", c.Name()))
	}
	return nil
}

func (s *Scheduler) PollEvents() error {
	if err := s.beginPhase("poll events"); err != nil {
		return err
	}
	for _, c := range s.enabledSnapshot() {
		c.PollEvents()
	}
	return nil
}

// Loop asks every enabled controller whether to keep running. The first
// false stops the check for the frame and ends the frame loop.
func (s *Scheduler) Loop() (bool, error) {
	if err := s.beginPhase("loop"); err != nil {
		return false, err
	}
	for _, c := range s.enabledSnapshot() {
		if !c.Loop() {
			s.stopRequested = true
			s.stoppedBy = c.Name()
			s.log.Info("frame loop stop requested", zap.String("controller", c.Name()))
			return false, nil
		}
	}
	return true, nil
}

func (s *Scheduler) Update() error {
	if err := s.beginPhase("update"); err != nil {
		return err
	}
	for _, c := range s.enabledSnapshot() {
		c.Update()
	}
	return nil
}

// Draw runs BeginDraw, Draw and EndDraw as three sweeps over one enabled
// snapshot, so begin/end calls always pair up.
func (s *Scheduler) Draw() error {
	if err := s.beginPhase("draw"); err != nil {
		return err
	}
	enabled := s.enabledSnapshot()
	for _, c := range enabled {
		c.BeginDraw()
	}
	for _, c := range enabled {
		c.Draw()
	}
	for _, c := range enabled {
		c.EndDraw()
	}
	return nil
}

// Terminate calls Terminate on every initialized controller in reverse
// execution order, enabled or not.
func (s *Scheduler) Terminate() error {
	if s.state != StateInitialized && s.state != StateRunning {
		return s.phaseError("terminate", 3)
	}
	for i := s.initialized - 1; i >= 0; i-- {
		c := s.order[i]
		c.Terminate()
		s.log.Debug("controller terminated", zap.String("controller", c.Name()))
	}
	s.state = StateTerminated
	return nil
}

// Run initializes the controllers unless Initialize already succeeded, then
// drives one frame per interval tick until a controller's Loop returns false
// or ctx is done, and terminates. A zero interval runs frames back to back.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if s.state == StateSetup {
		if err := s.Initialize(); err != nil {
			if s.state == StateInitialized {
				if terr := s.Terminate(); terr != nil {
					s.log.Error("terminate after failed initialize", zap.Error(terr))
				}
			}
			return err
		}
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var runErr error
	for runErr == nil {
		ok, err := s.frame()
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			break
		}
		if tick == nil {
			runErr = ctx.Err()
			continue
		}
		select {
		case <-tick:
		case <-ctx.Done():
			runErr = ctx.Err()
		}
	}
	if runErr != nil && ctx.Err() != nil && !s.stopRequested {
		s.stopRequested = true
		s.stoppedBy = "context"
	}

	if err := s.Terminate(); err != nil {
		return err
	}
	return runErr
}

// frame runs the loop check first so a stop request gates the whole frame:
// no controller is polled, updated or drawn once one asked to stop.
func (s *Scheduler) frame() (bool, error) {
	ok, err := s.Loop()
	if err != nil || !ok {
		return false, err
	}
	if err := s.PollEvents(); err != nil {
		return false, err
	}
	if err := s.Update(); err != nil {
		return false, err
	}
	if err := s.Draw(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scheduler) beginPhase(op string) error {
	if s.state != StateInitialized && s.state != StateRunning || s.stopRequested || s.initFailed {
		return s.phaseError(op, 4)
	}
	s.state = StateRunning
	return nil
}

// enabledSnapshot freezes the enabled subset at phase start; toggles made
// by hooks apply from the next phase.
func (s *Scheduler) enabledSnapshot() []Controller {
	s.snapshot = s.snapshot[:0]
	for _, c := range s.order {
		if c.Enabled() {
			s.snapshot = append(s.snapshot, c)
		}
	}
	return s.snapshot
}

// phaseError attributes the failure to the frame skip levels up.
func (s *Scheduler) phaseError(op string, skip int) error {
	state := s.state.String()
	switch {
	case s.state == StateTerminated:
	case s.initFailed:
		state += ", initialize failed"
	case s.stopRequested:
		state += ", stop requested"
	}
	return &Error{
		Op:   fmt.Sprintf("%s (state %s)", op, state),
		Site: callSite(skip),
		Err:  ErrInvalidPhaseCall,
	}
}
