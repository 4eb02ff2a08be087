package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	calls []string
}

func (r *recorder) add(phase, name string) {
	r.calls = append(r.calls, phase+":"+name)
}

// phase returns the controller names that received phase, in call order.
func (r *recorder) phase(phase string) []string {
	var out []string
	for _, c := range r.calls {
		p, name, _ := strings.Cut(c, ":")
		if p == phase {
			out = append(out, name)
		}
	}
	return out
}

type probe struct {
	Base
	name    string
	rec     *recorder
	stopAt  int // Loop returns false on this call (1-based); 0 never
	loops   int
	initErr error

	onPoll   func()
	onUpdate func()
}

func (p *probe) Name() string { return p.name }

func (p *probe) Initialize() error {
	p.rec.add("initialize", p.name)
	return p.initErr
}

func (p *probe) Loop() bool {
	p.loops++
	p.rec.add("loop", p.name)
	return p.stopAt == 0 || p.loops < p.stopAt
}

func (p *probe) PollEvents() {
	p.rec.add("poll", p.name)
	if p.onPoll != nil {
		p.onPoll()
	}
}

func (p *probe) Update() {
	p.rec.add("update", p.name)
	if p.onUpdate != nil {
		p.onUpdate()
	}
}

func (p *probe) BeginDraw() { p.rec.add("begin", p.name) }
func (p *probe) Draw()      { p.rec.add("draw", p.name) }
func (p *probe) EndDraw()   { p.rec.add("end", p.name) }
func (p *probe) Terminate() { p.rec.add("terminate", p.name) }

type ctrlA struct{ probe }
type ctrlB struct{ probe }
type ctrlC struct{ probe }
type ctrlD struct{ probe }

// harness wires four probe types named A..D to one recorder.
func harness(t *testing.T) (*Scheduler, *recorder) {
	t.Helper()
	s := NewScheduler(zaptest.NewLogger(t))
	rec := &recorder{}
	require.NoError(t, Provide(s, func() *ctrlA { return &ctrlA{probe{name: "A", rec: rec}} }))
	require.NoError(t, Provide(s, func() *ctrlB { return &ctrlB{probe{name: "B", rec: rec}} }))
	require.NoError(t, Provide(s, func() *ctrlC { return &ctrlC{probe{name: "C", rec: rec}} }))
	require.NoError(t, Provide(s, func() *ctrlD { return &ctrlD{probe{name: "D", rec: rec}} }))
	return s, rec
}

// registerABC registers A, B and C in that order.
func registerABC(t *testing.T, s *Scheduler) (*ctrlA, *ctrlB, *ctrlC) {
	t.Helper()
	a, err := Register[ctrlA](s)
	require.NoError(t, err)
	b, err := Register[ctrlB](s)
	require.NoError(t, err)
	c, err := Register[ctrlC](s)
	require.NoError(t, err)
	return a, b, c
}

func orderNames(t *testing.T, s *Scheduler) []string {
	t.Helper()
	order, err := s.Resolve()
	require.NoError(t, err)
	return Names(order)
}
