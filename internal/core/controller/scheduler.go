package controller

import (
	"errors"
	"reflect"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyConstructed is returned by Provide when the controller it
	// would construct has already been built.
	ErrAlreadyConstructed = errors.New("controller is already constructed")
	// ErrNilFactory reports a nil constructor or one that returned nil.
	ErrNilFactory = errors.New("controller factory is nil or returned nil")
)

// State is the scheduler lifecycle state.
type State int

const (
	StateSetup State = iota
	StateInitialized
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Scheduler owns every controller instance, keyed by Go type. Construction
// and registration are separate: a controller exists after its first
// reference but takes part in scheduling only once registered.
// Single-goroutine access only (setup thread, then the frame loop).
type Scheduler struct {
	log *zap.Logger

	factories  map[reflect.Type]func() Controller
	instances  map[reflect.Type]Controller
	registered []Controller

	closed   bool
	resolved bool
	order    []Controller
	snapshot []Controller

	state         State
	initialized   int
	initFailed    bool
	stopRequested bool
	stoppedBy     string
}

func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		log:        log,
		factories:  make(map[reflect.Type]func() Controller),
		instances:  make(map[reflect.Type]Controller),
		registered: make([]Controller, 0, 16),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Provide installs the constructor used the first time T is referenced.
// Without one, T is built with new(T).
func Provide[T any, PT interface {
	*T
	Controller
}](s *Scheduler, factory func() PT) error {
	t := typeOf[T]()
	if s.closed {
		return &Error{Op: "provide", Controller: t.String(), Site: callSite(2), Err: ErrRegistrationClosed}
	}
	if factory == nil {
		return &Error{Op: "provide", Controller: t.String(), Site: callSite(2), Err: ErrNilFactory}
	}
	if _, ok := s.instances[t]; ok {
		return &Error{Op: "provide", Controller: t.String(), Site: callSite(2), Err: ErrAlreadyConstructed}
	}
	s.factories[t] = func() Controller {
		c := factory()
		if c == nil {
			return nil
		}
		return c
	}
	return nil
}

// Register constructs T if needed and appends it to the registration list.
func Register[T any, PT interface {
	*T
	Controller
}](s *Scheduler) (PT, error) {
	site := callSite(2)
	c, err := getOrCreate[T, PT](s, "register", site)
	if err != nil {
		return nil, err
	}
	if s.closed {
		return nil, &Error{Op: "register", Controller: c.Name(), Site: site, Err: ErrRegistrationClosed}
	}
	if s.isRegistered(c) {
		return nil, &Error{Op: "register", Controller: c.Name(), Site: site, Err: ErrAlreadyRegistered}
	}
	s.registered = append(s.registered, c)
	c.base().markRegistered(s)
	s.log.Debug("controller registered",
		zap.String("controller", c.Name()),
		zap.Int("position", len(s.registered)-1),
		zap.String("site", site),
	)
	return c, nil
}

// Get returns the single instance of T. It fails for controllers that were
// never registered, even if they have been constructed.
func Get[T any, PT interface {
	*T
	Controller
}](s *Scheduler) (PT, error) {
	site := callSite(2)
	c, err := getOrCreate[T, PT](s, "get", site)
	if err != nil {
		return nil, err
	}
	if !c.Registered() {
		return nil, &Error{Op: "get", Controller: c.Name(), Site: site, Err: ErrUnregisteredController}
	}
	return c, nil
}

func getOrCreate[T any, PT interface {
	*T
	Controller
}](s *Scheduler, op, site string) (PT, error) {
	t := typeOf[T]()
	if c, ok := s.instances[t]; ok {
		return c.(PT), nil
	}
	var c PT
	if factory, ok := s.factories[t]; ok {
		built := factory()
		if built == nil {
			// Not cached, so a later call runs the factory again.
			return nil, &Error{Op: op, Controller: t.String(), Site: site, Err: ErrNilFactory}
		}
		c = built.(PT)
	} else {
		c = PT(new(T))
	}
	c.base().self = c
	s.instances[t] = c
	s.log.Debug("controller constructed", zap.String("controller", c.Name()))
	return c, nil
}

// Lookup returns the registered controller with the given name.
func (s *Scheduler) Lookup(name string) (Controller, error) {
	for _, c := range s.registered {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, &Error{Op: "lookup", Controller: name, Site: callSite(2), Err: ErrUnregisteredController}
}

func (s *Scheduler) isRegistered(c Controller) bool {
	for _, r := range s.registered {
		if r == c {
			return true
		}
	}
	return false
}

// Registered returns the registration list in call order.
func (s *Scheduler) Registered() []Controller {
	return append([]Controller(nil), s.registered...)
}

// Order returns the execution order, or nil before Resolve succeeded.
func (s *Scheduler) Order() []Controller {
	if !s.resolved {
		return nil
	}
	return append([]Controller(nil), s.order...)
}

func (s *Scheduler) State() State { return s.state }

// StoppedBy names the controller whose Loop returned false.
func (s *Scheduler) StoppedBy() string { return s.stoppedBy }

// Names maps controllers to their names.
func Names(cs []Controller) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return names
}
