package controller

// Controller is the unit of scheduled behavior. Every implementation embeds
// Base, which supplies enablement, registration state, ordering constraints
// and no-op lifecycle hooks; concrete controllers override what they need.
type Controller interface {
	Name() string

	Enabled() bool
	SetEnabled(enabled bool)
	Registered() bool

	// Before declares that this controller runs before other.
	Before(other Controller) error
	// After declares that this controller runs after other.
	After(other Controller) error

	Initialize() error
	// Loop returns false to request program termination.
	Loop() bool
	PollEvents()
	Update()
	BeginDraw()
	Draw()
	EndDraw()
	Terminate()

	base() *Base
}

// Base is embedded by every controller. Its zero value is a disabled-by-default
// controller, so markRegistered enables it unless SetEnabled ran first.
type Base struct {
	enabled    bool
	enabledSet bool
	registered bool
	sched      *Scheduler
	self       Controller

	before []Controller
	after  []Controller
}

func (b *Base) base() *Base { return b }

func (b *Base) Enabled() bool { return b.enabled }

func (b *Base) SetEnabled(enabled bool) {
	b.enabled = enabled
	b.enabledSet = true
}

func (b *Base) Registered() bool { return b.registered }

func (b *Base) Before(other Controller) error {
	if err := b.checkConstraint("before", other); err != nil {
		return err
	}
	b.before = appendUnique(b.before, other)
	return nil
}

func (b *Base) After(other Controller) error {
	if err := b.checkConstraint("after", other); err != nil {
		return err
	}
	b.after = appendUnique(b.after, other)
	return nil
}

func (b *Base) checkConstraint(op string, other Controller) error {
	site := callSite(3)
	name, peer := "", ""
	if b.self != nil {
		name = b.self.Name()
	}
	if other != nil {
		peer = other.Name()
	}
	switch {
	case b.sched != nil && b.sched.closed:
		return &Error{Op: op, Controller: name, Peer: peer, Site: site, Err: ErrRegistrationClosed}
	case !b.registered:
		return &Error{Op: op, Controller: name, Peer: peer, Site: site, Err: ErrUnregisteredController}
	case other == nil || !other.Registered():
		return &Error{Op: op, Controller: name, Peer: peer, Site: site, Err: ErrDanglingConstraint}
	}
	return nil
}

func (b *Base) markRegistered(s *Scheduler) {
	b.registered = true
	b.sched = s
	if !b.enabledSet {
		b.enabled = true
	}
}

func (b *Base) Initialize() error { return nil }
func (b *Base) Loop() bool        { return true }
func (b *Base) PollEvents()       {}
func (b *Base) Update()           {}
func (b *Base) BeginDraw()        {}
func (b *Base) Draw()             {}
func (b *Base) EndDraw()          {}
func (b *Base) Terminate()        {}

func appendUnique(list []Controller, c Controller) []Controller {
	for _, existing := range list {
		if existing == c {
			return list
		}
	}
	return append(list, c)
}
