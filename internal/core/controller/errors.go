package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrUnregisteredController = errors.New("controller is not registered")
	ErrAlreadyRegistered      = errors.New("controller is already registered")
	ErrRegistrationClosed     = errors.New("registration is closed")
	ErrDanglingConstraint     = errors.New("ordering constraint references an unregistered controller")
	ErrCycleDetected          = errors.New("controller dependency cycle detected")
	ErrInvalidPhaseCall       = errors.New("phase called outside its valid state")
)

// Error describes a failed scheduler operation. Err is one of the sentinels
// above, so callers match with errors.Is.
type Error struct {
	Op         string
	Controller string
	Peer       string
	Site       string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Controller != "" {
		fmt.Fprintf(&b, " %q", e.Controller)
	}
	if e.Peer != "" {
		fmt.Fprintf(&b, " (peer %q)", e.Peer)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Site != "" {
		b.WriteString(" at ")
		b.WriteString(e.Site)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// CycleError lists the controllers on a detected cycle; the first name is
// repeated at the end to close the loop.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// callSite reports file:line of the frame skip levels above the caller.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
