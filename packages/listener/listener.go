package listener

import (
	"fmt"
	"time"
)

// Listener receives one callback per finished test.
type Listener interface {
	OnFailure(r *Result)
	OnSkipped(r *Result)
	OnSuccess(r *Result)
}

// Result describes a finished test. Listeners may ignore it entirely.
type Result struct {
	Package string
	Name    string
	Elapsed time.Duration
	Message string
	Output  string
}

// FullName returns the package-qualified test name.
func (r *Result) FullName() string {
	if r == nil {
		return ""
	}
	if r.Package == "" {
		return r.Name
	}
	return r.Package + "." + r.Name
}

// Kind is the outcome of a finished test.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindSkipped
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Dispatch calls the hook on l that matches kind.
func Dispatch(l Listener, kind Kind, r *Result) {
	switch kind {
	case KindFailure:
		l.OnFailure(r)
	case KindSkipped:
		l.OnSkipped(r)
	default:
		l.OnSuccess(r)
	}
}

// Adapter implements Listener with no-op hooks.
type Adapter struct{}

func (Adapter) OnFailure(*Result) {}
func (Adapter) OnSkipped(*Result) {}
func (Adapter) OnSuccess(*Result) {}

// Multi forwards every callback to each listener in order.
type Multi []Listener

func (m Multi) OnFailure(r *Result) {
	for _, l := range m {
		l.OnFailure(r)
	}
}

func (m Multi) OnSkipped(r *Result) {
	for _, l := range m {
		l.OnSkipped(r)
	}
}

func (m Multi) OnSuccess(r *Result) {
	for _, l := range m {
		l.OnSuccess(r)
	}
}

// Funcs adapts plain functions to a Listener. Nil fields are ignored.
type Funcs struct {
	Failure func(*Result)
	Skipped func(*Result)
	Success func(*Result)
}

func (f Funcs) OnFailure(r *Result) {
	if f.Failure != nil {
		f.Failure(r)
	}
}

func (f Funcs) OnSkipped(r *Result) {
	if f.Skipped != nil {
		f.Skipped(r)
	}
}

func (f Funcs) OnSuccess(r *Result) {
	if f.Success != nil {
		f.Success(r)
	}
}
