package core

import (
	"errors"
	"fmt"
)

// Flow-control signals are control-flow requests from the surrounding
// execution engine, not faults. The dispatcher propagates them
// unchanged and immediately, and they abort the remainder of a batch.
//
// The set is closed: only the types in this file satisfy FlowControl,
// enforced through the unexported marker method.
type FlowControl interface {
	error
	flowControl()
}

// PipelineStoppedError signals that the surrounding pipeline has been
// stopped and no further work should be attempted.
type PipelineStoppedError struct{}

func (*PipelineStoppedError) Error() string { return "the pipeline has been stopped" }

func (*PipelineStoppedError) flowControl() {}

// LoopControlError carries a break or continue request out of provider
// code towards the enclosing loop of the execution engine.
type LoopControlError struct {
	// Label names the target loop; empty means the innermost one.
	Label string
	// Break distinguishes a break request from a continue request.
	Break bool
}

func (e *LoopControlError) Error() string {
	verb := "continue"
	if e.Break {
		verb = "break"
	}
	if e.Label == "" {
		return fmt.Sprintf("loop %s", verb)
	}
	return fmt.Sprintf("loop %s: %s", verb, e.Label)
}

func (*LoopControlError) flowControl() {}

// ActionStopError signals a preference-triggered stop: the caller asked
// for processing to halt when a condition was met.
type ActionStopError struct {
	Reason error
}

func (e *ActionStopError) Error() string {
	if e.Reason == nil {
		return "processing stopped by preference"
	}
	return fmt.Sprintf("processing stopped by preference: %v", e.Reason)
}

func (e *ActionStopError) Unwrap() error { return e.Reason }

func (*ActionStopError) flowControl() {}

// IsFlowControl reports whether err is, or wraps, one of the closed set
// of flow-control signals.
func IsFlowControl(err error) bool {
	var fc FlowControl
	return errors.As(err, &fc)
}
