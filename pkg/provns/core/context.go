package core

import "github.com/google/uuid"

// Logger interface defines logging capabilities
type Logger interface {
	Info() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	Error() LogEvent
	Trace() LogEvent
}

// LogEvent interface for structured logging
type LogEvent interface {
	Str(key, val string) LogEvent
	Int(key string, val int) LogEvent
	Err(err error) LogEvent
	Bool(key string, val bool) LogEvent
	Interface(key string, val interface{}) LogEvent
	Msg(msg string)
}

// Filters carries the path filtering configuration of an operation.
// The dispatcher never interprets it; only the path resolver does,
// applying it to wildcard-expanded matches.
type Filters struct {
	Include   []string
	Exclude   []string
	Predicate func(path string) bool
}

// IsZero reports whether no filtering is configured.
func (f Filters) IsZero() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0 && f.Predicate == nil
}

// OpContext is the per-batch carrier for invocation policy and the sole
// output channel used by provider callbacks. It accumulates result
// records append-only and keeps the first recorded error in a
// write-once slot while retaining the full error history.
//
// An OpContext is not safe for concurrent use; the dispatch model is
// single-threaded and providers are invoked synchronously within the
// dispatcher's call stack.
type OpContext struct {
	// ID correlates all log lines of one batch.
	ID string

	// Force asks providers to override restrictions where they can.
	Force bool

	// Literal suppresses wildcard expansion in the path resolver.
	Literal bool

	// Filters is consumed by the path resolver during expansion.
	Filters Filters

	// Logger is available to the dispatcher and to provider callbacks.
	Logger Logger

	results  []Result
	errs     []error
	firstErr error
}

// NewOpContext creates a standalone context with default policy flags,
// empty accumulation and no recorded error.
func NewOpContext(logger Logger) *OpContext {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &OpContext{
		ID:     uuid.NewString(),
		Logger: logger,
	}
}

// Child returns a fresh context carrying this context's policy flags
// but none of its filters, accumulation or error state. The dispatcher
// uses it to isolate dynamic-parameter discovery from the filters of
// the real operation.
func (c *OpContext) Child() *OpContext {
	return &OpContext{
		ID:      uuid.NewString(),
		Force:   c.Force,
		Literal: c.Literal,
		Logger:  c.Logger,
	}
}

// WriteResult appends a successful result record. It never fails.
func (c *OpContext) WriteResult(r Result) {
	c.results = append(c.results, r)
}

// WriteError appends err to the error history and fills the first-error
// slot if it is still empty. First error wins; later errors are kept
// for reporting but never overwrite the slot.
func (c *OpContext) WriteError(err error) {
	if err == nil {
		return
	}
	c.errs = append(c.errs, err)
	if c.firstErr == nil {
		c.firstErr = err
	}
}

// Results returns a copy of the accumulated result records without
// resetting them. Streaming callers use this to observe progress.
func (c *OpContext) Results() []Result {
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Drain returns the accumulated result records and resets the
// accumulation. The synchronous facade drains once per batch.
func (c *OpContext) Drain() []Result {
	out := c.results
	c.results = nil
	return out
}

// Errors returns a copy of the full error history in recording order.
func (c *OpContext) Errors() []error {
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// FirstError returns the first error recorded during the batch, or nil.
// Callers surface it only after the whole batch has run, which is what
// decouples "did anything fail" from "did everything stop".
func (c *OpContext) FirstError() error {
	return c.firstErr
}

// HasError reports whether any error was recorded.
func (c *OpContext) HasError() bool {
	return c.firstErr != nil
}
