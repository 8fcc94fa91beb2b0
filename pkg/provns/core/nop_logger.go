package core

// nopLogger discards everything. It backs contexts constructed without
// an explicit logger so callers never have to nil-check.
type nopLogger struct{}

type nopEvent struct{}

// NewNopLogger returns a Logger that discards all events.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Info() LogEvent  { return nopEvent{} }
func (nopLogger) Debug() LogEvent { return nopEvent{} }
func (nopLogger) Warn() LogEvent  { return nopEvent{} }
func (nopLogger) Error() LogEvent { return nopEvent{} }
func (nopLogger) Trace() LogEvent { return nopEvent{} }

func (e nopEvent) Str(string, string) LogEvent           { return e }
func (e nopEvent) Int(string, int) LogEvent              { return e }
func (e nopEvent) Err(error) LogEvent                    { return e }
func (e nopEvent) Bool(string, bool) LogEvent            { return e }
func (e nopEvent) Interface(string, interface{}) LogEvent { return e }
func (nopEvent) Msg(string)                              {}
