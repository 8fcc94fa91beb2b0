package core

import (
	"errors"
	"fmt"
	"strings"
)

// ArgumentError reports a contract violation detected before any
// resolver or provider work starts. It is returned synchronously and
// never recorded into a context.
type ArgumentError struct {
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Reason)
}

// DriveNotFoundError reports a path qualified with an unknown drive.
type DriveNotFoundError struct {
	Drive string
}

func (e *DriveNotFoundError) Error() string {
	return fmt.Sprintf("drive does not exist: %s", e.Drive)
}

// ProviderNotFoundError reports a drive bound to an unregistered
// provider name.
type ProviderNotFoundError struct {
	Provider string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider is not registered: %s", e.Provider)
}

// ItemNotFoundError reports a non-wildcarded path with zero matches.
type ItemNotFoundError struct {
	Path string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item does not exist: %s", e.Path)
}

// AmbiguousDestinationError reports a copy or move destination pattern
// that expanded to more than one concrete path.
type AmbiguousDestinationError struct {
	Path    string
	Matches []string
}

func (e *AmbiguousDestinationError) Error() string {
	return fmt.Sprintf("destination %q resolves to %d paths, expected at most one", e.Path, len(e.Matches))
}

// CrossProviderError reports a copy or move whose source and
// destination paths belong to different providers.
type CrossProviderError struct {
	Operation           string
	SourceProvider      string
	DestinationProvider string
}

func (e *CrossProviderError) Error() string {
	return fmt.Sprintf("cannot %s across providers: source is owned by %q, destination by %q",
		operationAction(e.Operation), e.SourceProvider, e.DestinationProvider)
}

// NotSupportedError reports that a provider does not implement the
// requested capability. Callers must be able to tell this apart from a
// real fault, so the dispatcher propagates it unchanged.
type NotSupportedError struct {
	Provider  string
	Operation string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, operationAction(e.Operation))
}

// ProviderFault is the single normalized shape for anything that went
// wrong inside foreign provider code. It carries the provider's
// identity, the concrete path being processed, the operation message
// key and the original error as the wrapped cause.
type ProviderFault struct {
	Provider  string
	Path      string
	Operation string
	Err       error
}

func (e *ProviderFault) Error() string {
	return fmt.Sprintf("failed to %s %q: %v (provider: %s)",
		operationAction(e.Operation), e.Path, e.Err, e.Provider)
}

func (e *ProviderFault) Unwrap() error {
	return e.Err
}

// IsNotSupported reports whether err is a capability-absence error.
func IsNotSupported(err error) bool {
	var ns *NotSupportedError
	return errors.As(err, &ns)
}

// operationAction turns an operation message key into a human-readable
// action for error text.
func operationAction(op string) string {
	switch op {
	case "get-property":
		return "get property of"
	case "set-property":
		return "set property of"
	case "clear-property":
		return "clear property of"
	case "new-property":
		return "create property on"
	case "remove-property":
		return "remove property of"
	case "rename-property":
		return "rename property of"
	case "copy-property":
		return "copy property"
	case "move-property":
		return "move property"
	case "enumerate-items":
		return "enumerate items under"
	default:
		return strings.ReplaceAll(op, "-", " ")
	}
}
