package dispatch

import (
	"errors"
	"fmt"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

// invoke runs one provider capability call inside the normalization
// boundary. Capability absence and flow-control signals pass through
// untouched so callers can tell them apart from real faults; anything
// else, recovered panics included, comes back as a single ProviderFault
// carrying the original error as its cause.
func (d *Dispatcher) invoke(info provider.Info, path, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &core.ProviderFault{
				Provider:  info.Name,
				Path:      path,
				Operation: op,
				Err:       fmt.Errorf("provider panic: %v", r),
			}
		}
	}()
	if err := fn(); err != nil {
		return normalize(info, path, op, err)
	}
	return nil
}

// normalize applies the fault-boundary policy to an error returned by
// provider code. Already-normalized faults are never wrapped twice.
func normalize(info provider.Info, path, op string, err error) error {
	var ns *core.NotSupportedError
	if errors.As(err, &ns) {
		return err
	}
	if core.IsFlowControl(err) {
		return err
	}
	var pf *core.ProviderFault
	if errors.As(err, &pf) {
		return err
	}
	return &core.ProviderFault{Provider: info.Name, Path: path, Operation: op, Err: err}
}
