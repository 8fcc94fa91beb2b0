package dispatch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

// fakeProvider records every capability invocation. fail maps a
// concrete path to the error its verb call returns; panicOn makes the
// verb call panic instead.
type fakeProvider struct {
	name    string
	calls   []string
	fail    map[string]error
	panicOn string

	params    provider.DynamicParameters
	paramsCtx *core.OpContext
}

func (p *fakeProvider) Info() provider.Info { return provider.Info{Name: p.name} }

func (p *fakeProvider) touch(verb, path string) error {
	p.calls = append(p.calls, verb+" "+path)
	if p.panicOn == path {
		panic("backend exploded")
	}
	return p.fail[path]
}

func (p *fakeProvider) GetProperty(path string, pick []string, ctx *core.OpContext) error {
	if err := p.touch("get", path); err != nil {
		return err
	}
	ctx.WriteResult(core.Result{Path: path, Provider: p.name, Value: pick})
	return nil
}

func (p *fakeProvider) GetPropertyDynamicParameters(path string, pick []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	p.calls = append(p.calls, "get-params "+path)
	p.paramsCtx = ctx
	return p.params, nil
}

func (p *fakeProvider) RenameProperty(path, sourceName, destinationName string, ctx *core.OpContext) error {
	if err := p.touch("rename", path); err != nil {
		return err
	}
	ctx.WriteResult(core.Result{Path: path, Provider: p.name, Value: sourceName + "->" + destinationName})
	return nil
}

func (p *fakeProvider) RenamePropertyDynamicParameters(path, sourceName, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

func (p *fakeProvider) CopyProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error {
	if err := p.touch("copy", sourcePath); err != nil {
		return err
	}
	ctx.WriteResult(core.Result{Path: destinationPath, Provider: p.name, Value: destinationName})
	return nil
}

func (p *fakeProvider) CopyPropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

func (p *fakeProvider) MoveProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error {
	if err := p.touch("move", sourcePath); err != nil {
		return err
	}
	ctx.WriteResult(core.Result{Path: destinationPath, Provider: p.name, Value: destinationName})
	return nil
}

func (p *fakeProvider) MovePropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// bareProvider satisfies only the minimal contract, no capabilities.
type bareProvider struct{ name string }

func (p *bareProvider) Info() provider.Info { return provider.Info{Name: p.name} }

type resolveCall struct {
	path    string
	literal bool
	ctx     *core.OpContext
}

// fakeResolver maps virtual paths to pre-resolved outcomes and records
// every call it sees.
type fakeResolver struct {
	routes map[string]provider.Resolved
	errs   map[string]error
	calls  []resolveCall
}

func (r *fakeResolver) Resolve(path string, literal bool, ctx *core.OpContext) (provider.Resolved, error) {
	r.calls = append(r.calls, resolveCall{path: path, literal: literal, ctx: ctx})
	if err, ok := r.errs[path]; ok {
		return provider.Resolved{}, err
	}
	res, ok := r.routes[path]
	if !ok {
		return provider.Resolved{}, &core.ItemNotFoundError{Path: path}
	}
	return res, nil
}

func route(p provider.Provider, paths ...string) provider.Resolved {
	return provider.Resolved{Info: p.Info(), Instance: p, Paths: paths}
}

func newTestDispatcher(r Resolver) *Dispatcher {
	return New(r, core.NewNopLogger())
}

func TestGetPropertyPreservesInputOrder(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/apps/*": route(prov, "apps/alpha", "apps/beta"),
		"mem:/cfg":    route(prov, "cfg"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{"mem:/apps/*", "mem:/cfg"}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}

	wantCalls := []string{"get apps/alpha", "get apps/beta", "get cfg"}
	if !reflect.DeepEqual(prov.calls, wantCalls) {
		t.Errorf("provider calls = %v, want %v", prov.calls, wantCalls)
	}

	var gotPaths []string
	for _, r := range ctx.Results() {
		gotPaths = append(gotPaths, r.Path)
	}
	wantPaths := []string{"apps/alpha", "apps/beta", "cfg"}
	if !reflect.DeepEqual(gotPaths, wantPaths) {
		t.Errorf("result paths = %v, want %v", gotPaths, wantPaths)
	}
}

func TestGetPropertyPartialFailure(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
		"mem:/b": route(prov, "b"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{"mem:/a", "mem:/nonexistent", "mem:/b"}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v, want recorded failure only", err)
	}

	wantCalls := []string{"get a", "get b"}
	if !reflect.DeepEqual(prov.calls, wantCalls) {
		t.Errorf("provider calls = %v, want %v", prov.calls, wantCalls)
	}

	results := ctx.Results()
	if len(results) != 2 || results[0].Path != "a" || results[1].Path != "b" {
		t.Errorf("results = %v, want a then b", results)
	}

	var nf *core.ItemNotFoundError
	if !errors.As(ctx.FirstError(), &nf) || nf.Path != "mem:/nonexistent" {
		t.Errorf("FirstError() = %v, want item-not-found for mem:/nonexistent", ctx.FirstError())
	}
}

func TestGetPropertyEmptyPathList(t *testing.T) {
	resolver := &fakeResolver{}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v, want nil", err)
	}
	if len(resolver.calls) != 0 {
		t.Errorf("resolver saw %d calls, want 0", len(resolver.calls))
	}
	if ctx.HasError() || len(ctx.Results()) != 0 {
		t.Error("empty path list produced results or errors")
	}
}

func TestGetPropertyContractViolations(t *testing.T) {
	resolver := &fakeResolver{}
	d := newTestDispatcher(resolver)

	var ae *core.ArgumentError
	if err := d.GetProperty([]string{"mem:/a"}, nil, nil); !errors.As(err, &ae) {
		t.Errorf("nil context: error = %v, want ArgumentError", err)
	}
	if err := d.GetProperty(nil, nil, core.NewOpContext(nil)); !errors.As(err, &ae) {
		t.Errorf("nil path list: error = %v, want ArgumentError", err)
	}
	if len(resolver.calls) != 0 {
		t.Errorf("resolver saw %d calls before validation, want 0", len(resolver.calls))
	}
}

func TestCapabilityAbsencePreserved(t *testing.T) {
	prov := &bareProvider{name: "Bare"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{"mem:/a"}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}

	err := ctx.FirstError()
	if !core.IsNotSupported(err) {
		t.Fatalf("recorded error = %v, want not-supported", err)
	}
	var pf *core.ProviderFault
	if errors.As(err, &pf) {
		t.Errorf("not-supported error was wrapped as a fault: %v", err)
	}
}

func TestProviderErrorWrappedOnce(t *testing.T) {
	cause := errors.New("disk on fire")
	prov := &fakeProvider{name: "Fake", fail: map[string]error{"a": cause}}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{"mem:/a"}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}

	var pf *core.ProviderFault
	if !errors.As(ctx.FirstError(), &pf) {
		t.Fatalf("recorded error = %v, want ProviderFault", ctx.FirstError())
	}
	if pf.Provider != "Fake" || pf.Path != "a" || pf.Operation != opGetProperty {
		t.Errorf("fault identity = %+v, want provider Fake, path a, op %s", pf, opGetProperty)
	}
	if !errors.Is(pf, cause) {
		t.Error("fault does not wrap the original cause")
	}
	if pf.Err != cause {
		t.Errorf("fault cause = %v, want the provider error verbatim", pf.Err)
	}
}

func TestProviderFaultNotRewrapped(t *testing.T) {
	already := &core.ProviderFault{Provider: "Fake", Path: "a", Operation: opGetProperty, Err: errors.New("inner")}
	prov := &fakeProvider{name: "Fake", fail: map[string]error{"a": already}}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{"mem:/a"}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}
	if ctx.FirstError() != error(already) {
		t.Errorf("recorded error = %v, want the original fault unchanged", ctx.FirstError())
	}
}

func TestProviderPanicBecomesFault(t *testing.T) {
	prov := &fakeProvider{name: "Fake", panicOn: "a"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
		"mem:/b": route(prov, "b"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.GetProperty([]string{"mem:/a", "mem:/b"}, nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}

	var pf *core.ProviderFault
	if !errors.As(ctx.FirstError(), &pf) {
		t.Fatalf("recorded error = %v, want ProviderFault", ctx.FirstError())
	}
	if pf.Path != "a" {
		t.Errorf("fault path = %q, want a", pf.Path)
	}
	// the batch survives the panic
	if len(ctx.Results()) != 1 || ctx.Results()[0].Path != "b" {
		t.Errorf("results = %v, want the record for b", ctx.Results())
	}
}

func TestFlowControlAbortsBatch(t *testing.T) {
	prov := &fakeProvider{name: "Fake", fail: map[string]error{"a": &core.PipelineStoppedError{}}}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
		"mem:/b": route(prov, "b"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	err := d.GetProperty([]string{"mem:/a", "mem:/b"}, nil, ctx)
	if !core.IsFlowControl(err) {
		t.Fatalf("GetProperty() error = %v, want flow-control signal", err)
	}
	var stopped *core.PipelineStoppedError
	if !errors.As(err, &stopped) {
		t.Errorf("signal type lost: %v", err)
	}
	if !reflect.DeepEqual(prov.calls, []string{"get a"}) {
		t.Errorf("provider calls = %v, want only the aborting one", prov.calls)
	}
	if ctx.HasError() {
		t.Errorf("flow-control signal was recorded into the context: %v", ctx.Errors())
	}
}

func TestRenameSameNameDispatchesOnce(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/a": route(prov, "a"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.RenameProperty("mem:/a", "color", "color", ctx); err != nil {
		t.Fatalf("RenameProperty() error = %v", err)
	}
	if !reflect.DeepEqual(prov.calls, []string{"rename a"}) {
		t.Errorf("provider calls = %v, want a single rename", prov.calls)
	}
	if ctx.HasError() {
		t.Errorf("same-name rename recorded an error: %v", ctx.FirstError())
	}
}

func TestRenameMissingNamesRejected(t *testing.T) {
	d := newTestDispatcher(&fakeResolver{})
	ctx := core.NewOpContext(nil)

	var ae *core.ArgumentError
	if err := d.RenameProperty("mem:/a", "", "color", ctx); !errors.As(err, &ae) {
		t.Errorf("empty source name: error = %v, want ArgumentError", err)
	}
	if err := d.RenameProperty("mem:/a", "color", "", ctx); !errors.As(err, &ae) {
		t.Errorf("empty destination name: error = %v, want ArgumentError", err)
	}
}

func TestCopyDestinationResolvedLiterally(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/src":    route(prov, "src"),
		"mem:/dest/*": route(prov, "dest/one"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)
	ctx.Literal = false

	if err := d.CopyProperty("mem:/src", "color", "mem:/dest/*", "color", ctx); err != nil {
		t.Fatalf("CopyProperty() error = %v", err)
	}

	// destination is resolved first, and always literally
	if len(resolver.calls) != 2 {
		t.Fatalf("resolver saw %d calls, want 2", len(resolver.calls))
	}
	if resolver.calls[0].path != "mem:/dest/*" || !resolver.calls[0].literal {
		t.Errorf("destination resolve = %+v, want literal resolution of mem:/dest/*", resolver.calls[0])
	}
	if resolver.calls[1].path != "mem:/src" || resolver.calls[1].literal {
		t.Errorf("source resolve = %+v, want wildcard resolution of mem:/src", resolver.calls[1])
	}
	if !reflect.DeepEqual(prov.calls, []string{"copy src"}) {
		t.Errorf("provider calls = %v, want a single copy", prov.calls)
	}
}

func TestCopyCrossProviderRecorded(t *testing.T) {
	src := &fakeProvider{name: "Memory"}
	dst := &fakeProvider{name: "FileSystem"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/src": route(src, "src"),
		"fs:/dest": route(dst, "dest"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.CopyProperty("mem:/src", "color", "fs:/dest", "color", ctx); err != nil {
		t.Fatalf("CopyProperty() error = %v, want recorded failure only", err)
	}

	var cp *core.CrossProviderError
	if !errors.As(ctx.FirstError(), &cp) {
		t.Fatalf("recorded error = %v, want CrossProviderError", ctx.FirstError())
	}
	if cp.SourceProvider != "Memory" || cp.DestinationProvider != "FileSystem" {
		t.Errorf("providers = %q/%q, want Memory/FileSystem", cp.SourceProvider, cp.DestinationProvider)
	}
	if len(src.calls) != 0 || len(dst.calls) != 0 {
		t.Error("a provider was invoked despite the provider mismatch")
	}
}

func TestMoveAmbiguousDestination(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/src":    route(prov, "src"),
		"mem:/dest/*": route(prov, "dest/one", "dest/two"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	err := d.MoveProperty("mem:/src", "color", "mem:/dest/*", "color", ctx)
	var amb *core.AmbiguousDestinationError
	if !errors.As(err, &amb) {
		t.Fatalf("MoveProperty() error = %v, want AmbiguousDestinationError", err)
	}
	if len(amb.Matches) != 2 {
		t.Errorf("ambiguous matches = %v, want both destination paths", amb.Matches)
	}
	if len(prov.calls) != 0 {
		t.Errorf("provider calls = %v, want none before the ambiguity check", prov.calls)
	}
}

func TestMoveDestinationZeroMatches(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/src":    route(prov, "src"),
		"mem:/dest/*": route(prov),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	err := d.MoveProperty("mem:/src", "color", "mem:/dest/*", "color", ctx)
	var nf *core.ItemNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("MoveProperty() error = %v, want ItemNotFoundError", err)
	}
	if len(prov.calls) != 0 {
		t.Errorf("provider calls = %v, want none", prov.calls)
	}
}

func TestMoveSingleMatchDispatches(t *testing.T) {
	prov := &fakeProvider{name: "Fake"}
	resolver := &fakeResolver{routes: map[string]provider.Resolved{
		"mem:/src/*": route(prov, "src/one", "src/two"),
		"mem:/dest":  route(prov, "dest"),
	}}
	d := newTestDispatcher(resolver)
	ctx := core.NewOpContext(nil)

	if err := d.MoveProperty("mem:/src/*", "color", "mem:/dest", "hue", ctx); err != nil {
		t.Fatalf("MoveProperty() error = %v", err)
	}
	if !reflect.DeepEqual(prov.calls, []string{"move src/one", "move src/two"}) {
		t.Errorf("provider calls = %v, want a move per source match", prov.calls)
	}
}

func TestNormalizePick(t *testing.T) {
	if got := normalizePick(nil); got != nil {
		t.Errorf("normalizePick(nil) = %v, want nil", got)
	}
	if got := normalizePick([]string{}); got != nil {
		t.Errorf("normalizePick(empty) = %v, want nil", got)
	}
	if got := normalizePick([]string{"name", "*"}); got != nil {
		t.Errorf("normalizePick with star = %v, want nil", got)
	}
	want := []string{"name", "size"}
	if got := normalizePick(want); !reflect.DeepEqual(got, want) {
		t.Errorf("normalizePick(%v) = %v, want unchanged", want, got)
	}
}
