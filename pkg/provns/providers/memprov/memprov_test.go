package memprov

import (
	"reflect"
	"testing"

	"github.com/provns/provns/pkg/provns/core"
)

func newSeeded() *Provider {
	p := New()
	p.SeedProperty("apps/alpha", "color", "red")
	p.SeedProperty("apps/alpha", "size", 3)
	p.SeedProperty("apps/beta", "color", "blue")
	return p
}

func lastValue(t *testing.T, ctx *core.OpContext) map[string]interface{} {
	t.Helper()
	results := ctx.Results()
	if len(results) == 0 {
		t.Fatal("no result was recorded")
	}
	props, ok := results[len(results)-1].Value.(map[string]interface{})
	if !ok {
		t.Fatalf("result value is %T, want a property map", results[len(results)-1].Value)
	}
	return props
}

func TestItemEnumeration(t *testing.T) {
	p := newSeeded()

	if !p.ItemExists("apps/alpha") {
		t.Error("ItemExists(apps/alpha) = false")
	}
	if p.ItemExists("apps/gamma") {
		t.Error("ItemExists(apps/gamma) = true")
	}

	names, err := p.ChildNames("apps")
	if err != nil {
		t.Fatalf("ChildNames() error = %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Errorf("ChildNames(apps) = %v, want sorted [alpha beta]", names)
	}
	if _, err := p.ChildNames("nope"); err == nil {
		t.Error("ChildNames(nope) succeeded for a missing item")
	}
}

func TestGetPropertyAllAndPicked(t *testing.T) {
	p := newSeeded()

	ctx := core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}
	props := lastValue(t, ctx)
	if props["color"] != "red" || props["size"] != 3 {
		t.Errorf("all properties = %v, want color=red size=3", props)
	}

	ctx = core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", []string{"color", "missing"}, ctx); err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}
	props = lastValue(t, ctx)
	if len(props) != 1 || props["color"] != "red" {
		t.Errorf("picked properties = %v, want only color=red", props)
	}
}

func TestSetPropertyMerges(t *testing.T) {
	p := newSeeded()
	ctx := core.NewOpContext(nil)

	err := p.SetProperty("apps/alpha", map[string]interface{}{"color": "green", "tier": 1}, ctx)
	if err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}

	ctx = core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, ctx); err != nil {
		t.Fatal(err)
	}
	props := lastValue(t, ctx)
	if props["color"] != "green" || props["tier"] != 1 || props["size"] != 3 {
		t.Errorf("properties after set = %v", props)
	}
}

func TestSetPropertyRejectsNonMap(t *testing.T) {
	p := newSeeded()
	if err := p.SetProperty("apps/alpha", "just a string", core.NewOpContext(nil)); err == nil {
		t.Error("SetProperty accepted a non-map value")
	}
}

func TestClearProperty(t *testing.T) {
	p := newSeeded()
	ctx := core.NewOpContext(nil)

	if err := p.ClearProperty("apps/alpha", []string{"color"}, ctx); err != nil {
		t.Fatalf("ClearProperty() error = %v", err)
	}
	ctx = core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, ctx); err != nil {
		t.Fatal(err)
	}
	props := lastValue(t, ctx)
	if v, ok := props["color"]; !ok || v != nil {
		t.Errorf("color = %v (present=%v), want cleared to nil", v, ok)
	}

	if err := p.ClearProperty("apps/alpha", []string{"ghost"}, core.NewOpContext(nil)); err == nil {
		t.Error("clearing a missing property succeeded")
	}
}

func TestClearPropertyEmptyListClearsAll(t *testing.T) {
	p := newSeeded()
	if err := p.ClearProperty("apps/alpha", nil, core.NewOpContext(nil)); err != nil {
		t.Fatalf("ClearProperty() error = %v", err)
	}

	ctx := core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, ctx); err != nil {
		t.Fatal(err)
	}
	for name, v := range lastValue(t, ctx) {
		if v != nil {
			t.Errorf("property %q = %v, want nil", name, v)
		}
	}
}

func TestNewPropertyForceSemantics(t *testing.T) {
	p := newSeeded()

	ctx := core.NewOpContext(nil)
	if err := p.NewProperty("apps/alpha", "owner", "string", "ops", ctx); err != nil {
		t.Fatalf("NewProperty() error = %v", err)
	}
	if err := p.NewProperty("apps/alpha", "owner", "string", "dev", ctx); err == nil {
		t.Error("recreating an existing property without Force succeeded")
	}

	forced := core.NewOpContext(nil)
	forced.Force = true
	if err := p.NewProperty("apps/alpha", "owner", "string", "dev", forced); err != nil {
		t.Errorf("NewProperty() with Force error = %v", err)
	}
}

func TestRemoveProperty(t *testing.T) {
	p := newSeeded()
	if err := p.RemoveProperty("apps/alpha", "color", core.NewOpContext(nil)); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}
	if err := p.RemoveProperty("apps/alpha", "color", core.NewOpContext(nil)); err == nil {
		t.Error("removing a missing property succeeded")
	}
}

func TestRenameProperty(t *testing.T) {
	p := newSeeded()
	ctx := core.NewOpContext(nil)

	if err := p.RenameProperty("apps/alpha", "color", "hue", ctx); err != nil {
		t.Fatalf("RenameProperty() error = %v", err)
	}
	props := lastValue(t, ctx)
	if props["hue"] != "red" {
		t.Errorf("rename result = %v, want hue=red", props)
	}

	// destination occupied, no Force
	if err := p.RenameProperty("apps/alpha", "hue", "size", core.NewOpContext(nil)); err == nil {
		t.Error("rename onto an occupied name without Force succeeded")
	}
}

func TestRenamePropertySameNameReports(t *testing.T) {
	p := newSeeded()
	ctx := core.NewOpContext(nil)

	if err := p.RenameProperty("apps/alpha", "color", "color", ctx); err != nil {
		t.Fatalf("RenameProperty() error = %v", err)
	}
	if lastValue(t, ctx)["color"] != "red" {
		t.Error("same-name rename did not report the value")
	}
}

func TestCopyProperty(t *testing.T) {
	p := newSeeded()
	ctx := core.NewOpContext(nil)

	if err := p.CopyProperty("apps/alpha", "size", "apps/beta", "size", ctx); err != nil {
		t.Fatalf("CopyProperty() error = %v", err)
	}

	check := core.NewOpContext(nil)
	if err := p.GetProperty("apps/beta", nil, check); err != nil {
		t.Fatal(err)
	}
	if lastValue(t, check)["size"] != 3 {
		t.Error("copy did not land on the destination item")
	}
	// source keeps its property
	check = core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, check); err != nil {
		t.Fatal(err)
	}
	if lastValue(t, check)["size"] != 3 {
		t.Error("copy removed the source property")
	}
}

func TestCopyPropertyOccupiedNeedsForce(t *testing.T) {
	p := newSeeded()
	if err := p.CopyProperty("apps/alpha", "color", "apps/beta", "color", core.NewOpContext(nil)); err == nil {
		t.Error("copy onto an occupied property without Force succeeded")
	}

	forced := core.NewOpContext(nil)
	forced.Force = true
	if err := p.CopyProperty("apps/alpha", "color", "apps/beta", "color", forced); err != nil {
		t.Errorf("CopyProperty() with Force error = %v", err)
	}
}

func TestMoveProperty(t *testing.T) {
	p := newSeeded()
	ctx := core.NewOpContext(nil)

	if err := p.MoveProperty("apps/alpha", "size", "apps/beta", "size", ctx); err != nil {
		t.Fatalf("MoveProperty() error = %v", err)
	}

	check := core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, check); err != nil {
		t.Fatal(err)
	}
	if _, ok := lastValue(t, check)["size"]; ok {
		t.Error("move left the property on the source item")
	}
	check = core.NewOpContext(nil)
	if err := p.GetProperty("apps/beta", nil, check); err != nil {
		t.Fatal(err)
	}
	if lastValue(t, check)["size"] != 3 {
		t.Error("move did not land on the destination item")
	}
}

func TestMovePropertyOntoItself(t *testing.T) {
	p := newSeeded()
	if err := p.MoveProperty("apps/alpha", "color", "apps/alpha", "color", core.NewOpContext(nil)); err != nil {
		t.Fatalf("MoveProperty() onto itself error = %v", err)
	}

	check := core.NewOpContext(nil)
	if err := p.GetProperty("apps/alpha", nil, check); err != nil {
		t.Fatal(err)
	}
	if lastValue(t, check)["color"] != "red" {
		t.Error("self-move lost the property")
	}
}
