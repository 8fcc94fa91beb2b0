package session

import (
	"testing"
)

func newMountRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil)
	if err := r.AddProvider(&stubProvider{name: "Memory"}); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestMountAllOrdersByRootDependency(t *testing.T) {
	r := newMountRegistry(t)

	// "logs" depends on "data" but is listed first
	specs := []Drive{
		{Name: "logs", Root: "data:/var/log"},
		{Name: "data", Provider: "Memory", Root: "srv"},
	}
	if err := r.MountAll(specs); err != nil {
		t.Fatalf("MountAll() error = %v", err)
	}

	logs, ok := r.Drive("logs")
	if !ok {
		t.Fatal("logs drive was not mounted")
	}
	if logs.Root != "srv/var/log" {
		t.Errorf("logs root = %q, want srv/var/log", logs.Root)
	}
	if logs.Provider != "Memory" {
		t.Errorf("logs provider = %q, want inherited Memory", logs.Provider)
	}
}

func TestMountAllChainedDependencies(t *testing.T) {
	r := newMountRegistry(t)

	specs := []Drive{
		{Name: "c", Root: "b:/three"},
		{Name: "a", Provider: "Memory", Root: "one"},
		{Name: "b", Root: "a:/two"},
	}
	if err := r.MountAll(specs); err != nil {
		t.Fatalf("MountAll() error = %v", err)
	}
	c, _ := r.Drive("c")
	if c.Root != "one/two/three" {
		t.Errorf("c root = %q, want one/two/three", c.Root)
	}
}

func TestMountAllOnExistingDrive(t *testing.T) {
	r := newMountRegistry(t)
	if err := r.NewDrive(Drive{Name: "base", Provider: "Memory", Root: "srv"}); err != nil {
		t.Fatal(err)
	}

	if err := r.MountAll([]Drive{{Name: "sub", Root: "base:/nested"}}); err != nil {
		t.Fatalf("MountAll() error = %v", err)
	}
	sub, _ := r.Drive("sub")
	if sub.Root != "srv/nested" {
		t.Errorf("sub root = %q, want srv/nested", sub.Root)
	}
}

func TestMountAllCycleFails(t *testing.T) {
	r := newMountRegistry(t)

	err := r.MountAll([]Drive{
		{Name: "a", Root: "b:/x"},
		{Name: "b", Root: "a:/y"},
	})
	if err == nil {
		t.Fatal("MountAll() succeeded on a dependency cycle")
	}
	if _, ok := r.Drive("a"); ok {
		t.Error("drive a was mounted despite the cycle")
	}
	if _, ok := r.Drive("b"); ok {
		t.Error("drive b was mounted despite the cycle")
	}
}

func TestMountAllDuplicateNameFails(t *testing.T) {
	r := newMountRegistry(t)

	err := r.MountAll([]Drive{
		{Name: "data", Provider: "Memory"},
		{Name: "data", Provider: "Memory"},
	})
	if err == nil {
		t.Fatal("MountAll() accepted a duplicate drive name")
	}
}

func TestMountAllUnknownDependencyFails(t *testing.T) {
	r := newMountRegistry(t)

	err := r.MountAll([]Drive{{Name: "sub", Root: "ghost:/nested"}})
	if err == nil {
		t.Fatal("MountAll() accepted a root on an unknown drive")
	}
}

func TestMountAllProviderMismatchRollsBack(t *testing.T) {
	r := newMountRegistry(t)
	if err := r.AddProvider(&stubProvider{name: "FileSystem"}); err != nil {
		t.Fatal(err)
	}

	err := r.MountAll([]Drive{
		{Name: "data", Provider: "Memory", Root: "srv"},
		{Name: "sub", Provider: "FileSystem", Root: "data:/nested"},
	})
	if err == nil {
		t.Fatal("MountAll() accepted a dependent drive naming a different provider")
	}
	if _, ok := r.Drive("data"); ok {
		t.Error("data drive survived the failed batch")
	}
}
