package registry

import (
	"errors"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, &fakeQueue{}); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil, queue) error = %v, want ErrNilDevice", err)
	}
	if _, err := New(&fakeDevice{}, nil); !errors.Is(err, ErrNilQueue) {
		t.Errorf("New(device, nil) error = %v, want ErrNilQueue", err)
	}
	if _, err := New(&fakeDevice{}, &fakeQueue{}); err != nil {
		t.Errorf("New() error = %v", err)
	}
}

func TestRegistryPipelineCache(t *testing.T) {
	reg, err := New(&fakeDevice{}, &fakeQueue{})
	if err != nil {
		t.Fatal(err)
	}

	fp := NewFingerprint().Combine(1).Combine(40)
	creations := 0
	factory := func() (*Pipeline, error) {
		creations++
		return NewPipeline(nil, nil, 40, "p"), nil
	}

	first, err := reg.GetOrCreatePipeline(fp, factory)
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.GetOrCreatePipeline(fp, factory)
	if err != nil {
		t.Fatal(err)
	}

	if creations != 1 {
		t.Errorf("factory ran %d times, want 1", creations)
	}
	if first != second {
		t.Errorf("cache returned distinct pipelines %p and %p", first, second)
	}
	if first.ConstantsSize() != 40 {
		t.Errorf("ConstantsSize() = %d, want 40", first.ConstantsSize())
	}
}

func TestRegistryBindingsCache(t *testing.T) {
	reg, err := New(&fakeDevice{}, &fakeQueue{})
	if err != nil {
		t.Fatal(err)
	}

	fp := NewFingerprint().Combine(11).Combine(12)
	first, err := reg.GetOrCreateResourceBindings(fp, func() (*ResourceBindings, error) {
		return NewResourceBindings(nil, "bg"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.GetOrCreateResourceBindings(fp, func() (*ResourceBindings, error) {
		t.Error("factory ran for an existing entry")
		return NewResourceBindings(nil, "bg2"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("cache returned distinct bindings %p and %p", first, second)
	}
}

func TestRegistryClear(t *testing.T) {
	reg, err := New(&fakeDevice{}, &fakeQueue{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reg.GetOrCreatePipeline(NewFingerprint().Combine(1), func() (*Pipeline, error) {
		return NewPipeline(nil, nil, 4, "p"), nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.GetOrCreateResourceBindings(NewFingerprint().Combine(2), func() (*ResourceBindings, error) {
		return NewResourceBindings(nil, "bg"), nil
	}); err != nil {
		t.Fatal(err)
	}

	reg.Clear()

	stats := reg.Stats()
	if stats.Pipelines.Len != 0 || stats.Bindings.Len != 0 {
		t.Errorf("Stats() after Clear = %+v, want empty caches", stats)
	}
}

func TestRegistryGlobalComputeCmds(t *testing.T) {
	reg, err := New(&fakeDevice{}, &fakeQueue{})
	if err != nil {
		t.Fatal(err)
	}

	a := reg.GlobalComputeCmds()
	b := reg.GlobalComputeCmds()
	if a != b {
		t.Errorf("GlobalComputeCmds() returned distinct streams %p and %p", a, b)
	}
}

func TestRegistryCommitIdle(t *testing.T) {
	q := &fakeQueue{}
	reg, err := New(&fakeDevice{}, q)
	if err != nil {
		t.Fatal(err)
	}

	if err := reg.Commit(); err != nil {
		t.Errorf("Commit() with no stream error = %v", err)
	}
	reg.GlobalComputeCmds()
	if err := reg.Commit(); err != nil {
		t.Errorf("Commit() with idle stream error = %v", err)
	}
	if q.submits != 0 {
		t.Errorf("submits = %d, want 0", q.submits)
	}
}
