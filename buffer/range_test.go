package buffer

import "testing"

// testHandle is a minimal device buffer stand-in.
type testHandle struct {
	raw uintptr
}

func (h *testHandle) NativeHandle() uintptr { return h.raw }

func TestResourceIdentity(t *testing.T) {
	h := &testHandle{raw: 1}
	a := NewResource(h, 0, 12, FormatFloat32x3)
	b := NewResource(h, 0, 12, FormatFloat32x3)

	if a.ID() == b.ID() {
		t.Errorf("distinct resources share id %d", a.ID())
	}
	if !a.Valid() {
		t.Error("Valid() = false for backed resource")
	}
}

func TestResourceValid(t *testing.T) {
	tests := []struct {
		name string
		res  *Resource
		want bool
	}{
		{"nil resource", nil, false},
		{"no handle", NewResource(nil, 0, 0, FormatFloat32), false},
		{"backed", NewResource(&testHandle{}, 0, 4, FormatFloat32), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticRange(t *testing.T) {
	h := &testHandle{raw: 7}
	points := NewResource(h, 0, 12, FormatFloat32x3)
	normals := NewResource(h, 4096, 12, FormatFloat32x3)

	rng := NewStaticRange(16).
		AddResource("points", 0, points).
		AddResource("normals", 4096, normals)

	if got := rng.ElementOffset(); got != 16 {
		t.Errorf("ElementOffset() = %d, want 16", got)
	}
	if got := rng.Resource("points"); got != points {
		t.Errorf("Resource(points) = %p, want %p", got, points)
	}
	if got := rng.Resource("absent"); got != nil {
		t.Errorf("Resource(absent) = %v, want nil", got)
	}
	if got := rng.ByteOffset("normals"); got != 4096 {
		t.Errorf("ByteOffset(normals) = %d, want 4096", got)
	}

	resources := rng.Resources()
	if len(resources) != 2 {
		t.Fatalf("Resources() len = %d, want 2", len(resources))
	}
	if resources[0].Name != "points" || resources[1].Name != "normals" {
		t.Errorf("Resources() order = [%s, %s], want [points, normals]",
			resources[0].Name, resources[1].Name)
	}
}

func TestStaticRangeReplaceKeepsPosition(t *testing.T) {
	h := &testHandle{}
	first := NewResource(h, 0, 12, FormatFloat32x3)
	second := NewResource(h, 128, 12, FormatFloat32x3)
	other := NewResource(h, 64, 4, FormatFloat32)

	rng := NewStaticRange(0).
		AddResource("points", 0, first).
		AddResource("widths", 64, other).
		AddResource("points", 128, second)

	resources := rng.Resources()
	if len(resources) != 2 {
		t.Fatalf("Resources() len = %d, want 2", len(resources))
	}
	if resources[0].Name != "points" {
		t.Errorf("replaced entry moved to position %d", 1)
	}
	if rng.Resource("points") != second {
		t.Error("Resource(points) still returns the replaced entry")
	}
	if got := rng.ByteOffset("points"); got != 128 {
		t.Errorf("ByteOffset(points) = %d, want 128", got)
	}
}
