package compute

import (
	"errors"
	"testing"

	"github.com/gogpu/extcomp"
	"github.com/gogpu/extcomp/buffer"
)

// testHandle is a minimal device buffer stand-in.
type testHandle struct {
	raw uintptr
}

func (h *testHandle) NativeHandle() uintptr { return h.raw }

// skinningFixture is the canonical two-output, one-input setup: the
// primvars "points" and "normals" written by the kernel outputs
// "outPoints" and "outNormals", plus "restPoints" read from an input
// range. The output range is keyed by primvar name, the binder by kernel
// output name.
type skinningFixture struct {
	binder      *Binder
	outputRange *buffer.StaticRange
	outputs     []extcomp.PrimvarDescriptor
	inputs      []buffer.Range
}

func newSkinningFixture() *skinningFixture {
	binder := NewBinder()
	binder.Assign("outPoints", BindingStorageBuffer, true)
	binder.Assign("outNormals", BindingStorageBuffer, true)
	binder.Assign("restPoints", BindingReadOnlyStorageBuffer, false)

	out := &testHandle{raw: 1}
	in := &testHandle{raw: 2}

	outputRange := buffer.NewStaticRange(16).
		AddResource("points", 0, buffer.NewResource(out, 0, 12, buffer.FormatFloat32x3)).
		AddResource("normals", 4096, buffer.NewResource(out, 4096, 12, buffer.FormatFloat32x3))

	inputRange := buffer.NewStaticRange(0).
		AddResource("restPoints", 256, buffer.NewResource(in, 0, 12, buffer.FormatFloat32x3))

	return &skinningFixture{
		binder:      binder,
		outputRange: outputRange,
		outputs: []extcomp.PrimvarDescriptor{
			{Name: "points", SourceComputationID: "/skinning", SourceOutputName: "outPoints", ValueType: buffer.FormatFloat32x3},
			{Name: "normals", SourceComputationID: "/skinning", SourceOutputName: "outNormals", ValueType: buffer.FormatFloat32x3},
		},
		inputs: []buffer.Range{inputRange},
	}
}

func TestBuildBindingLayout(t *testing.T) {
	f := newSkinningFixture()

	layout := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)
	if layout.err != nil {
		t.Fatalf("layout error = %v", layout.err)
	}
	if layout.invalidBindings != 0 {
		t.Fatalf("invalid bindings = %d, want 0", layout.invalidBindings)
	}

	// element offset, (offset, stride) per output in component units,
	// (offset, count) per input.
	want := []int32{
		16,
		0, 3, // points: byte offset 0, stride 12 -> /4
		1024, 3, // normals: byte offset 4096 -> /4
		64, 3, // restPoints: range offset 256 -> /4, 3 components
	}
	if len(layout.uniforms) != len(want) {
		t.Fatalf("uniforms len = %d, want %d (%v)", len(layout.uniforms), len(want), layout.uniforms)
	}
	for i, w := range want {
		if layout.uniforms[i] != w {
			t.Errorf("uniforms[%d] = %d, want %d", i, layout.uniforms[i], w)
		}
	}

	if len(layout.buffers) != 3 {
		t.Fatalf("bound buffers = %d, want 3", len(layout.buffers))
	}
	if !layout.buffers[0].writable || !layout.buffers[1].writable {
		t.Error("output buffers must be writable")
	}
	if layout.buffers[2].writable {
		t.Error("input buffer must be read-only")
	}
	if got := layout.constantsSize(); got != len(want)*4 {
		t.Errorf("constantsSize() = %d, want %d", got, len(want)*4)
	}
}

// TestBuildBindingLayoutResolvesSourceOutputNames checks the two-name
// contract: the binder only knows the kernel output names, the range only
// the primvar names, and the layout pass joins them per descriptor.
func TestBuildBindingLayoutResolvesSourceOutputNames(t *testing.T) {
	f := newSkinningFixture()

	if f.binder.Binding("points").Valid() {
		t.Fatal("fixture binder resolves the primvar name directly")
	}
	if f.outputRange.Resource("outPoints") != nil {
		t.Fatal("fixture range resolves the kernel output name directly")
	}

	layout := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)
	if layout.invalidBindings != 0 {
		t.Errorf("invalid bindings = %d, want 0", layout.invalidBindings)
	}
	if len(layout.buffers) != 3 {
		t.Fatalf("bound buffers = %d, want 3", len(layout.buffers))
	}
	if layout.buffers[0].location != f.binder.Binding("outPoints").Location {
		t.Errorf("points bound at %d, want binder location of outPoints",
			layout.buffers[0].location)
	}
}

func TestBuildBindingLayoutDeterminism(t *testing.T) {
	f := newSkinningFixture()

	a := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)
	b := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)

	if a.fingerprint != b.fingerprint {
		t.Errorf("fingerprints differ: %x vs %x", a.fingerprint, b.fingerprint)
	}
	if len(a.uniforms) != len(b.uniforms) {
		t.Fatalf("uniform lengths differ: %d vs %d", len(a.uniforms), len(b.uniforms))
	}
	for i := range a.uniforms {
		if a.uniforms[i] != b.uniforms[i] {
			t.Errorf("uniforms[%d] differ: %d vs %d", i, a.uniforms[i], b.uniforms[i])
		}
	}
}

// TestBuildBindingLayoutSingleDirtyScenario mirrors the minimal skinning
// setup: one output ("points") plus one input attribute yields
// 1 + 2 + 2 = 5 constant entries.
func TestBuildBindingLayoutSingleDirtyScenario(t *testing.T) {
	f := newSkinningFixture()
	outputs := f.outputs[:1] // points only

	layout := buildBindingLayout(f.binder, f.outputRange, outputs, f.inputs)
	if len(layout.uniforms) != 5 {
		t.Errorf("uniforms len = %d, want 5 (%v)", len(layout.uniforms), layout.uniforms)
	}
}

// TestBuildBindingLayoutSkipsInvalid checks partial-failure isolation: an
// unresolvable attribute is skipped without disturbing the entries of the
// attributes around it. A resource whose format has no component size is
// unresolvable like a missing buffer, not a crash.
func TestBuildBindingLayoutSkipsInvalid(t *testing.T) {
	f := newSkinningFixture()

	tests := []struct {
		name    string
		mutate  func(f *skinningFixture)
		invalid int
	}{
		{
			name: "output missing from range",
			mutate: func(f *skinningFixture) {
				f.outputs = append([]extcomp.PrimvarDescriptor{
					{Name: "velocities", SourceOutputName: "outVelocities", ValueType: buffer.FormatFloat32x3},
				}, f.outputs...)
				f.binder.Assign("outVelocities", BindingStorageBuffer, true)
			},
			invalid: 1,
		},
		{
			name: "input without binding point",
			mutate: func(f *skinningFixture) {
				rng := buffer.NewStaticRange(0).
					AddResource("unbound", 0, buffer.NewResource(&testHandle{raw: 9}, 0, 4, buffer.FormatFloat32))
				f.inputs = append(f.inputs, rng)
			},
			invalid: 1,
		},
		{
			name: "output without device buffer",
			mutate: func(f *skinningFixture) {
				f.outputRange.AddResource("widths", 0, buffer.NewResource(nil, 0, 4, buffer.FormatFloat32))
				f.outputs = append(f.outputs, extcomp.PrimvarDescriptor{
					Name: "widths", SourceOutputName: "outWidths", ValueType: buffer.FormatFloat32,
				})
				f.binder.Assign("outWidths", BindingStorageBuffer, true)
			},
			invalid: 1,
		},
		{
			name: "output with undefined format",
			mutate: func(f *skinningFixture) {
				f.outputRange.AddResource("widths", 0, buffer.NewResource(&testHandle{raw: 9}, 0, 4, buffer.FormatUndefined))
				f.outputs = append(f.outputs, extcomp.PrimvarDescriptor{
					Name: "widths", SourceOutputName: "outWidths", ValueType: buffer.FormatUndefined,
				})
				f.binder.Assign("outWidths", BindingStorageBuffer, true)
			},
			invalid: 1,
		},
		{
			name: "input with undefined format",
			mutate: func(f *skinningFixture) {
				rng := buffer.NewStaticRange(0).
					AddResource("weights", 0, buffer.NewResource(&testHandle{raw: 9}, 0, 4, buffer.FormatUndefined))
				f.inputs = append(f.inputs, rng)
				f.binder.Assign("weights", BindingReadOnlyStorageBuffer, false)
			},
			invalid: 1,
		},
	}

	clean := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSkinningFixture()
			tt.mutate(f)

			layout := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)
			if layout.invalidBindings != tt.invalid {
				t.Errorf("invalid bindings = %d, want %d", layout.invalidBindings, tt.invalid)
			}
			if len(layout.uniforms) != len(clean.uniforms) {
				t.Errorf("uniforms len = %d, want %d; skipped attribute disturbed others",
					len(layout.uniforms), len(clean.uniforms))
			}
		})
	}
}

func TestBuildBindingLayoutUnsupportedInputLayout(t *testing.T) {
	f := newSkinningFixture()

	binder := NewBinder()
	binder.Assign("outPoints", BindingStorageBuffer, true)
	binder.Assign("outNormals", BindingStorageBuffer, true)
	binder.Assign("restPoints", BindingUniformBuffer, false)

	layout := buildBindingLayout(binder, f.outputRange, f.outputs, f.inputs)

	if !errors.Is(layout.err, ErrUnsupportedLayout) {
		t.Fatalf("layout error = %v, want ErrUnsupportedLayout", layout.err)
	}
	// The offending input contributes nothing; the outputs are intact.
	if len(layout.uniforms) != 5 {
		t.Errorf("uniforms len = %d, want 5 (%v)", len(layout.uniforms), layout.uniforms)
	}
	if len(layout.buffers) != 2 {
		t.Errorf("bound buffers = %d, want 2", len(layout.buffers))
	}
}

func TestBuildBindingLayoutFingerprintTracksBuffers(t *testing.T) {
	f := newSkinningFixture()
	base := buildBindingLayout(f.binder, f.outputRange, f.outputs, f.inputs)

	// A range over different resources must fingerprint differently.
	other := buffer.NewStaticRange(16).
		AddResource("points", 0, buffer.NewResource(&testHandle{raw: 5}, 0, 12, buffer.FormatFloat32x3)).
		AddResource("normals", 4096, buffer.NewResource(&testHandle{raw: 5}, 4096, 12, buffer.FormatFloat32x3))

	relocated := buildBindingLayout(f.binder, other, f.outputs, f.inputs)
	if relocated.fingerprint == base.fingerprint {
		t.Error("fingerprint unchanged after rebinding outputs to new resources")
	}
}
