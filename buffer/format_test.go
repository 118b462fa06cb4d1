package buffer

import "testing"

func TestFormatComponents(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		components int
		byteSize   int
	}{
		{"int32", FormatInt32, 1, 4},
		{"int32x2", FormatInt32x2, 2, 8},
		{"int32x3", FormatInt32x3, 3, 12},
		{"int32x4", FormatInt32x4, 4, 16},
		{"uint32", FormatUint32, 1, 4},
		{"float32", FormatFloat32, 1, 4},
		{"float32x2", FormatFloat32x2, 2, 8},
		{"float32x3", FormatFloat32x3, 3, 12},
		{"float32x4", FormatFloat32x4, 4, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.ComponentCount(); got != tt.components {
				t.Errorf("ComponentCount() = %d, want %d", got, tt.components)
			}
			if got := tt.format.ComponentSize(); got != 4 {
				t.Errorf("ComponentSize() = %d, want 4", got)
			}
			if got := tt.format.ByteSize(); got != tt.byteSize {
				t.Errorf("ByteSize() = %d, want %d", got, tt.byteSize)
			}
			if !tt.format.Valid() {
				t.Error("Valid() = false, want true")
			}
		})
	}
}

func TestFormatUndefined(t *testing.T) {
	if FormatUndefined.Valid() {
		t.Error("FormatUndefined.Valid() = true, want false")
	}
	if got := FormatUndefined.ComponentCount(); got != 0 {
		t.Errorf("ComponentCount() = %d, want 0", got)
	}
	if got := FormatUndefined.ByteSize(); got != 0 {
		t.Errorf("ByteSize() = %d, want 0", got)
	}
}

func TestFormatString(t *testing.T) {
	if got := FormatFloat32x3.String(); got != "float32x3" {
		t.Errorf("String() = %q, want %q", got, "float32x3")
	}
	if got := FormatUndefined.String(); got != "undefined" {
		t.Errorf("String() = %q, want %q", got, "undefined")
	}
}
