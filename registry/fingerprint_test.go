package registry

import "testing"

func TestFingerprintDeterminism(t *testing.T) {
	ids := []uint64{3, 99, 7, 3}

	a := NewFingerprint()
	b := NewFingerprint()
	for _, id := range ids {
		a = a.Combine(id)
		b = b.Combine(id)
	}

	if a != b {
		t.Errorf("identical sequences produced %x and %x", a, b)
	}
}

func TestFingerprintOrderSensitive(t *testing.T) {
	a := NewFingerprint().Combine(1).Combine(2)
	b := NewFingerprint().Combine(2).Combine(1)

	if a == b {
		t.Errorf("reordered sequence produced identical fingerprint %x", a)
	}
}

func TestFingerprintDistinguishesIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
	}{
		{"adjacent", 1, 2},
		{"high bits", 1 << 60, 1 << 61},
		{"zero vs one", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := NewFingerprint().Combine(tt.a)
			fb := NewFingerprint().Combine(tt.b)
			if fa == fb {
				t.Errorf("Combine(%d) == Combine(%d) == %x", tt.a, tt.b, fa)
			}
		})
	}
}

func TestFingerprintSeedNotZero(t *testing.T) {
	if NewFingerprint() == 0 {
		t.Error("NewFingerprint() = 0; empty sequences would collide with the zero value")
	}
}
