package index

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCodec_RoundTrip(t *testing.T) {
	f := buildFlat(t, 3,
		[]float32{0.1, 0.2, 0.3},
		[]float32{-1, 0, 1},
	)
	id := uuid.New()

	data, err := EncodeFlat(f, id)
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}

	got, gotID, err := DecodeFlat(data)
	if err != nil {
		t.Fatalf("DecodeFlat: %v", err)
	}
	if gotID != id {
		t.Errorf("build id mismatch: got %s want %s", gotID, id)
	}
	if got.Dimensions() != 3 || got.Count() != 2 {
		t.Fatalf("expected dim=3 count=2, got dim=%d count=%d", got.Dimensions(), got.Count())
	}
	for i := 0; i < f.Count(); i++ {
		want := f.Vector(i)
		have := got.Vector(i)
		for j := range want {
			if want[j] != have[j] {
				t.Fatalf("vector %d component %d mismatch: got %v want %v", i, j, have[j], want[j])
			}
		}
	}
}

func TestCodec_EmptyIndex(t *testing.T) {
	f := buildFlat(t, 4)

	data, err := EncodeFlat(f, uuid.New())
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	got, _, err := DecodeFlat(data)
	if err != nil {
		t.Fatalf("DecodeFlat: %v", err)
	}
	if got.Count() != 0 || got.Dimensions() != 4 {
		t.Errorf("expected empty dim=4 index, got dim=%d count=%d", got.Dimensions(), got.Count())
	}
}

func TestDecodeFlat_TooShort(t *testing.T) {
	_, _, err := DecodeFlat([]byte{0x01, 0x02})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecodeFlat_BadMagic(t *testing.T) {
	f := buildFlat(t, 2, []float32{1, 2})
	data, _ := EncodeFlat(f, uuid.New())
	data[0] = 'X'

	_, _, err := DecodeFlat(data)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecodeFlat_UnsupportedVersion(t *testing.T) {
	f := buildFlat(t, 2, []float32{1, 2})
	data, _ := EncodeFlat(f, uuid.New())
	data[4] = 0xFF

	_, _, err := DecodeFlat(data)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecodeFlat_SizeMismatch(t *testing.T) {
	f := buildFlat(t, 2, []float32{1, 2}, []float32{3, 4})
	data, _ := EncodeFlat(f, uuid.New())

	truncated := data[:len(data)-4]
	if _, _, err := DecodeFlat(truncated); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt for truncated payload, got %v", err)
	}

	padded := append(append([]byte(nil), data...), 0, 0, 0, 0)
	if _, _, err := DecodeFlat(padded); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt for padded payload, got %v", err)
	}
}
