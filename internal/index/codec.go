package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Binary artifact layout, all integers little-endian:
//
//	magic   "RSIX"        4 bytes
//	version uint32        format version, currently 1
//	dim     uint32
//	count   uint32
//	build   [16]byte      UUID shared with the metadata artifact
//	payload count*dim float32
//
// Decode validates the exact payload size so a truncated or padded object
// is rejected instead of producing a silently misaligned index.

const (
	formatVersion = 1
	headerSize    = 4 + 4 + 4 + 4 + 16
)

var indexMagic = [4]byte{'R', 'S', 'I', 'X'}

// ErrCorrupt signals an index artifact that failed structural validation.
var ErrCorrupt = errors.New("corrupt index artifact")

// EncodeFlat serializes the index with the build ID it was produced under.
func EncodeFlat(f *Flat, buildID uuid.UUID) ([]byte, error) {
	if f == nil {
		return nil, errors.New("index: encode nil index")
	}
	count := f.Count()
	out := make([]byte, headerSize+4*f.dim*count)

	copy(out[0:4], indexMagic[:])
	binary.LittleEndian.PutUint32(out[4:8], formatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(count))
	copy(out[16:32], buildID[:])

	off := headerSize
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(out[off:off+4], math.Float32bits(v))
		off += 4
	}
	return out, nil
}

// DecodeFlat restores an index and the build ID it was encoded with.
func DecodeFlat(data []byte) (*Flat, uuid.UUID, error) {
	if len(data) < headerSize {
		return nil, uuid.Nil, fmt.Errorf("index: artifact too short (%d bytes): %w", len(data), ErrCorrupt)
	}
	if [4]byte(data[0:4]) != indexMagic {
		return nil, uuid.Nil, fmt.Errorf("index: bad magic %q: %w", data[0:4], ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return nil, uuid.Nil, fmt.Errorf("index: unsupported format version %d: %w", v, ErrCorrupt)
	}

	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))
	if dim <= 0 {
		return nil, uuid.Nil, fmt.Errorf("index: invalid dimension %d: %w", dim, ErrCorrupt)
	}

	var buildID uuid.UUID
	copy(buildID[:], data[16:32])

	want := headerSize + 4*dim*count
	if len(data) != want {
		return nil, uuid.Nil, fmt.Errorf("index: artifact size mismatch: got %d want %d: %w",
			len(data), want, ErrCorrupt)
	}

	f := &Flat{dim: dim, data: make([]float32, dim*count)}
	off := headerSize
	for i := range f.data {
		f.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
	}
	return f, buildID, nil
}
