package oleps

import (
	"encoding/binary"
	"math"
)

// reader is a bounds-checked little-endian cursor over a property set
// stream. Every failed read reports a *CorruptedError at the failing offset.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) need(n int, what string) error {
	if n < 0 || n > r.remaining() {
		return newCorrupted(r.pos, "insufficient data for %s: need %d bytes, have %d", what, n, r.remaining())
	}
	return nil
}

func (r *reader) seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return newCorrupted(r.pos, "offset %d outside stream of %d bytes", pos, len(r.data))
	}
	r.pos = pos
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1, "byte"); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2, "uint16"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8, "uint64"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) f64() (float64, error) {
	v, err := r.u64()
	return math.Float64frombits(v), err
}

// bytes returns a copy of the next n bytes.
func (r *reader) bytes(n int, what string) ([]byte, error) {
	if err := r.need(n, what); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

func (r *reader) guid() (CLSID, error) {
	if err := r.need(16, "GUID"); err != nil {
		return CLSID{}, err
	}
	var a [16]byte
	copy(a[:], r.data[r.pos:r.pos+16])
	r.pos += 16
	return clsidFromWindowsArray(a), nil
}

func (r *reader) skip(n int, what string) error {
	if err := r.need(n, what); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// pad advances to the next 4-byte boundary measured from start.
func (r *reader) pad(start int) error {
	if n := padLen(r.pos - start); n > 0 {
		return r.skip(n, "padding")
	}
	return nil
}

func padLen(n int) int {
	return (4 - n%4) % 4
}
