package oleps

import (
	"math"

	"github.com/op/go-logging"
)

// decoder carries the state shared by one decode call: the cursor, the
// options and the logger. It is never shared between calls.
type decoder struct {
	r       *reader
	opts    *Options
	log     *logging.Logger
	version uint16
	depth   int
}

// maxValueDepth bounds how deeply variants may nest inside vectors and
// arrays of variants.
const maxValueDepth = 8

func newDecoder(data []byte, opts *Options) *decoder {
	opts = opts.orDefault()
	return &decoder{
		r:       newReader(data),
		opts:    opts,
		log:     newLogger(opts),
		version: 1,
	}
}

// ReadTypedValue decodes one TypedPropertyValue at the start of data and
// returns it with the number of bytes consumed, padding included. A zero
// codePage means the code page is not known; code page strings then fail to
// decode.
func ReadTypedValue(data []byte, codePage CodePage, opts *Options) (TypedValue, int, error) {
	d := newDecoder(data, opts)
	tv, err := d.readTypedValue(codePage, false)
	if err != nil {
		return TypedValue{}, 0, err
	}
	return tv, d.r.pos, nil
}

// readTypedValue decodes a type tag, the reserved field and the payload.
// Variant elements skip the final 4-byte alignment; the enclosing vector or
// array owns it.
func (d *decoder) readTypedValue(cp CodePage, variant bool) (TypedValue, error) {
	start := d.r.pos
	if d.depth >= maxValueDepth {
		return TypedValue{}, newCorrupted(start, "values nested more than %d deep", maxValueDepth)
	}
	d.depth++
	defer func() { d.depth-- }()
	tag, err := d.r.u16()
	if err != nil {
		return TypedValue{}, err
	}
	reserved, err := d.r.u16()
	if err != nil {
		return TypedValue{}, err
	}
	t := PropertyType(tag)
	if !t.Valid() {
		return TypedValue{}, newCorrupted(start, "unknown property type 0x%04x", tag)
	}
	if reserved != 0 {
		if !d.opts.AllowNonzeroReserved {
			return TypedValue{}, newCorrupted(start+2, "nonzero padding 0x%04x after type %s", reserved, t)
		}
		d.log.Infof("ignoring nonzero padding 0x%04x after type %s at %d", reserved, t, start)
	}
	if t.MinVersion() > d.version {
		d.log.Infof("type %s at %d is not allowed in a version %d stream", t, start, d.version)
	}

	v, err := d.readValue(t, cp, variant)
	if err != nil {
		return TypedValue{}, err
	}
	if !variant && t != VT_VECTOR|VT_VARIANT && t != VT_ARRAY|VT_VARIANT {
		if err := d.r.pad(start); err != nil {
			return TypedValue{}, err
		}
	}
	return TypedValue{Type: t, Value: v}, nil
}

// scalarPadding is the padding that follows a scalar narrower than four
// bytes in a TypedPropertyValue.
var scalarPadding = map[PropertyType]int{
	VT_I1:   3,
	VT_UI1:  3,
	VT_I2:   2,
	VT_UI2:  2,
	VT_BOOL: 2,
}

func (d *decoder) readValue(t PropertyType, cp CodePage, variant bool) (Value, error) {
	switch {
	case t.IsVector():
		return d.readVector(t.Base(), cp)
	case t.IsArray():
		return d.readArray(t, cp)
	}
	switch t {
	case VT_EMPTY:
		return Empty{}, nil
	case VT_NULL:
		return Null{}, nil
	}
	v, err := d.readElement(t, cp, variant)
	if err != nil {
		return nil, err
	}
	if n := scalarPadding[t]; n > 0 {
		if err := d.r.skip(n, "padding"); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// readElement reads one value of base type t with no trailing padding of
// its own, except what string packets carry.
func (d *decoder) readElement(t PropertyType, cp CodePage, variant bool) (Value, error) {
	r := d.r
	switch t {
	case VT_I1:
		v, err := r.u8()
		return Int8(v), err
	case VT_UI1:
		v, err := r.u8()
		return Uint8(v), err
	case VT_I2:
		v, err := r.u16()
		return Int16(v), err
	case VT_UI2:
		v, err := r.u16()
		return Uint16(v), err
	case VT_I4, VT_INT:
		v, err := r.u32()
		return Int32(v), err
	case VT_UI4, VT_UINT:
		v, err := r.u32()
		return Uint32(v), err
	case VT_I8:
		v, err := r.u64()
		return Int64(v), err
	case VT_UI8:
		v, err := r.u64()
		return Uint64(v), err
	case VT_R4:
		v, err := r.f32()
		return Float32(v), err
	case VT_R8:
		v, err := r.f64()
		return Float64(v), err
	case VT_CY:
		v, err := r.u64()
		return Currency(v), err
	case VT_DATE:
		v, err := r.f64()
		return Date(v), err
	case VT_ERROR:
		v, err := r.u32()
		return HResult(v), err
	case VT_BOOL:
		// VARIANT_BOOL: 0xFFFF is true, 0 is false.
		v, err := r.u16()
		return Bool(v != 0), err
	case VT_DECIMAL:
		return d.readDecimal()
	case VT_FILETIME:
		v, err := r.u64()
		return Filetime(v), err
	case VT_CLSID:
		return r.guid()
	case VT_BSTR, VT_LPSTR:
		s, err := d.readCodePageString(cp, variant)
		return String(s), err
	case VT_LPWSTR:
		s, err := d.readUnicodeString()
		return String(s), err
	case VT_BLOB, VT_BLOB_OBJECT:
		return d.readBlob()
	case VT_CF:
		return d.readClipboardData()
	case VT_STREAM, VT_STORAGE, VT_STREAMED_OBJECT, VT_STORED_OBJECT:
		name, err := d.readCodePageString(cp, variant)
		return IndirectName{Type: t, Name: name}, err
	case VT_VERSIONED_STREAM:
		version, err := r.guid()
		if err != nil {
			return nil, err
		}
		name, err := d.readCodePageString(cp, variant)
		return VersionedStream{Version: version, Name: name}, err
	case VT_VARIANT:
		return d.readTypedValue(cp, true)
	}
	return nil, newCorrupted(r.pos, "type %s cannot be decoded here", t)
}

// minElementSize is the smallest encoding of one element of type t. It
// bounds element counts before anything is allocated.
func minElementSize(t PropertyType) int {
	switch t {
	case VT_I1, VT_UI1:
		return 1
	case VT_I2, VT_UI2, VT_BOOL:
		return 2
	case VT_I8, VT_UI8, VT_R8, VT_CY, VT_DATE, VT_FILETIME:
		return 8
	case VT_DECIMAL, VT_CLSID:
		return 16
	}
	return 4
}

func (d *decoder) checkCount(n uint64, elem PropertyType) error {
	if n > uint64(d.r.remaining())/uint64(minElementSize(elem)) {
		return newCorrupted(d.r.pos, "%d elements of %s exceed the remaining %d bytes", n, elem, d.r.remaining())
	}
	return nil
}

// readN calls read n times and collects the results.
func readN[T any](n int, read func() (T, error)) ([]T, error) {
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := read()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) readElements(n int, elem PropertyType, cp CodePage) ([]Value, error) {
	return readN(n, func() (Value, error) {
		return d.readElement(elem, cp, true)
	})
}

func (d *decoder) readVector(elem PropertyType, cp CodePage) (Vector, error) {
	n, err := d.r.u32()
	if err != nil {
		return Vector{}, err
	}
	if err := d.checkCount(uint64(n), elem); err != nil {
		return Vector{}, err
	}
	values, err := d.readElements(int(n), elem, cp)
	if err != nil {
		return Vector{}, err
	}
	return Vector{Elem: elem, Values: values}, nil
}

const maxArrayDimensions = 31

func (d *decoder) readArray(t PropertyType, cp CodePage) (Array, error) {
	start := d.r.pos
	base, err := d.r.u32()
	if err != nil {
		return Array{}, err
	}
	if base != uint32(t.Base()) {
		return Array{}, newCorrupted(start, "array header type 0x%04x does not match %s", base, t)
	}
	ndims, err := d.r.u32()
	if err != nil {
		return Array{}, err
	}
	if ndims < 1 || ndims > maxArrayDimensions {
		return Array{}, newCorrupted(start+4, "array has %d dimensions", ndims)
	}
	if err := d.r.need(int(ndims)*8, "array dimensions"); err != nil {
		return Array{}, err
	}
	dims := make([]ArrayDimension, ndims)
	for i := range dims {
		size, _ := d.r.u32()
		offset, _ := d.r.u32()
		dims[i] = ArrayDimension{Size: size, IndexOffset: int32(offset)}
	}

	count, err := d.arrayElementCount(dims, t.Base())
	if err != nil {
		return Array{}, err
	}
	values, err := d.readElements(count, t.Base(), cp)
	if err != nil {
		return Array{}, err
	}
	return Array{Elem: t.Base(), Dims: dims, Values: values}, nil
}

// arrayElementCount multiplies the dimension sizes. Every partial product is
// checked against the remaining input, so it cannot overflow.
func (d *decoder) arrayElementCount(dims []ArrayDimension, elem PropertyType) (int, error) {
	for _, dim := range dims {
		if dim.Size == 0 {
			return 0, nil
		}
	}
	total := uint64(1)
	for _, dim := range dims {
		total *= uint64(dim.Size)
		if err := d.checkCount(total, elem); err != nil {
			return 0, err
		}
	}
	if total > math.MaxInt32 {
		return 0, newCorrupted(d.r.pos, "array of %d elements is too large", total)
	}
	return int(total), nil
}

func (d *decoder) readDecimal() (Decimal, error) {
	if err := d.r.skip(2, "DECIMAL"); err != nil {
		return Decimal{}, err
	}
	scale, err := d.r.u8()
	if err != nil {
		return Decimal{}, err
	}
	sign, err := d.r.u8()
	if err != nil {
		return Decimal{}, err
	}
	hi, err := d.r.u32()
	if err != nil {
		return Decimal{}, err
	}
	lo, err := d.r.u64()
	if err != nil {
		return Decimal{}, err
	}
	if scale > 28 {
		return Decimal{}, newCorrupted(d.r.pos-14, "DECIMAL scale %d exceeds 28", scale)
	}
	return Decimal{Scale: scale, Negative: sign&0x80 != 0, Hi32: hi, Lo64: lo}, nil
}

// endString finishes a CodePageString packet that began at start.
// Standalone values pad to four bytes; nested ones are packed unless
// PaddedNestedStrings is set.
func (d *decoder) endString(start int, variant bool) error {
	if variant && !d.opts.PaddedNestedStrings {
		return nil
	}
	return d.r.pad(start)
}

func (d *decoder) readCodePageString(cp CodePage, variant bool) (string, error) {
	start := d.r.pos
	size, err := d.r.u32()
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	if cp == 0 {
		return "", newCorrupted(start, "string without a CodePage property")
	}
	if cp.IsUnicode() && size%2 != 0 {
		return "", newCorrupted(start, "odd length %d for a UTF-16 string", size)
	}
	raw, err := d.r.bytes(int(size), "CodePageString")
	if err != nil {
		return "", err
	}

	var s string
	if cp.IsUnicode() {
		s, err = decodeUTF16(raw[:len(raw)-2])
	} else {
		var known bool
		s, known, err = decodeText(cp, raw[:len(raw)-1])
		if !known {
			d.log.Warningf("unknown code page %d, reading string at %d as latin-1", cp, start)
		}
	}
	if err != nil {
		return "", newCorrupted(start, "%v", err)
	}
	return s, d.endString(start, variant)
}

func (d *decoder) readUnicodeString() (string, error) {
	start := d.r.pos
	length, err := d.r.u32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	if length > math.MaxInt32/2 {
		return "", newCorrupted(start, "UnicodeString length %d is too large", length)
	}
	raw, err := d.r.bytes(int(length)*2, "UnicodeString")
	if err != nil {
		return "", err
	}
	s, err := decodeUTF16(raw[:len(raw)-2])
	if err != nil {
		return "", newCorrupted(start, "%v", err)
	}
	// The padding belongs to the Characters field, nested or not.
	return s, d.r.pad(start)
}

func (d *decoder) readBlob() (Blob, error) {
	start := d.r.pos
	size, err := d.r.u32()
	if err != nil {
		return nil, err
	}
	if size > math.MaxInt32 {
		return nil, newCorrupted(start, "BLOB size %d is too large", size)
	}
	b, err := d.r.bytes(int(size), "BLOB")
	if err != nil {
		return nil, err
	}
	return Blob(b), d.r.pad(start)
}

func (d *decoder) readClipboardData() (ClipboardData, error) {
	start := d.r.pos
	size, err := d.r.u32()
	if err != nil {
		return ClipboardData{}, err
	}
	if size < 4 || size > math.MaxInt32 {
		return ClipboardData{}, newCorrupted(start, "ClipboardData size %d", size)
	}
	format, err := d.r.u32()
	if err != nil {
		return ClipboardData{}, err
	}
	data, err := d.r.bytes(int(size)-4, "ClipboardData")
	if err != nil {
		return ClipboardData{}, err
	}
	return ClipboardData{Format: int32(format), Data: data}, d.r.pad(start)
}
