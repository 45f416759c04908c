package oleps

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// Value is a decoded property value. The set of implementations is closed;
// switch on the concrete type to consume it.
type Value interface {
	isValue()
}

type (
	Empty   struct{}
	Null    struct{}
	Int8    int8
	Uint8   uint8
	Int16   int16
	Uint16  uint16
	Int32   int32
	Uint32  uint32
	Int64   int64
	Uint64  uint64
	Float32 float32
	Float64 float64
	Bool    bool
	HResult uint32
	String  string
	Blob    []byte
)

// Currency is a VT_CY value: a fixed point number scaled by 10000.
type Currency int64

// Date is a VT_DATE value: an OLE Automation date.
type Date float64

// Filetime is a VT_FILETIME value: 100 nanosecond ticks since
// 1601-01-01 UTC.
type Filetime uint64

// Decimal is a VT_DECIMAL value: a 96-bit unsigned integer with a
// base 10 scale and a sign.
type Decimal struct {
	Scale    uint8
	Negative bool
	Hi32     uint32
	Lo64     uint64
}

// CLSID is a GUID stored in its Windows byte layout.
type CLSID struct {
	guid.GUID
}

// Clipboard formats of a ClipboardData value.
const (
	CF_NONE    int32 = 0
	CF_WINDOWS int32 = -1
	CF_MAC     int32 = -2
	CF_FMTID   int32 = -3
)

// ClipboardData is a VT_CF value. Format is one of the CF_ constants, or
// the length of a clipboard format name when positive.
type ClipboardData struct {
	Format int32
	Data   []byte
}

// IndirectName names a stream or storage holding the real value of a
// non-simple property.
type IndirectName struct {
	Type PropertyType
	Name string
}

// VersionedStream is a VT_VERSIONED_STREAM value.
type VersionedStream struct {
	Version CLSID
	Name    string
}

// Vector is a VT_VECTOR value. Elements of a vector of VT_VARIANT are
// TypedValue.
type Vector struct {
	Elem   PropertyType
	Values []Value
}

// ArrayDimension describes one dimension of an Array.
type ArrayDimension struct {
	Size        uint32
	IndexOffset int32
}

// Array is a VT_ARRAY value with elements in row-major order.
type Array struct {
	Elem   PropertyType
	Dims   []ArrayDimension
	Values []Value
}

// TypedValue is a value together with its type tag. It is also the element
// type of vectors and arrays of VT_VARIANT.
type TypedValue struct {
	Type  PropertyType
	Value Value
}

func (Empty) isValue()           {}
func (Null) isValue()            {}
func (Int8) isValue()            {}
func (Uint8) isValue()           {}
func (Int16) isValue()           {}
func (Uint16) isValue()          {}
func (Int32) isValue()           {}
func (Uint32) isValue()          {}
func (Int64) isValue()           {}
func (Uint64) isValue()          {}
func (Float32) isValue()         {}
func (Float64) isValue()         {}
func (Bool) isValue()            {}
func (HResult) isValue()         {}
func (String) isValue()          {}
func (Blob) isValue()            {}
func (Currency) isValue()        {}
func (Date) isValue()            {}
func (Filetime) isValue()        {}
func (Decimal) isValue()         {}
func (CLSID) isValue()           {}
func (ClipboardData) isValue()   {}
func (IndirectName) isValue()    {}
func (VersionedStream) isValue() {}
func (Vector) isValue()          {}
func (Array) isValue()           {}
func (TypedValue) isValue()      {}

func clsidFromWindowsArray(a [16]byte) CLSID {
	return CLSID{guid.FromWindowsArray(a)}
}

// ParseCLSID parses the canonical xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx form,
// with or without braces.
func ParseCLSID(s string) (CLSID, error) {
	g, err := guid.FromString(strings.Trim(s, "{}"))
	if err != nil {
		return CLSID{}, err
	}
	return CLSID{g}, nil
}

// Float64 returns the currency amount.
func (c Currency) Float64() float64 {
	return float64(c) / 10000
}

func (c Currency) String() string {
	return big.NewRat(int64(c), 10000).FloatString(4)
}

// Time converts the date to UTC.
func (d Date) Time() (time.Time, error) {
	return OADateAsTime(float64(d))
}

const filetimeUnixEpoch = 116444736000000000 // 1970-01-01 in FILETIME ticks

// Time converts the FILETIME to UTC.
func (f Filetime) Time() time.Time {
	secs := int64(f/10000000) - filetimeUnixEpoch/10000000
	nsec := int64(f%10000000) * 100
	return time.Unix(secs, nsec).UTC()
}

// Duration interprets the FILETIME as an elapsed interval, as used for
// editing time. Intervals beyond about 292 years are clamped.
func (f Filetime) Duration() time.Duration {
	if f > math.MaxInt64/100 {
		return math.MaxInt64
	}
	return time.Duration(f) * 100
}

// IsZero reports whether the FILETIME is unset.
func (f Filetime) IsZero() bool {
	return f == 0
}

// Rat returns the exact value of the decimal.
func (d Decimal) Rat() *big.Rat {
	n := new(big.Int).SetUint64(uint64(d.Hi32))
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(d.Lo64))
	if d.Negative {
		n.Neg(n)
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil)
	return new(big.Rat).SetFrac(n, den)
}

// Float64 returns the nearest float64 to the decimal.
func (d Decimal) Float64() float64 {
	f, _ := d.Rat().Float64()
	return f
}

func (d Decimal) String() string {
	return d.Rat().FloatString(int(d.Scale))
}

// Strings returns the elements of a vector of strings.
func (v Vector) Strings() []string {
	out := make([]string, 0, len(v.Values))
	for _, e := range v.Values {
		switch s := e.(type) {
		case String:
			out = append(out, string(s))
		case TypedValue:
			if str, ok := s.Value.(String); ok {
				out = append(out, string(str))
			}
		}
	}
	return out
}

// Elements returns the elements of a vector as T. It reports false if any
// element has a different type.
func Elements[T Value](v Vector) ([]T, bool) {
	out := make([]T, len(v.Values))
	for i, e := range v.Values {
		t, ok := e.(T)
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// FormatValue renders a value for display.
func FormatValue(v Value) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case Empty:
		return "empty"
	case Null:
		return "null"
	case Int8, Int16, Int32, Int64:
		return fmt.Sprintf("%d", v)
	case Uint8, Uint16, Uint32, Uint64:
		return fmt.Sprintf("%d", v)
	case Float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(v))
	case HResult:
		return fmt.Sprintf("0x%08x", uint32(v))
	case String:
		return strconv.QuoteToASCII(string(v))
	case Blob:
		return fmt.Sprintf("blob[%d]", len(v))
	case Currency:
		return v.String()
	case Date:
		t, err := v.Time()
		if err != nil {
			return fmt.Sprintf("date(%v)", float64(v))
		}
		return t.Format(time.RFC3339)
	case Filetime:
		return v.Time().Format(time.RFC3339Nano)
	case Decimal:
		return v.String()
	case CLSID:
		return "{" + strings.ToUpper(v.String()) + "}"
	case ClipboardData:
		return fmt.Sprintf("clipboard(format=%d, %d bytes)", v.Format, len(v.Data))
	case IndirectName:
		return fmt.Sprintf("%s(%q)", v.Type, v.Name)
	case VersionedStream:
		return fmt.Sprintf("versioned_stream(%s, %q)", FormatValue(v.Version), v.Name)
	case Vector:
		parts := make([]string, len(v.Values))
		for i, e := range v.Values {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Array:
		parts := make([]string, len(v.Values))
		for i, e := range v.Values {
			parts[i] = FormatValue(e)
		}
		dims := make([]string, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = strconv.FormatUint(uint64(d.Size), 10)
		}
		return strings.Join(dims, "x") + "[" + strings.Join(parts, ", ") + "]"
	case TypedValue:
		return v.Type.String() + ":" + FormatValue(v.Value)
	}
	return fmt.Sprintf("%v", v)
}
