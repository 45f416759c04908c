package oleps

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// fromHex decodes a hex string; whitespace is ignored.
func fromHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func le64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// typed wraps a payload in a TypedPropertyValue header and pads it.
func typed(t PropertyType, payload ...[]byte) []byte {
	return pad4(cat(le16(uint16(t)), le16(0), cat(payload...)))
}

// lpstr encodes a null terminated code page string for an 8-bit code page.
func lpstr(s string) []byte {
	b := append([]byte(s), 0)
	return pad4(cat(le32(uint32(len(b))), b))
}

func utf16z(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, le16(u)...)
	}
	return append(b, 0, 0)
}

// lpwstrCP encodes a CodePageString under the Unicode code page.
func lpwstrCP(s string) []byte {
	b := utf16z(s)
	return pad4(cat(le32(uint32(len(b))), b))
}

// lpwstr encodes a UnicodeString: the length counts characters.
func lpwstr(s string) []byte {
	b := utf16z(s)
	return pad4(cat(le32(uint32(len(b)/2)), b))
}

func guidBytes(g guid.GUID) []byte {
	a := g.ToWindowsArray()
	return a[:]
}

type testProp struct {
	id  PropertyID
	raw []byte
}

// buildSet lays out a property set: header, offset table, then the values
// in order.
func buildSet(props ...testProp) []byte {
	headerLen := 8 + 8*len(props)
	var table, values []byte
	for _, p := range props {
		table = append(table, le32(uint32(p.id))...)
		table = append(table, le32(uint32(headerLen+len(values)))...)
		values = append(values, p.raw...)
	}
	size := uint32(headerLen + len(values))
	return cat(le32(size), le32(uint32(len(props))), table, values)
}

type testSet struct {
	fmtid guid.GUID
	data  []byte
}

// buildStream lays out a property set stream holding sets in order.
func buildStream(version uint16, sets ...testSet) []byte {
	headerLen := 28 + 20*len(sets)
	var ids, body []byte
	for _, s := range sets {
		ids = append(ids, guidBytes(s.fmtid)...)
		ids = append(ids, le32(uint32(headerLen+len(body)))...)
		body = append(body, s.data...)
	}
	return cat(le16(0xFFFE), le16(version), le32(0x00020006), make([]byte, 16),
		le32(uint32(len(sets))), ids, body)
}

func codePageProp(cp CodePage) testProp {
	return testProp{PIDCodePage, typed(VT_I2, le16(uint16(cp)))}
}

// packing says where a payload sits: a standalone value, a raw vector or
// array element, or the payload of a variant element.
type packing int

const (
	standalone packing = iota
	element
	inVariant
)

// encodeValue is the inverse of the decoder. Vector and array elements are
// written without their own padding, and nested CodePageStrings are packed.
func encodeValue(tv TypedValue) []byte {
	b := cat(le16(uint16(tv.Type)), le16(0), encodePayload(tv.Type, tv.Value, standalone))
	if tv.Type == VT_VECTOR|VT_VARIANT || tv.Type == VT_ARRAY|VT_VARIANT {
		return b
	}
	return pad4(b)
}

func encodePayload(t PropertyType, v Value, at packing) []byte {
	switch v := v.(type) {
	case Vector:
		out := le32(uint32(len(v.Values)))
		for _, e := range v.Values {
			out = append(out, encodePayload(v.Elem, e, element)...)
		}
		return out
	case Array:
		out := cat(le32(uint32(v.Elem)), le32(uint32(len(v.Dims))))
		for _, dim := range v.Dims {
			out = append(out, cat(le32(dim.Size), le32(uint32(dim.IndexOffset)))...)
		}
		for _, e := range v.Values {
			out = append(out, encodePayload(v.Elem, e, element)...)
		}
		return out
	case Empty, Null:
		return nil
	case Int8:
		return scalar(at, []byte{byte(v)})
	case Uint8:
		return scalar(at, []byte{byte(v)})
	case Int16:
		return scalar(at, le16(uint16(v)))
	case Uint16:
		return scalar(at, le16(uint16(v)))
	case Bool:
		if v {
			return scalar(at, le16(0xFFFF))
		}
		return scalar(at, le16(0))
	case Int32:
		return le32(uint32(v))
	case Uint32:
		return le32(uint32(v))
	case HResult:
		return le32(uint32(v))
	case Int64:
		return le64(uint64(v))
	case Uint64:
		return le64(uint64(v))
	case Float32:
		return le32(math.Float32bits(float32(v)))
	case Float64:
		return le64(math.Float64bits(float64(v)))
	case Date:
		return le64(math.Float64bits(float64(v)))
	case Currency:
		return le64(uint64(v))
	case Filetime:
		return le64(uint64(v))
	case CLSID:
		return guidBytes(v.GUID)
	case Decimal:
		var sign byte
		if v.Negative {
			sign = 0x80
		}
		return cat(le16(0), []byte{v.Scale, sign}, le32(v.Hi32), le64(v.Lo64))
	case String:
		if t == VT_LPWSTR {
			return lpwstr(string(v))
		}
		return codePageString(at, string(v))
	case IndirectName:
		return codePageString(at, v.Name)
	case VersionedStream:
		return cat(guidBytes(v.Version.GUID), codePageString(at, v.Name))
	case Blob:
		return pad4(cat(le32(uint32(len(v))), v))
	case ClipboardData:
		return pad4(cat(le32(uint32(4+len(v.Data))), le32(uint32(v.Format)), v.Data))
	case TypedValue:
		return cat(le16(uint16(v.Type)), le16(0), encodePayload(v.Type, v.Value, inVariant))
	}
	panic("encodePayload: unsupported value")
}

// scalar pads a narrow scalar to four bytes unless it is a vector element.
func scalar(at packing, b []byte) []byte {
	if at == element {
		return b
	}
	return pad4(b)
}

// codePageString writes an 8-bit CodePageString, padded only when it
// stands alone.
func codePageString(at packing, s string) []byte {
	if at == standalone {
		return lpstr(s)
	}
	b := append([]byte(s), 0)
	return cat(le32(uint32(len(b))), b)
}

// summaryInformationStream builds a small SummaryInformation stream in
// code page 1252.
func summaryInformationStream() []byte {
	set := buildSet(
		codePageProp(CP_WINDOWS),
		testProp{PIDSI_TITLE, typed(VT_LPSTR, lpstr("Joe's document"))},
		testProp{PIDSI_AUTHOR, typed(VT_LPSTR, lpstr("Cornelius"))},
		testProp{PIDSI_EDITTIME, typed(VT_FILETIME, le64(286200000000))},
		testProp{PIDSI_CREATE_DTM, typed(VT_FILETIME, le64(0x01C6CE2AD5F21C00))},
		testProp{PIDSI_PAGECOUNT, typed(VT_I4, le32(1))},
		testProp{PIDSI_WORDCOUNT, typed(VT_I4, le32(3557))},
		testProp{PIDSI_DOC_SECURITY, typed(VT_I4, le32(2))},
	)
	return buildStream(0, testSet{FMTIDSummaryInformation, set})
}

// docSummaryInformationStream builds a DocumentSummaryInformation stream
// followed by a Unicode user defined property set with a dictionary.
func docSummaryInformationStream() []byte {
	dsi := buildSet(
		codePageProp(CP_WINDOWS),
		testProp{PIDDSI_COMPANY, typed(VT_LPSTR, lpstr("Example Ltd"))},
		testProp{PIDDSI_LINECOUNT, typed(VT_I4, le32(42))},
		testProp{PIDDSI_SCALE, typed(VT_BOOL, le16(0))},
		testProp{PIDDSI_HEADINGPAIR, pad4(encodeValue(TypedValue{VT_VECTOR | VT_VARIANT, Vector{VT_VARIANT, []Value{
			TypedValue{VT_LPSTR, String("Title")},
			TypedValue{VT_I4, Int32(1)},
		}}}))},
		testProp{PIDDSI_DOCPARTS, encodeValue(TypedValue{VT_VECTOR | VT_LPSTR, Vector{VT_LPSTR, []Value{
			String("Joe's document"),
		}}})},
		testProp{PIDDSI_VERSION, typed(VT_I4, le32(0x000C0000))},
	)
	ud := buildSet(
		codePageProp(CP_WINUNICODE),
		testProp{PIDDictionary, dictionaryPacket(unicodeEntry(2, "Reviewer"), unicodeEntry(3, "Price(GBP)"))},
		testProp{2, typed(VT_LPSTR, lpwstrCP("Alice"))},
		testProp{3, typed(VT_CY, le64(1331200))},
	)
	return buildStream(0, testSet{FMTIDDocSummaryInformation, dsi}, testSet{FMTIDUserDefinedProperties, ud})
}
