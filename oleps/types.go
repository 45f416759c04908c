package oleps

import "fmt"

// PropertyType is the 16-bit tag that selects how a TypedPropertyValue
// payload is decoded.
type PropertyType uint16

// Scalar property types.
const (
	VT_EMPTY            PropertyType = 0x0000
	VT_NULL             PropertyType = 0x0001
	VT_I2               PropertyType = 0x0002
	VT_I4               PropertyType = 0x0003
	VT_R4               PropertyType = 0x0004
	VT_R8               PropertyType = 0x0005
	VT_CY               PropertyType = 0x0006
	VT_DATE             PropertyType = 0x0007
	VT_BSTR             PropertyType = 0x0008
	VT_ERROR            PropertyType = 0x000A
	VT_BOOL             PropertyType = 0x000B
	VT_VARIANT          PropertyType = 0x000C // only valid under VT_VECTOR or VT_ARRAY
	VT_DECIMAL          PropertyType = 0x000E
	VT_I1               PropertyType = 0x0010
	VT_UI1              PropertyType = 0x0011
	VT_UI2              PropertyType = 0x0012
	VT_UI4              PropertyType = 0x0013
	VT_I8               PropertyType = 0x0014
	VT_UI8              PropertyType = 0x0015
	VT_INT              PropertyType = 0x0016
	VT_UINT             PropertyType = 0x0017
	VT_LPSTR            PropertyType = 0x001E
	VT_LPWSTR           PropertyType = 0x001F
	VT_FILETIME         PropertyType = 0x0040
	VT_BLOB             PropertyType = 0x0041
	VT_STREAM           PropertyType = 0x0042
	VT_STORAGE          PropertyType = 0x0043
	VT_STREAMED_OBJECT  PropertyType = 0x0044
	VT_STORED_OBJECT    PropertyType = 0x0045
	VT_BLOB_OBJECT      PropertyType = 0x0046
	VT_CF               PropertyType = 0x0047
	VT_CLSID            PropertyType = 0x0048
	VT_VERSIONED_STREAM PropertyType = 0x0049
)

// Modifier bits.
const (
	VT_VECTOR PropertyType = 0x1000
	VT_ARRAY  PropertyType = 0x2000

	vtTypeMask PropertyType = 0x0FFF
)

var propertyTypeNames = map[PropertyType]string{
	VT_EMPTY:            "empty",
	VT_NULL:             "null",
	VT_I2:               "i2",
	VT_I4:               "i4",
	VT_R4:               "r4",
	VT_R8:               "r8",
	VT_CY:               "cy",
	VT_DATE:             "date",
	VT_BSTR:             "bstr",
	VT_ERROR:            "error",
	VT_BOOL:             "bool",
	VT_VARIANT:          "variant",
	VT_DECIMAL:          "decimal",
	VT_I1:               "i1",
	VT_UI1:              "ui1",
	VT_UI2:              "ui2",
	VT_UI4:              "ui4",
	VT_I8:               "i8",
	VT_UI8:              "ui8",
	VT_INT:              "int",
	VT_UINT:             "uint",
	VT_LPSTR:            "lpstr",
	VT_LPWSTR:           "lpwstr",
	VT_FILETIME:         "filetime",
	VT_BLOB:             "blob",
	VT_STREAM:           "stream",
	VT_STORAGE:          "storage",
	VT_STREAMED_OBJECT:  "streamed_object",
	VT_STORED_OBJECT:    "stored_object",
	VT_BLOB_OBJECT:      "blob_object",
	VT_CF:               "cf",
	VT_CLSID:            "clsid",
	VT_VERSIONED_STREAM: "versioned_stream",
}

// Base types allowed after VT_VECTOR.
var vectorBaseTypes = map[PropertyType]bool{
	VT_I2: true, VT_I4: true, VT_R4: true, VT_R8: true, VT_CY: true,
	VT_DATE: true, VT_BSTR: true, VT_ERROR: true, VT_BOOL: true,
	VT_VARIANT: true, VT_I1: true, VT_UI1: true, VT_UI2: true, VT_UI4: true,
	VT_I8: true, VT_UI8: true, VT_LPSTR: true, VT_LPWSTR: true,
	VT_FILETIME: true, VT_CF: true, VT_CLSID: true,
}

// Base types allowed after VT_ARRAY.
var arrayBaseTypes = map[PropertyType]bool{
	VT_I2: true, VT_I4: true, VT_R4: true, VT_R8: true, VT_CY: true,
	VT_DATE: true, VT_BSTR: true, VT_ERROR: true, VT_BOOL: true,
	VT_VARIANT: true, VT_DECIMAL: true, VT_I1: true, VT_UI1: true,
	VT_UI2: true, VT_UI4: true, VT_INT: true, VT_UINT: true,
}

// Types that MUST NOT appear in a version 0 property set stream.
var version1Types = map[PropertyType]bool{
	VT_I1: true, VT_UI2: true, VT_UI4: true, VT_I8: true, VT_UI8: true,
	VT_INT: true, VT_UINT: true, VT_VERSIONED_STREAM: true,
	VT_VECTOR | VT_I1: true, VT_VECTOR | VT_I8: true, VT_VECTOR | VT_UI8: true,
}

// IsVector reports whether the VT_VECTOR bit is set.
func (t PropertyType) IsVector() bool {
	return t&VT_VECTOR != 0
}

// IsArray reports whether the VT_ARRAY bit is set.
func (t PropertyType) IsArray() bool {
	return t&VT_ARRAY != 0
}

// Base returns the element type with the vector and array bits cleared.
func (t PropertyType) Base() PropertyType {
	return t & vtTypeMask
}

// Valid reports whether t is one of the tags a property set may contain.
func (t PropertyType) Valid() bool {
	switch t &^ vtTypeMask {
	case 0:
		_, ok := propertyTypeNames[t]
		return ok && t != VT_VARIANT
	case VT_VECTOR:
		return vectorBaseTypes[t.Base()]
	case VT_ARRAY:
		return arrayBaseTypes[t.Base()]
	}
	return false
}

// MinVersion returns the lowest property set stream version that may
// carry this type.
func (t PropertyType) MinVersion() uint16 {
	if t.IsArray() || version1Types[t] {
		return 1
	}
	return 0
}

func (t PropertyType) String() string {
	name, ok := propertyTypeNames[t.Base()]
	if !ok || t&^vtTypeMask&^(VT_VECTOR|VT_ARRAY) != 0 {
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	}
	switch {
	case t.IsVector() && t.IsArray():
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	case t.IsVector():
		return "vector<" + name + ">"
	case t.IsArray():
		return "array<" + name + ">"
	}
	return name
}

// PropertyID identifies a property within a property set.
type PropertyID uint32

// Special property identifiers.
const (
	PIDDictionary PropertyID = 0x00000000
	PIDCodePage   PropertyID = 0x00000001
	PIDLocale     PropertyID = 0x80000000
	PIDModifyTime PropertyID = 0x80000001
	PIDSecurity   PropertyID = 0x80000002
	PIDBehavior   PropertyID = 0x80000003

	maxOrdinaryPID PropertyID = 0x7FFFFFFF
)

var specialPIDNames = map[PropertyID]string{
	PIDDictionary: "Dictionary",
	PIDCodePage:   "CodePage",
	PIDLocale:     "Locale",
	PIDModifyTime: "ModifyTime",
	PIDSecurity:   "Security",
	PIDBehavior:   "Behavior",
}

// IsOrdinary reports whether id is in the range usable by ordinary
// properties and dictionary entries.
func (id PropertyID) IsOrdinary() bool {
	return id >= 2 && id <= maxOrdinaryPID
}

func (id PropertyID) String() string {
	if name, ok := specialPIDNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", uint32(id))
}

// Behavior selects how property names in the dictionary are compared.
type Behavior uint32

const (
	CaseInsensitive Behavior = 0
	CaseSensitive   Behavior = 1
)

func (b Behavior) String() string {
	switch b {
	case CaseInsensitive:
		return "case-insensitive"
	case CaseSensitive:
		return "case-sensitive"
	}
	return fmt.Sprintf("Unknown(%d)", uint32(b))
}
