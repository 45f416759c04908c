package oleps

import (
	"fmt"
	"strings"

	"github.com/Microsoft/go-winio/pkg/guid"
)

func mustGUID(s string) guid.GUID {
	g, err := guid.FromString(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Well-known format identifiers.
var (
	FMTIDSummaryInformation    = mustGUID("f29f85e0-4ff9-1068-ab91-08002b27b3d9")
	FMTIDDocSummaryInformation = mustGUID("d5cdd502-2e9c-101b-9397-08002b2cf9ae")
	FMTIDUserDefinedProperties = mustGUID("d5cdd505-2e9c-101b-9397-08002b2cf9ae")
	FMTIDGlobalInfo            = mustGUID("56616f00-c154-11ce-8553-00aa00a1f95b")
	FMTIDImageContents         = mustGUID("56616400-c154-11ce-8553-00aa00a1f95b")
	FMTIDImageInfo             = mustGUID("56616500-c154-11ce-8553-00aa00a1f95b")
)

// Stream names of the well-known property sets.
const (
	SummaryInformationStream    = "\x05SummaryInformation"
	DocSummaryInformationStream = "\x05DocumentSummaryInformation"
	GlobalInfoStream            = "\x05GlobalInfo"
	ImageContentsStream         = "\x05ImageContents"
	ImageInfoStream             = "\x05ImageInfo"
)

// ControlStreamName is the stream that marks property sets stored with the
// alternate stream binding.
const ControlStreamName = "{4c8cc155-6c1e-11d1-8e41-00c04fb9386d}"

// FormatDescriptor describes a well-known property set format.
type FormatDescriptor struct {
	FMTID  guid.GUID
	Name   string
	Stream string
}

var formatDescriptors = []FormatDescriptor{
	{FMTIDSummaryInformation, "SummaryInformation", SummaryInformationStream},
	{FMTIDDocSummaryInformation, "DocumentSummaryInformation", DocSummaryInformationStream},
	{FMTIDUserDefinedProperties, "UserDefinedProperties", DocSummaryInformationStream},
	{FMTIDGlobalInfo, "GlobalInfo", GlobalInfoStream},
	{FMTIDImageContents, "ImageContents", ImageContentsStream},
	{FMTIDImageInfo, "ImageInfo", ImageInfoStream},
}

// LookupFormat returns the descriptor of a well-known FMTID.
func LookupFormat(fmtid guid.GUID) (FormatDescriptor, bool) {
	for _, f := range formatDescriptors {
		if f.FMTID == fmtid {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// FormatName returns the name of a well-known FMTID, or "Unknown".
func FormatName(fmtid guid.GUID) string {
	if f, ok := LookupFormat(fmtid); ok {
		return f.Name
	}
	return "Unknown"
}

const (
	fmtidAlphabet   = "abcdefghijklmnopqrstuvwxyz012345"
	fmtidNameLength = 26 // ceil(128 / 5)
)

// PropertySetStreamName returns the name of the stream that holds the
// property set with the given FMTID. Unknown FMTIDs are encoded five bits
// at a time, least significant bits first, into 26 characters; a character
// that starts on a byte boundary is upper case.
func PropertySetStreamName(fmtid guid.GUID) string {
	if f, ok := LookupFormat(fmtid); ok {
		return f.Stream
	}
	b := fmtid.ToWindowsArray()
	var sb strings.Builder
	sb.WriteByte(0x05)
	for i := 0; i < fmtidNameLength; i++ {
		bit := i * 5
		idx := bit / 8
		shift := uint(bit % 8)
		v := uint(b[idx]) >> shift
		if shift > 3 && idx+1 < len(b) {
			v |= uint(b[idx+1]) << (8 - shift)
		}
		c := fmtidAlphabet[v&0x1f]
		if shift == 0 && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// FMTIDFromStreamName reverses PropertySetStreamName. Letters are matched
// case-insensitively.
func FMTIDFromStreamName(name string) (guid.GUID, error) {
	if strings.EqualFold(name, SummaryInformationStream) {
		return FMTIDSummaryInformation, nil
	}
	if strings.EqualFold(name, DocSummaryInformationStream) {
		return FMTIDDocSummaryInformation, nil
	}
	for _, f := range formatDescriptors {
		if f.FMTID != FMTIDUserDefinedProperties && strings.EqualFold(name, f.Stream) {
			return f.FMTID, nil
		}
	}
	if len(name) != fmtidNameLength+1 || name[0] != 0x05 {
		return guid.GUID{}, fmt.Errorf("%q is not a property set stream name", name)
	}

	var b [16]byte
	for i := 0; i < fmtidNameLength; i++ {
		c := name[i+1]
		var v uint
		switch {
		case c >= 'a' && c <= 'z':
			v = uint(c - 'a')
		case c >= 'A' && c <= 'Z':
			v = uint(c - 'A')
		case c >= '0' && c <= '5':
			v = uint(c-'0') + 26
		default:
			return guid.GUID{}, fmt.Errorf("invalid character %q in property set stream name", c)
		}
		bit := i * 5
		idx := bit / 8
		shift := uint(bit % 8)
		b[idx] |= byte(v << shift)
		if shift > 3 {
			hi := v >> (8 - shift)
			if idx+1 < len(b) {
				b[idx+1] |= byte(hi)
			} else if hi != 0 {
				return guid.GUID{}, fmt.Errorf("property set stream name %q has excess bits", name)
			}
		}
	}
	return guid.FromWindowsArray(b), nil
}
