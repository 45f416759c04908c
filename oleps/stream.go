package oleps

import (
	"fmt"
	"io"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/op/go-logging"
)

const logModule = "oleps"

var logFormat = logging.MustStringFormatter(`%{level:.4s} %{module}: %{message}`)

// Options controls decoding. A nil *Options is the same as the zero value.
type Options struct {
	// Logfile receives diagnostics. Nothing is logged when it is nil.
	Logfile io.Writer

	// Verbosity selects how much goes to Logfile: 0 for warnings,
	// 1 for informational messages, 2 or more for debug output.
	Verbosity int

	// FileContents, when set, is used by Open instead of reading the file.
	FileContents []byte

	// AllowNonzeroReserved accepts a TypedPropertyValue whose reserved
	// padding field is not zero. By default such values are corrupt.
	AllowNonzeroReserved bool

	// RejectDuplicates makes duplicate property identifiers and dictionary
	// entries an error. By default the last one wins.
	RejectDuplicates bool

	// PaddedNestedStrings expects every CodePageString inside a vector,
	// array or variant to be padded to four bytes, as some writers do. By
	// default nested strings are packed without padding.
	PaddedNestedStrings bool

	// IgnoreCorruption makes the compound document reader zero-fill
	// truncated sectors instead of failing.
	IgnoreCorruption bool
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

func logLevel(verbosity int) logging.Level {
	switch {
	case verbosity <= 0:
		return logging.WARNING
	case verbosity == 1:
		return logging.INFO
	}
	return logging.DEBUG
}

// newLogger returns a logger writing to opts.Logfile. Each decode call gets
// its own, so concurrent decodes never share a backend.
func newLogger(opts *Options) *logging.Logger {
	w := opts.Logfile
	if w == nil {
		w = io.Discard
	}
	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), logFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logLevel(opts.Verbosity), logModule)
	log := logging.MustGetLogger(logModule)
	log.SetBackend(leveled)
	return log
}

const byteOrderMark = 0xFFFE

// FormatSet is one property set of a PropertySetStream together with the
// FMTID and offset it was declared with.
type FormatSet struct {
	FMTID  guid.GUID
	Offset uint32
	Set    *PropertySet
}

// PropertySetStream is the decoded contents of a property set stream.
type PropertySetStream struct {
	// ByteOrder is always 0xFFFE.
	ByteOrder uint16

	// Version is 0 or 1. Version 1 streams may use the extended types.
	Version uint16

	// SystemIdentifier identifies the operating system that wrote the
	// stream. See OSKind and OSVersion.
	SystemIdentifier uint32

	// CLSID is the application CLSID, usually zero.
	CLSID CLSID

	// Sets holds one or two property sets in declaration order.
	Sets []FormatSet
}

// Operating systems recorded in the SystemIdentifier.
const (
	OSWin16 = 0
	OSMac   = 1
	OSWin32 = 2
)

// OSKind returns the operating system kind: OSWin16, OSMac or OSWin32.
func (pss *PropertySetStream) OSKind() uint16 {
	return uint16(pss.SystemIdentifier >> 16)
}

// OSVersion returns the major and minor operating system version.
func (pss *PropertySetStream) OSVersion() (major, minor uint8) {
	return uint8(pss.SystemIdentifier), uint8(pss.SystemIdentifier >> 8)
}

// FMTID returns the format identifier of the first property set.
func (pss *PropertySetStream) FMTID() guid.GUID {
	return pss.Sets[0].FMTID
}

// Set returns the first property set with the given FMTID.
func (pss *PropertySetStream) Set(fmtid guid.GUID) (*PropertySet, bool) {
	for _, s := range pss.Sets {
		if s.FMTID == fmtid {
			return s.Set, true
		}
	}
	return nil, false
}

// ReadPropertySetStream decodes a property set stream that begins at start
// in data. Offsets inside the stream are relative to start.
func ReadPropertySetStream(data []byte, start int, opts *Options) (*PropertySetStream, error) {
	d := newDecoder(data, opts)
	if err := d.r.seek(start); err != nil {
		return nil, err
	}
	return d.readPropertySetStream(start)
}

func (d *decoder) readPropertySetStream(start int) (*PropertySetStream, error) {
	r := d.r
	byteOrder, err := r.u16()
	if err != nil {
		return nil, err
	}
	if byteOrder != byteOrderMark {
		return nil, newCorrupted(start, "byte order 0x%04x, expected 0x%04x", byteOrder, byteOrderMark)
	}
	version, err := r.u16()
	if err != nil {
		return nil, err
	}
	if version != 0 && version != 1 {
		return nil, newCorrupted(start+2, "unsupported version %d", version)
	}
	d.version = version
	system, err := r.u32()
	if err != nil {
		return nil, err
	}
	clsid, err := r.guid()
	if err != nil {
		return nil, err
	}
	numSets, err := r.u32()
	if err != nil {
		return nil, err
	}
	if numSets != 1 && numSets != 2 {
		return nil, newCorrupted(start+24, "%d property sets, expected 1 or 2", numSets)
	}

	pss := &PropertySetStream{
		ByteOrder:        byteOrder,
		Version:          version,
		SystemIdentifier: system,
		CLSID:            clsid,
		Sets:             make([]FormatSet, numSets),
	}
	for i := range pss.Sets {
		fmtid, err := r.guid()
		if err != nil {
			return nil, err
		}
		offset, err := r.u32()
		if err != nil {
			return nil, err
		}
		pss.Sets[i] = FormatSet{FMTID: fmtid.GUID, Offset: offset}
	}
	if numSets == 2 {
		if pss.Sets[0].FMTID != FMTIDDocSummaryInformation || pss.Sets[1].FMTID != FMTIDUserDefinedProperties {
			return nil, newCorrupted(start+28, "two property sets %s and %s, expected %s and %s",
				pss.Sets[0].FMTID, pss.Sets[1].FMTID, FMTIDDocSummaryInformation, FMTIDUserDefinedProperties)
		}
	}
	d.log.Debugf("property set stream version %d with %d sets", version, numSets)

	for i := range pss.Sets {
		fs := &pss.Sets[i]
		ps, err := d.readPropertySet(start, fs.Offset)
		if err != nil {
			return nil, fmt.Errorf("property set %s: %w", fs.FMTID, err)
		}
		fs.Set = ps
	}
	return pss, nil
}
