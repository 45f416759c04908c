package oleps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// ErrStreamNotFound is returned when a file has no stream for the requested
// property set.
var ErrStreamNotFound = errors.New("property set stream not found")

// NamedStream is one property set stream of a File. Err is set, and Stream
// is nil, when the stream could not be decoded.
type NamedStream struct {
	Name   string
	FMTID  guid.GUID
	Data   []byte
	Stream *PropertySetStream
	Err    error
}

// File is an opened compound document or raw property set stream.
type File struct {
	// Name is the file name given to Open.
	Name string

	// Format is "ole2" or "propset", as reported by InspectFormat.
	Format string

	// CompDoc is the container, nil for a raw property set stream.
	CompDoc *CompDoc

	Streams []*NamedStream

	control    *ControlStream
	controlErr error
}

// Open reads filename, or opts.FileContents when it is set, and decodes
// every property set stream it holds.
func Open(filename string, opts *Options) (*File, error) {
	opts = opts.orDefault()
	mem := opts.FileContents
	if mem == nil {
		path, err := expandHome(filename)
		if err != nil {
			return nil, err
		}
		if mem, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if len(mem) == 0 {
		return nil, NewCompDocError("%s: file size is 0 bytes", filename)
	}

	format, err := InspectFormat(filename, mem)
	if err != nil {
		return nil, err
	}
	f := &File{Name: filename, Format: format}
	switch format {
	case "ole2":
		cd, err := NewCompDoc(mem, opts)
		if err != nil {
			return nil, err
		}
		f.CompDoc = cd
		f.loadContainer(opts)
	case "propset":
		f.Streams = []*NamedStream{decodeNamedStream(filepath.Base(filename), mem, guid.GUID{}, opts)}
	default:
		return nil, NewCompDocError("%s: %s; not supported", filename, FileFormatDescriptions[format])
	}
	return f, nil
}

func (f *File) loadContainer(opts *Options) {
	cd := f.CompDoc
	for _, pe := range cd.PropertySetStreams() {
		name := strings.TrimPrefix(pe.Entry.Path, "/")
		data, err := cd.Stream(pe.Entry)
		if err != nil {
			f.Streams = append(f.Streams, &NamedStream{Name: name, FMTID: pe.FMTID, Err: err})
			continue
		}
		f.Streams = append(f.Streams, decodeNamedStream(name, data, pe.FMTID, opts))
	}
	if e, ok := cd.Lookup(ControlStreamName); ok && e.Type == EntryStream {
		data, err := cd.Stream(e)
		if err == nil {
			f.control, err = ReadControlStream(data)
		}
		f.controlErr = err
	}
}

func decodeNamedStream(name string, data []byte, fmtid guid.GUID, opts *Options) *NamedStream {
	ns := &NamedStream{Name: name, FMTID: fmtid, Data: data}
	pss, err := ReadPropertySetStream(data, 0, opts)
	if err != nil {
		ns.Err = err
		return ns
	}
	ns.Stream = pss
	ns.FMTID = pss.FMTID()
	return ns
}

// Stream returns the stream called name. The leading \x05 and any storage
// path may be left out, and case is ignored.
func (f *File) Stream(name string) (*NamedStream, bool) {
	want := strings.TrimPrefix(strings.Trim(name, "/"), "\x05")
	for _, ns := range f.Streams {
		full := ns.Name
		base := full[strings.LastIndex(full, "/")+1:]
		if strings.EqualFold(strings.TrimPrefix(full, "\x05"), want) ||
			strings.EqualFold(strings.TrimPrefix(base, "\x05"), want) {
			return ns, true
		}
	}
	return nil, false
}

// PropertySetStream returns the decoded stream holding the property set
// with the given FMTID.
func (f *File) PropertySetStream(fmtid guid.GUID) (*PropertySetStream, error) {
	for _, ns := range f.Streams {
		if ns.FMTID != fmtid {
			continue
		}
		if ns.Err != nil {
			return nil, fmt.Errorf("%q: %w", ns.Name, ns.Err)
		}
		return ns.Stream, nil
	}
	return nil, fmt.Errorf("%s: %w", FormatName(fmtid), ErrStreamNotFound)
}

// SummaryInformation returns the SummaryInformation property set.
func (f *File) SummaryInformation() (*SummaryInformation, error) {
	pss, err := f.PropertySetStream(FMTIDSummaryInformation)
	if err != nil {
		return nil, err
	}
	return NewSummaryInformation(pss)
}

// DocumentSummaryInformation returns the DocumentSummaryInformation property
// set along with the user defined properties.
func (f *File) DocumentSummaryInformation() (*DocumentSummaryInformation, error) {
	pss, err := f.PropertySetStream(FMTIDDocSummaryInformation)
	if err != nil {
		return nil, err
	}
	return NewDocumentSummaryInformation(pss)
}

// ControlStream returns the control stream. ok is false when the file has
// none.
func (f *File) ControlStream() (cs *ControlStream, ok bool, err error) {
	if f.control == nil && f.controlErr == nil {
		return nil, false, nil
	}
	return f.control, true, f.controlErr
}
