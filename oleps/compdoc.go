package oleps

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/op/go-logging"
)

// CompDocSignature is the magic cookie at the start of every compound file.
var CompDocSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Special sector numbers.
const (
	maxRegSect uint32 = 0xFFFFFFFA
	endOfChain uint32 = 0xFFFFFFFE
	freeSect   uint32 = 0xFFFFFFFF

	noStream uint32 = 0xFFFFFFFF
)

const (
	compDocHeaderSize = 512
	dirEntrySize      = 128
	headerDIFATCount  = 109
)

// EntryType is the object type of a directory entry.
type EntryType uint8

const (
	EntryEmpty   EntryType = 0
	EntryStorage EntryType = 1
	EntryStream  EntryType = 2
	EntryRoot    EntryType = 5
)

func (t EntryType) String() string {
	switch t {
	case EntryEmpty:
		return "empty"
	case EntryStorage:
		return "storage"
	case EntryStream:
		return "stream"
	case EntryRoot:
		return "root"
	}
	return fmt.Sprintf("EntryType(%d)", uint8(t))
}

// DirEntry is one entry of the compound file directory.
type DirEntry struct {
	SID   int
	Name  string
	Path  string
	Type  EntryType
	CLSID CLSID
	Start uint32
	Size  uint64

	left, right, child uint32
	kids               []*DirEntry
}

// Children returns the entries directly below a storage, sorted by name.
func (e *DirEntry) Children() []*DirEntry {
	return e.kids
}

// CompDoc reads the streams of an OLE2 compound file held in memory.
type CompDoc struct {
	// Mem is the raw contents of the file.
	Mem []byte

	MajorVersion   uint16
	SectorSize     int
	MiniSectorSize int
	MiniCutoff     uint32

	opts       *Options
	log        *logging.Logger
	nsect      int
	fat        []uint32
	minifat    []uint32
	ministream []byte
	entries    []*DirEntry
	root       *DirEntry
}

func compDocCorrupted(format string, args ...interface{}) *CompDocError {
	return &CompDocError{Message: fmt.Sprintf(format, args...), Err: ErrCorrupted}
}

// NewCompDoc parses the header, allocation tables and directory of a
// compound file.
func NewCompDoc(mem []byte, opts *Options) (*CompDoc, error) {
	opts = opts.orDefault()
	cd := &CompDoc{Mem: mem, opts: opts, log: newLogger(opts)}
	if len(mem) < compDocHeaderSize {
		return nil, compDocCorrupted("file of %d bytes is too short for a compound file header", len(mem))
	}
	if !bytes.Equal(mem[:8], CompDocSignature) {
		return nil, NewCompDocError("not an OLE2 compound document")
	}
	le := binary.LittleEndian
	cd.MajorVersion = le.Uint16(mem[26:])
	if cd.MajorVersion != 3 && cd.MajorVersion != 4 {
		return nil, NewCompDocError("expected major version 3 or 4, got %d", cd.MajorVersion)
	}
	if bo := le.Uint16(mem[28:]); bo != byteOrderMark {
		return nil, NewCompDocError("expected byte order 0x%04x, got 0x%04x", byteOrderMark, bo)
	}
	sectorShift := le.Uint16(mem[30:])
	if sectorShift != 9 && sectorShift != 12 {
		return nil, NewCompDocError("expected sector shift 9 or 12, got %d", sectorShift)
	}
	if (cd.MajorVersion == 3) != (sectorShift == 9) {
		return nil, NewCompDocError("sector shift %d does not match major version %d", sectorShift, cd.MajorVersion)
	}
	if miniShift := le.Uint16(mem[32:]); miniShift != 6 {
		return nil, NewCompDocError("expected mini sector shift 6, got %d", miniShift)
	}
	cd.SectorSize = 1 << sectorShift
	cd.MiniSectorSize = 64
	cd.MiniCutoff = le.Uint32(mem[56:])
	if cd.MiniCutoff != 0x1000 {
		cd.log.Warningf("unusual mini stream cutoff %d", cd.MiniCutoff)
	}
	cd.nsect = (len(mem) + cd.SectorSize - 1) / cd.SectorSize
	cd.nsect--
	numFATSectors := le.Uint32(mem[44:])
	firstDirSector := le.Uint32(mem[48:])
	firstMiniFATSector := le.Uint32(mem[60:])
	numMiniFATSectors := le.Uint32(mem[64:])
	firstDIFATSector := le.Uint32(mem[68:])
	numDIFATSectors := le.Uint32(mem[72:])
	cd.log.Debugf("compound file v%d: %d-byte sectors, %d sectors, %d FAT sectors, %d DIFAT sectors",
		cd.MajorVersion, cd.SectorSize, cd.nsect, numFATSectors, numDIFATSectors)

	if err := cd.loadFAT(numFATSectors, firstDIFATSector, numDIFATSectors); err != nil {
		return nil, err
	}
	if err := cd.loadDirectory(firstDirSector); err != nil {
		return nil, err
	}
	if err := cd.loadMiniFAT(firstMiniFATSector, numMiniFATSectors); err != nil {
		return nil, err
	}
	return cd, nil
}

// sector returns sector n. A sector cut short by the end of the file is
// zero-filled when IgnoreCorruption is set.
func (cd *CompDoc) sector(n uint32) ([]byte, error) {
	if n > maxRegSect {
		return nil, compDocCorrupted("special sector id 0x%08x used as a sector", n)
	}
	start := (int64(n) + 1) * int64(cd.SectorSize)
	end := start + int64(cd.SectorSize)
	if end <= int64(len(cd.Mem)) {
		return cd.Mem[start:end], nil
	}
	if !cd.opts.IgnoreCorruption {
		return nil, compDocCorrupted("sector %d lies beyond the end of the file", n)
	}
	cd.log.Warningf("sector %d truncated, zero-filling", n)
	buf := make([]byte, cd.SectorSize)
	if start < int64(len(cd.Mem)) {
		copy(buf, cd.Mem[start:])
	}
	return buf, nil
}

func sectorIDs(b []byte) []uint32 {
	ids := make([]uint32, len(b)/4)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return ids
}

func (cd *CompDoc) loadFAT(numFATSectors, firstDIFAT, numDIFAT uint32) error {
	difat := sectorIDs(cd.Mem[76 : 76+4*headerDIFATCount])
	perSector := uint32(cd.SectorSize/4) - 1
	next := firstDIFAT
	for i := uint32(0); i < numDIFAT; i++ {
		if next == endOfChain || next == freeSect {
			return compDocCorrupted("DIFAT chain ends after %d of %d sectors", i, numDIFAT)
		}
		if int(next) >= cd.nsect {
			return compDocCorrupted("DIFAT sector %d out of range", next)
		}
		cd.log.Debugf("DIFAT block %d at sector %d", i, next)
		s, err := cd.sector(next)
		if err != nil {
			return err
		}
		ids := sectorIDs(s)
		difat = append(difat, ids[:perSector]...)
		next = ids[perSector]
	}
	if numDIFAT > 0 && next != endOfChain && next != freeSect {
		return compDocCorrupted("DIFAT chain does not end after %d sectors", numDIFAT)
	}

	if uint64(numFATSectors) > uint64(len(difat)) {
		return compDocCorrupted("%d FAT sectors declared, DIFAT holds %d", numFATSectors, len(difat))
	}
	for _, sid := range difat[:numFATSectors] {
		if sid == endOfChain || sid == freeSect {
			break
		}
		s, err := cd.sector(sid)
		if err != nil {
			return err
		}
		cd.fat = append(cd.fat, sectorIDs(s)...)
	}
	if len(cd.fat) > cd.nsect && !cd.opts.IgnoreCorruption {
		cd.log.Debugf("FAT of %d entries shrunk to %d sectors in file", len(cd.fat), cd.nsect)
		cd.fat = cd.fat[:cd.nsect]
	}
	return nil
}

// chain follows a FAT (or mini FAT) chain from start. Chains longer than the
// table are cycles.
func chain(table []uint32, start uint32, what string) ([]uint32, error) {
	var ids []uint32
	for s := start; s != endOfChain; {
		if int64(s) >= int64(len(table)) {
			if s == freeSect && len(ids) == 0 {
				return nil, nil
			}
			return nil, compDocCorrupted("%s chain references sector 0x%08x outside a table of %d", what, s, len(table))
		}
		if len(ids) >= len(table) {
			return nil, compDocCorrupted("%s chain starting at %d loops", what, start)
		}
		ids = append(ids, s)
		s = table[s]
	}
	return ids, nil
}

func (cd *CompDoc) readChain(start uint32) ([]byte, error) {
	ids, err := chain(cd.fat, start, "FAT")
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(ids)*cd.SectorSize)
	for _, id := range ids {
		s, err := cd.sector(id)
		if err != nil {
			return nil, err
		}
		buf = append(buf, s...)
	}
	return buf, nil
}

func (cd *CompDoc) readMiniChain(start uint32, size uint64) ([]byte, error) {
	ids, err := chain(cd.minifat, start, "mini FAT")
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(ids)*cd.MiniSectorSize)
	for _, id := range ids {
		off := int(id) * cd.MiniSectorSize
		if off+cd.MiniSectorSize > len(cd.ministream) {
			return nil, compDocCorrupted("mini sector %d lies beyond the mini stream", id)
		}
		buf = append(buf, cd.ministream[off:off+cd.MiniSectorSize]...)
	}
	if uint64(len(buf)) < size {
		return nil, compDocCorrupted("mini stream chain holds %d bytes, entry claims %d", len(buf), size)
	}
	return buf[:size], nil
}

func (cd *CompDoc) loadDirectory(start uint32) error {
	data, err := cd.readChain(start)
	if err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	n := len(data) / dirEntrySize
	if n == 0 {
		return compDocCorrupted("empty directory")
	}
	cd.entries = make([]*DirEntry, n)
	for i := range cd.entries {
		e, err := cd.parseDirEntry(i, data[i*dirEntrySize:(i+1)*dirEntrySize])
		if err != nil {
			return err
		}
		cd.entries[i] = e
	}
	cd.root = cd.entries[0]
	if cd.root.Type != EntryRoot {
		return compDocCorrupted("first directory entry is a %s, expected the root", cd.root.Type)
	}
	cd.root.Path = ""
	seen := make([]bool, n)
	seen[0] = true
	return cd.buildTree(cd.root, seen)
}

func (cd *CompDoc) parseDirEntry(sid int, b []byte) (*DirEntry, error) {
	le := binary.LittleEndian
	e := &DirEntry{
		SID:   sid,
		Type:  EntryType(b[66]),
		left:  le.Uint32(b[68:]),
		right: le.Uint32(b[72:]),
		child: le.Uint32(b[76:]),
		Start: le.Uint32(b[116:]),
		Size:  le.Uint64(b[120:]),
	}
	if e.Type == EntryEmpty {
		return e, nil
	}
	nameLen := int(le.Uint16(b[64:]))
	if nameLen > 64 || nameLen%2 != 0 {
		return nil, compDocCorrupted("directory entry %d has name length %d", sid, nameLen)
	}
	if nameLen >= 2 {
		name, err := decodeUTF16(b[:nameLen-2])
		if err != nil {
			return nil, &CompDocError{Message: fmt.Sprintf("directory entry %d name", sid), Err: err}
		}
		e.Name = name
	}
	var a [16]byte
	copy(a[:], b[80:96])
	e.CLSID = clsidFromWindowsArray(a)
	if cd.MajorVersion == 3 {
		// Version 3 writers may leave garbage in the high half.
		e.Size &= 0xFFFFFFFF
	}
	return e, nil
}

// buildTree walks the red-black tree of each storage and records its
// children. Every entry may be reached only once.
func (cd *CompDoc) buildTree(parent *DirEntry, seen []bool) error {
	var walk func(sid uint32) error
	walk = func(sid uint32) error {
		if sid == noStream {
			return nil
		}
		if int64(sid) >= int64(len(cd.entries)) {
			return compDocCorrupted("directory entry %d out of range", sid)
		}
		if seen[sid] {
			return compDocCorrupted("directory entry %d referenced twice", sid)
		}
		seen[sid] = true
		e := cd.entries[sid]
		if err := walk(e.left); err != nil {
			return err
		}
		e.Path = parent.Path + "/" + e.Name
		parent.kids = append(parent.kids, e)
		if err := walk(e.right); err != nil {
			return err
		}
		if e.Type == EntryStorage {
			return cd.buildTree(e, seen)
		}
		return nil
	}
	if err := walk(parent.child); err != nil {
		return err
	}
	sort.Slice(parent.kids, func(i, j int) bool {
		return strings.ToUpper(parent.kids[i].Name) < strings.ToUpper(parent.kids[j].Name)
	})
	return nil
}

func (cd *CompDoc) loadMiniFAT(start, count uint32) error {
	if cd.root.Size == 0 {
		return nil
	}
	if count == 0 || start == endOfChain {
		return compDocCorrupted("root entry holds a %d byte mini stream but there is no mini FAT", cd.root.Size)
	}
	data, err := cd.readChain(start)
	if err != nil {
		return fmt.Errorf("mini FAT: %w", err)
	}
	cd.minifat = sectorIDs(data)
	used := (cd.root.Size + uint64(cd.MiniSectorSize) - 1) / uint64(cd.MiniSectorSize)
	if used < uint64(len(cd.minifat)) {
		cd.minifat = cd.minifat[:used]
	}
	ms, err := cd.readChain(cd.root.Start)
	if err != nil {
		return fmt.Errorf("mini stream: %w", err)
	}
	if uint64(len(ms)) < cd.root.Size {
		return compDocCorrupted("mini stream holds %d bytes, root entry claims %d", len(ms), cd.root.Size)
	}
	cd.ministream = ms[:cd.root.Size]
	return nil
}

// Root returns the root storage.
func (cd *CompDoc) Root() *DirEntry {
	return cd.root
}

// Entries returns every reachable storage and stream in depth-first order.
func (cd *CompDoc) Entries() []*DirEntry {
	var out []*DirEntry
	var walk func(e *DirEntry)
	walk = func(e *DirEntry) {
		for _, k := range e.kids {
			out = append(out, k)
			walk(k)
		}
	}
	walk(cd.root)
	return out
}

// Lookup finds the entry at path. Components are separated by "/" and
// compared case-insensitively. The empty path is the root.
func (cd *CompDoc) Lookup(path string) (*DirEntry, bool) {
	node := cd.root
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		if name == "" {
			continue
		}
		var next *DirEntry
		for _, k := range node.kids {
			if strings.EqualFold(k.Name, name) {
				next = k
				break
			}
		}
		if next == nil {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Stream returns the contents of a stream entry.
func (cd *CompDoc) Stream(e *DirEntry) ([]byte, error) {
	if e.Type != EntryStream {
		return nil, NewCompDocError("%q is a %s, not a stream", e.Path, e.Type)
	}
	if e.Size < uint64(cd.MiniCutoff) {
		return cd.readMiniChain(e.Start, e.Size)
	}
	data, err := cd.readChain(e.Start)
	if err != nil {
		return nil, fmt.Errorf("stream %q: %w", e.Path, err)
	}
	if uint64(len(data)) < e.Size {
		return nil, compDocCorrupted("stream %q holds %d bytes, entry claims %d", e.Path, len(data), e.Size)
	}
	return data[:e.Size], nil
}

// LocateNamedStream returns the contents of the stream at path.
func (cd *CompDoc) LocateNamedStream(path string) ([]byte, error) {
	e, ok := cd.Lookup(path)
	if !ok {
		return nil, NewCompDocError("stream %q not found", path)
	}
	return cd.Stream(e)
}

// PropertySetEntry is a stream whose name marks it as a property set.
// FMTID is set only when the name decodes to one.
type PropertySetEntry struct {
	Entry    *DirEntry
	FMTID    guid.GUID
	HasFMTID bool
}

// PropertySetStreams lists every stream whose name starts with \x05.
func (cd *CompDoc) PropertySetStreams() []PropertySetEntry {
	var out []PropertySetEntry
	for _, e := range cd.Entries() {
		if e.Type != EntryStream || !strings.HasPrefix(e.Name, "\x05") {
			continue
		}
		pe := PropertySetEntry{Entry: e}
		if id, err := FMTIDFromStreamName(e.Name); err == nil {
			pe.FMTID, pe.HasFMTID = id, true
		}
		out = append(out, pe)
	}
	return out
}

// Resolve finds the stream or storage named by an IndirectName or
// VersionedStream property read from the property set stored in storage.
func (cd *CompDoc) Resolve(storage string, ref Value) (*DirEntry, error) {
	var name string
	var want EntryType
	switch v := ref.(type) {
	case IndirectName:
		name = v.Name
		switch v.Type {
		case VT_STREAM, VT_STREAMED_OBJECT:
			want = EntryStream
		case VT_STORAGE, VT_STORED_OBJECT:
			want = EntryStorage
		default:
			return nil, NewCompDocError("%s is not an indirect property type", v.Type)
		}
	case VersionedStream:
		name, want = v.Name, EntryStream
	default:
		return nil, NewCompDocError("%T does not name a stream or storage", ref)
	}
	path := strings.Trim(storage, "/") + "/" + name
	e, ok := cd.Lookup(path)
	if !ok {
		return nil, NewCompDocError("%q not found", path)
	}
	if e.Type != want {
		return nil, NewCompDocError("%q is a %s, expected a %s", path, e.Type, want)
	}
	return e, nil
}
