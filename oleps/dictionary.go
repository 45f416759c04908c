package oleps

import (
	"math"
	"slices"

	"golang.org/x/text/cases"
)

// DictionaryEntry maps a property identifier to its name.
type DictionaryEntry struct {
	ID   PropertyID
	Name string
}

// Dictionary is the bidirectional name map of a property set. It is
// immutable once decoded.
type Dictionary struct {
	entries  []DictionaryEntry
	names    map[PropertyID]string
	ids      map[string]PropertyID
	behavior Behavior
}

func newDictionary(behavior Behavior) *Dictionary {
	return &Dictionary{
		names:    make(map[PropertyID]string),
		ids:      make(map[string]PropertyID),
		behavior: behavior,
	}
}

func (dict *Dictionary) key(name string) string {
	if dict.behavior == CaseSensitive {
		return name
	}
	// A Caser is stateful, so each lookup gets its own.
	return cases.Fold().String(name)
}

// add records an entry. It reports whether the identifier or the name was
// already present. Each direction keeps its own last write, so a name
// reused by a later identifier still names the earlier one.
func (dict *Dictionary) add(id PropertyID, name string) bool {
	k := dict.key(name)
	_, dupID := dict.names[id]
	_, dupName := dict.ids[k]
	dict.names[id] = name
	dict.ids[k] = id
	dict.entries = append(dict.entries, DictionaryEntry{ID: id, Name: name})
	return dupID || dupName
}

// Name returns the name of a property identifier.
func (dict *Dictionary) Name(id PropertyID) (string, bool) {
	if dict == nil {
		return "", false
	}
	name, ok := dict.names[id]
	return name, ok
}

// ID returns the identifier of a property name, compared according to the
// property set's Behavior.
func (dict *Dictionary) ID(name string) (PropertyID, bool) {
	if dict == nil {
		return 0, false
	}
	id, ok := dict.ids[dict.key(name)]
	return id, ok
}

// Len returns the number of distinct identifiers.
func (dict *Dictionary) Len() int {
	if dict == nil {
		return 0
	}
	return len(dict.names)
}

// Entries returns one entry per identifier, its last name, in the order
// those entries were written.
func (dict *Dictionary) Entries() []DictionaryEntry {
	if dict == nil {
		return nil
	}
	out := make([]DictionaryEntry, 0, len(dict.names))
	seen := make(map[PropertyID]bool, len(dict.names))
	for i := len(dict.entries) - 1; i >= 0; i-- {
		e := dict.entries[i]
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	slices.Reverse(out)
	return out
}

// ReadDictionary decodes a Dictionary packet at the start of data.
func ReadDictionary(data []byte, codePage CodePage, behavior Behavior, opts *Options) (*Dictionary, int, error) {
	d := newDecoder(data, opts)
	dict, err := d.readDictionary(codePage, behavior)
	if err != nil {
		return nil, 0, err
	}
	return dict, d.r.pos, nil
}

func (d *decoder) readDictionary(cp CodePage, behavior Behavior) (*Dictionary, error) {
	start := d.r.pos
	n, err := d.r.u32()
	if err != nil {
		return nil, err
	}
	// Each entry is at least id, length and a one byte name.
	if uint64(n)*9 > uint64(d.r.remaining()) {
		return nil, newCorrupted(start, "dictionary of %d entries exceeds the remaining %d bytes", n, d.r.remaining())
	}

	dict := newDictionary(behavior)
	for i := uint32(0); i < n; i++ {
		entryStart := d.r.pos
		id, name, err := d.readDictionaryEntry(cp)
		if err != nil {
			return nil, err
		}
		if dict.add(id, name) {
			if d.opts.RejectDuplicates {
				return nil, newCorrupted(entryStart, "duplicate dictionary entry %s %q", id, name)
			}
			d.log.Warningf("duplicate dictionary entry %s %q at %d", id, name, entryStart)
		}
	}
	if err := d.r.pad(start); err != nil {
		return nil, err
	}
	return dict, nil
}

func (d *decoder) readDictionaryEntry(cp CodePage) (PropertyID, string, error) {
	start := d.r.pos
	rawID, err := d.r.u32()
	if err != nil {
		return 0, "", err
	}
	id := PropertyID(rawID)
	if !id.IsOrdinary() {
		return 0, "", newCorrupted(start, "dictionary entry with reserved identifier %s", id)
	}
	length, err := d.r.u32()
	if err != nil {
		return 0, "", err
	}
	if length == 0 || length > math.MaxInt32/2 {
		return 0, "", newCorrupted(start+4, "dictionary entry name length %d", length)
	}

	nameStart := d.r.pos
	if cp.IsUnicode() {
		raw, err := d.r.bytes(int(length)*2, "dictionary entry name")
		if err != nil {
			return 0, "", err
		}
		name, err := decodeUTF16(raw[:len(raw)-2])
		if err != nil {
			return 0, "", newCorrupted(nameStart, "%v", err)
		}
		return id, name, d.r.pad(nameStart)
	}

	raw, err := d.r.bytes(int(length), "dictionary entry name")
	if err != nil {
		return 0, "", err
	}
	name, known, err := decodeText(cp, raw[:len(raw)-1])
	if err != nil {
		return 0, "", newCorrupted(nameStart, "%v", err)
	}
	if !known {
		d.log.Warningf("unknown code page %d, reading dictionary name at %d as latin-1", cp, nameStart)
	}
	return id, name, nil
}
