package oleps

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func unicodeEntry(id uint32, name string) []byte {
	b := utf16z(name)
	return cat(le32(id), le32(uint32(len(b)/2)), pad4(b))
}

func ansiEntry(id uint32, name string) []byte {
	b := append([]byte(name), 0)
	return cat(le32(id), le32(uint32(len(b))), b)
}

func dictionaryPacket(entries ...[]byte) []byte {
	return pad4(cat(le32(uint32(len(entries))), cat(entries...)))
}

func TestReadUnicodeDictionary(t *testing.T) {
	data := dictionaryPacket(
		fromHex(t, `04 00 00 00 0E 00 00 00 44 00 69 00 73 00 70 00 6C 00 61 00 79 00
			43 00 6F 00 6C 00 6F 00 75 00 72 00 00 00`),
		fromHex(t, `06 00 00 00 09 00 00 00 4D 00 79 00 53 00 74 00 72 00 65 00 61 00
			6D 00 00 00 00 00`),
		unicodeEntry(0x07, "Price(GBP)"),
		unicodeEntry(0x0C, "MyStorage"),
		unicodeEntry(0x27, "CaseSensitive"),
		unicodeEntry(0x92, "CASESENSITIVE"),
	)
	dict, n, err := ReadDictionary(data, CP_WINUNICODE, CaseSensitive, nil)
	if err != nil {
		t.Fatalf("ReadDictionary() error = %v", err)
	}
	if n != len(data) {
		t.Errorf("ReadDictionary() consumed %d bytes, want %d", n, len(data))
	}
	want := []DictionaryEntry{
		{4, "DisplayColour"},
		{6, "MyStream"},
		{7, "Price(GBP)"},
		{0x0C, "MyStorage"},
		{0x27, "CaseSensitive"},
		{0x92, "CASESENSITIVE"},
	}
	if diff := cmp.Diff(want, dict.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
	if id, ok := dict.ID("CASESENSITIVE"); !ok || id != 0x92 {
		t.Errorf("ID(%q) = %v, %v, want 0x92", "CASESENSITIVE", id, ok)
	}
	if _, ok := dict.ID("casesensitive"); ok {
		t.Errorf("ID(%q) found a case-sensitive name", "casesensitive")
	}
}

func TestReadAnsiDictionary(t *testing.T) {
	data := dictionaryPacket(ansiEntry(2, "Reviewer"), ansiEntry(3, "Gr\xf6\xdfe"))
	dict, n, err := ReadDictionary(data, CP_WINDOWS, CaseInsensitive, nil)
	if err != nil {
		t.Fatalf("ReadDictionary() error = %v", err)
	}
	if n != len(data) {
		t.Errorf("ReadDictionary() consumed %d bytes, want %d", n, len(data))
	}
	tests := []struct {
		name string
		want PropertyID
	}{
		{"Reviewer", 2},
		{"REVIEWER", 2},
		{"größe", 3},
		{"GRÖSSE", 3},
	}
	for _, tt := range tests {
		if got, ok := dict.ID(tt.name); !ok || got != tt.want {
			t.Errorf("ID(%q) = %v, %v, want %v", tt.name, got, ok, tt.want)
		}
	}
	if name, _ := dict.Name(3); name != "Größe" {
		t.Errorf("Name(3) = %q, want %q", name, "Größe")
	}
}

func TestDictionaryDuplicateLastWins(t *testing.T) {
	data := dictionaryPacket(ansiEntry(2, "First"), ansiEntry(3, "Other"), ansiEntry(2, "Second"))
	dict, _, err := ReadDictionary(data, CP_WINDOWS, CaseInsensitive, nil)
	if err != nil {
		t.Fatalf("ReadDictionary() error = %v", err)
	}
	if name, _ := dict.Name(2); name != "Second" {
		t.Errorf("Name(2) = %q, want %q", name, "Second")
	}
	// The name map keeps its own entry for the replaced name.
	if id, ok := dict.ID("First"); !ok || id != 2 {
		t.Errorf("ID(%q) = %v, %v, want 2", "First", id, ok)
	}
	if id, ok := dict.ID("second"); !ok || id != 2 {
		t.Errorf("ID(%q) = %v, %v, want 2", "second", id, ok)
	}
	if dict.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dict.Len())
	}
	want := []DictionaryEntry{{3, "Other"}, {2, "Second"}}
	if diff := cmp.Diff(want, dict.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	_, _, err = ReadDictionary(data, CP_WINDOWS, CaseInsensitive, &Options{RejectDuplicates: true})
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("RejectDuplicates: error = %v, want ErrCorrupted", err)
	}
}

func TestDictionaryDuplicateName(t *testing.T) {
	data := dictionaryPacket(ansiEntry(2, "x"), ansiEntry(3, "X"))
	dict, _, err := ReadDictionary(data, CP_WINDOWS, CaseInsensitive, nil)
	if err != nil {
		t.Fatalf("ReadDictionary() error = %v", err)
	}
	tests := []struct {
		id   PropertyID
		want string
	}{
		{2, "x"},
		{3, "X"},
	}
	for _, tt := range tests {
		if name, ok := dict.Name(tt.id); !ok || name != tt.want {
			t.Errorf("Name(%v) = %q, %v, want %q", tt.id, name, ok, tt.want)
		}
	}
	if id, ok := dict.ID("x"); !ok || id != 3 {
		t.Errorf("ID(%q) = %v, %v, want 3", "x", id, ok)
	}
	if dict.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dict.Len())
	}
	want := []DictionaryEntry{{2, "x"}, {3, "X"}}
	if diff := cmp.Diff(want, dict.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	_, _, err = ReadDictionary(data, CP_WINDOWS, CaseInsensitive, &Options{RejectDuplicates: true})
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("RejectDuplicates: error = %v, want ErrCorrupted", err)
	}

	// Case-sensitive names do not collide.
	if _, _, err := ReadDictionary(data, CP_WINDOWS, CaseSensitive, &Options{RejectDuplicates: true}); err != nil {
		t.Errorf("case-sensitive: ReadDictionary() error = %v", err)
	}
}

func TestReadDictionaryCorrupted(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"reserved id 0", dictionaryPacket(ansiEntry(0, "x"))},
		{"reserved id 1", dictionaryPacket(ansiEntry(1, "x"))},
		{"id above 0x7fffffff", dictionaryPacket(ansiEntry(0x80000000, "x"))},
		{"zero length", dictionaryPacket(cat(le32(2), le32(0)))},
		{"count too large", cat(le32(1000), ansiEntry(2, "x"))},
		{"name past end", cat(le32(1), le32(2), le32(100), []byte("abc"))},
	}
	for _, tt := range tests {
		_, _, err := ReadDictionary(tt.data, CP_WINDOWS, CaseInsensitive, nil)
		if !errors.Is(err, ErrCorrupted) {
			t.Errorf("%s: ReadDictionary() error = %v, want ErrCorrupted", tt.name, err)
		}
	}
}

func TestNilDictionary(t *testing.T) {
	var dict *Dictionary
	if _, ok := dict.Name(2); ok {
		t.Error("Name() on nil dictionary reported a name")
	}
	if _, ok := dict.ID("x"); ok {
		t.Error("ID() on nil dictionary reported an id")
	}
	if dict.Len() != 0 || dict.Entries() != nil {
		t.Error("nil dictionary is not empty")
	}
}
