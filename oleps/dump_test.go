package oleps

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v2"
)

func openSample(t *testing.T, name string, data []byte) *File {
	t.Helper()
	f, err := Open(name, &Options{FileContents: data})
	if err != nil {
		t.Fatalf("Open(%s) error = %v", name, err)
	}
	return f
}

func TestDumpText(t *testing.T) {
	f := openSample(t, "summary.bin", summaryInformationStream())
	var buf bytes.Buffer
	if err := Dump(&buf, f, "text"); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"summary.bin: Raw property set stream\n",
		fmt.Sprintf("stream %q: SummaryInformation %s\n", "summary.bin", FMTIDSummaryInformation),
		"  version 0, Win32 6.0\n",
		"  set SummaryInformation " + FMTIDSummaryInformation.String() + " at offset 48",
		"    codepage: 1252 (windows-1252)\n",
		"    behavior: case-insensitive\n",
		fmt.Sprintf("    %-10s %-24s %-16s %s\n", "0x00000002", "Title", "lpstr", `"Joe's document"`),
		fmt.Sprintf("    %-10s %-24s %-16s %s\n", "CodePage", "CodePage", "i2", "1252"),
		fmt.Sprintf("    %-10s %-24s %-16s %s\n", "0x0000000c", "CreateTime", "filetime", "2006-09-02T00:58:00Z"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output lacks %q:\n%s", want, out)
		}
	}
}

func TestDumpTextDictionaryAndErrors(t *testing.T) {
	mem, _ := buildCompDoc(t,
		stream(DocSummaryInformationStream, docSummaryInformationStream()),
		stream("\x05Broken", []byte{0xFE, 0xFF, 0x07, 0x00}),
	)
	f := openSample(t, "sample.doc", mem)
	var buf bytes.Buffer
	if err := Dump(&buf, f, ""); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"sample.doc: OLE2 compound document\n",
		"    dictionary:\n      0x00000002 \"Reviewer\"\n",
		fmt.Sprintf("    %-10s %-24s %-16s %s\n", "0x00000003", "Price(GBP)", "cy", "133.1200"),
		fmt.Sprintf("    %-10s %-24s %-16s %s\n", "0x0000000c", "HeadingPairs", "vector<variant>", `[lpstr:"Title", i4:1]`),
		"  error: corrupted property set: unsupported version 7 (at byte 2)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output lacks %q:\n%s", want, out)
		}
	}
}

func TestDumpYAML(t *testing.T) {
	f := openSample(t, "summary.bin", summaryInformationStream())
	var buf bytes.Buffer
	if err := Dump(&buf, f, "yaml"); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	var got dumpFile
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v\n%s", err, buf.String())
	}
	if len(got.Streams) != 1 || len(got.Streams[0].Sets) != 1 {
		t.Fatalf("decoded dump = %+v", got)
	}
	set := got.Streams[0].Sets[0]
	if set.Format != "SummaryInformation" || set.CodePage != "1252 (windows-1252)" {
		t.Errorf("set = %+v", set)
	}
	want := dumpProperty{ID: "0x00000004", Name: "Author", Type: "lpstr", Value: `"Cornelius"`}
	if diff := cmp.Diff(want, set.Properties[2]); diff != "" {
		t.Errorf("Properties[2] mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpUnknownFormat(t *testing.T) {
	f := openSample(t, "summary.bin", summaryInformationStream())
	if err := Dump(&bytes.Buffer{}, f, "xml"); err == nil {
		t.Error("Dump(xml) succeeded")
	}
}

func TestHexCharDump(t *testing.T) {
	tests := []struct {
		data      []byte
		ofs, dlen int
		want      string
	}{
		{[]byte("Hello\x00\x7f"), 0, 7,
			"    0:     48 65 6c 6c 6f 00 7f                             Hello~?\n"},
		{[]byte("xxHi"), 2, 10,
			"    0:     48 69                                            Hi\n"},
		{bytes.Repeat([]byte("a"), 17), 0, 17,
			"    0:     61 61 61 61 61 61 61 61 61 61 61 61 61 61 61 61  aaaaaaaaaaaaaaaa\n" +
				"   16:     61                                               a\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		HexCharDump(&buf, tt.data, tt.ofs, tt.dlen)
		if got := buf.String(); got != tt.want {
			t.Errorf("HexCharDump(%q, %d, %d) =\n%q\nwant\n%q", tt.data, tt.ofs, tt.dlen, got, tt.want)
		}
	}
}
