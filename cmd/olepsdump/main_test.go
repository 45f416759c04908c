package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/yamitzky/oleps-go/oleps"
)

func runCLI(args []string) (string, string, int) {
	return runCLIWithInput(args, "")
}

func runCLIWithInput(args []string, input string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// summaryStream builds a SummaryInformation property set stream in code
// page 1252 holding a title. reserved is written into the title's padding
// field.
func summaryStream(title string, reserved uint16) []byte {
	le := binary.LittleEndian
	var b []byte
	b = le.AppendUint16(b, 0xFFFE)
	b = le.AppendUint16(b, 0)
	b = le.AppendUint32(b, 0x00020006)
	b = append(b, make([]byte, 16)...)
	b = le.AppendUint32(b, 1)
	id := oleps.FMTIDSummaryInformation.ToWindowsArray()
	b = append(b, id[:]...)
	b = le.AppendUint32(b, 48)

	s := append([]byte(title), 0)
	for len(s)%4 != 0 {
		s = append(s, 0)
	}
	var set []byte
	set = le.AppendUint32(set, uint32(32+8+len(s)))
	set = le.AppendUint32(set, 2)
	set = le.AppendUint32(set, 1)
	set = le.AppendUint32(set, 24)
	set = le.AppendUint32(set, 2)
	set = le.AppendUint32(set, 32)
	set = le.AppendUint16(set, 2) // VT_I2
	set = le.AppendUint16(set, 0)
	set = le.AppendUint32(set, 1252)
	set = le.AppendUint16(set, 0x1E) // VT_LPSTR
	set = le.AppendUint16(set, reserved)
	set = le.AppendUint32(set, uint32(len(title)+1))
	set = append(set, s...)
	return append(b, set...)
}

// paddedVectorStream builds a SummaryInformation stream whose title is a
// vector of two strings, each padded to four bytes.
func paddedVectorStream() []byte {
	le := binary.LittleEndian
	b := summaryStream("", 0)[:48]
	var set []byte
	set = le.AppendUint32(set, 56)
	set = le.AppendUint32(set, 2)
	set = le.AppendUint32(set, 1)
	set = le.AppendUint32(set, 24)
	set = le.AppendUint32(set, 2)
	set = le.AppendUint32(set, 32)
	set = le.AppendUint16(set, 2) // VT_I2
	set = le.AppendUint16(set, 0)
	set = le.AppendUint32(set, 1252)
	set = le.AppendUint16(set, 0x101E) // VT_VECTOR | VT_LPSTR
	set = le.AppendUint16(set, 0)
	set = le.AppendUint32(set, 2)
	set = le.AppendUint32(set, 2)
	set = append(set, 'a', 0, 0, 0)
	set = le.AppendUint32(set, 3)
	set = append(set, 'b', 'c', 0, 0)
	return append(b, set...)
}

func samplePath(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestRunDefault(t *testing.T) {
	sample := samplePath(t, "summary.bin", summaryStream("Quarterly report", 0))
	out, errOut, code := runCLI([]string{"--no-color", sample})
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	for _, want := range []string{
		"Raw property set stream",
		`stream "summary.bin": SummaryInformation`,
		"codepage: 1252 (windows-1252)",
		`"Quarterly report"`,
		"Title",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("--no-color output contains escape codes: %q", out)
	}
}

func TestRunYAML(t *testing.T) {
	sample := samplePath(t, "summary.bin", summaryStream("Quarterly report", 0))
	out, errOut, code := runCLI([]string{"-f", "yaml", sample})
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	var doc struct {
		Streams []struct {
			Name string `yaml:"name"`
			Sets []struct {
				Properties []struct {
					Name  string `yaml:"name"`
					Value string `yaml:"value"`
				} `yaml:"properties"`
			} `yaml:"sets"`
		} `yaml:"streams"`
	}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("yaml: %v\n%s", err, out)
	}
	if len(doc.Streams) != 1 || len(doc.Streams[0].Sets) != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	props := doc.Streams[0].Sets[0].Properties
	if len(props) != 2 || props[1].Name != "Title" || props[1].Value != `"Quarterly report"` {
		t.Errorf("properties = %+v", props)
	}
}

func TestRunStdin(t *testing.T) {
	out, errOut, code := runCLIWithInput([]string{"-"}, string(summaryStream("From stdin", 0)))
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `"From stdin"`) {
		t.Errorf("output lacks title:\n%s", out)
	}
}

func TestRunStreamFilter(t *testing.T) {
	sample := samplePath(t, "summary.bin", summaryStream("Quarterly report", 0))
	out, errOut, code := runCLI([]string{"-s", "SUMMARY.BIN", sample})
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `"Quarterly report"`) {
		t.Errorf("output lacks title:\n%s", out)
	}

	_, errOut, code = runCLI([]string{"-s", "DocumentSummaryInformation", sample})
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(errOut, "not found") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunHex(t *testing.T) {
	sample := samplePath(t, "summary.bin", summaryStream("Quarterly report", 0))
	out, errOut, code := runCLI([]string{"--hex", "--no-color", sample})
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `hex dump of "summary.bin"`) {
		t.Errorf("output lacks hex heading:\n%s", out)
	}
	if !strings.Contains(out, "    0:     fe ff 00 00 06 00 02 00") {
		t.Errorf("output lacks first hex row:\n%s", out)
	}
}

func TestRunLenient(t *testing.T) {
	sample := samplePath(t, "summary.bin", summaryStream("Quarterly report", 0x4141))
	out, errOut, code := runCLI([]string{"--no-color", sample})
	if code != 1 {
		t.Fatalf("exit code %d, want 1; stderr: %s", code, errOut)
	}
	if !strings.Contains(errOut, "1 of 1 property set streams could not be decoded") {
		t.Errorf("stderr = %q", errOut)
	}
	if !strings.Contains(out, "error: corrupted property set") {
		t.Errorf("output lacks the stream error:\n%s", out)
	}

	out, errOut, code = runCLI([]string{"--lenient", "--no-color", sample})
	if code != 0 {
		t.Fatalf("--lenient: exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `"Quarterly report"`) {
		t.Errorf("--lenient output lacks title:\n%s", out)
	}
}

func TestRunPaddedStrings(t *testing.T) {
	sample := samplePath(t, "summary.bin", paddedVectorStream())
	if _, errOut, code := runCLI([]string{"--no-color", sample}); code != 1 {
		t.Fatalf("exit code %d, want 1; stderr: %s", code, errOut)
	}

	out, errOut, code := runCLI([]string{"--padded-strings", "--no-color", sample})
	if code != 0 {
		t.Fatalf("--padded-strings: exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `["a", "bc"]`) {
		t.Errorf("output lacks the vector:\n%s", out)
	}
}

func TestRunVerbose(t *testing.T) {
	sample := samplePath(t, "summary.bin", summaryStream("Quarterly report", 0))
	_, errOut, code := runCLI([]string{"-v", sample})
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(errOut, "INFO olepsdump: ") {
		t.Errorf("stderr lacks info log: %q", errOut)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no file", []string{}, 2, "usage: "},
		{"two files", []string{"a", "b"}, 2, "expected exactly one FILE"},
		{"bad format", []string{"--format", "xml", "a"}, 2, "unsupported format"},
		{"bad flag", []string{"--bogus", "a"}, 2, "usage: "},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing.doc")}, 1, "no such file"},
		{"not supported", []string{samplePath(t, "notes.txt", []byte("plain text"))}, 1, "not supported"},
	}
	for _, tt := range tests {
		_, errOut, code := runCLI(tt.args)
		if code != tt.code {
			t.Errorf("%s: exit code %d, want %d; stderr: %s", tt.name, code, tt.code, errOut)
		}
		if !strings.Contains(errOut, tt.want) {
			t.Errorf("%s: stderr = %q, want it to contain %q", tt.name, errOut, tt.want)
		}
	}
}

func TestColorize(t *testing.T) {
	var buf bytes.Buffer
	colorize(&buf, "file: x\n\nstream \"a\": b\n  set c\n  error: d\n    0x00000002 e\n")
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("colorize() added no escape codes: %q", out)
	}
	if !strings.Contains(out, "    0x00000002 e\n") || !strings.HasPrefix(out, "file: x\n") {
		t.Errorf("colorize() changed plain lines: %q", out)
	}
	if heading(false, "h") != "h" {
		t.Error("heading(false) added escape codes")
	}
}
