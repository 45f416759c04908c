package oleps

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// FileFormatDescriptions describes the formats InspectFormat can report.
var FileFormatDescriptions = map[string]string{
	"ole2":    "OLE2 compound document",
	"propset": "Raw property set stream",
	"":        "Unknown file type",
}

// propSetSignature is the byte order mark followed by a version 0 or 1.
var propSetSignature = []byte{0xFE, 0xFF}

const peekSize = 8

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(path, "~", home, 1), nil
}

// InspectFormat inspects content, or the file at path when content is nil,
// and returns "ole2", "propset" or the empty string when the format is not
// recognised. ~ in path is expanded.
func InspectFormat(path string, content []byte) (string, error) {
	peek := content
	if content == nil {
		expanded, err := expandHome(path)
		if err != nil {
			return "", err
		}
		f, err := os.Open(expanded)
		if err != nil {
			return "", err
		}
		defer f.Close()
		buf := make([]byte, peekSize)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", err
		}
		peek = buf[:n]
	}
	return sniff(peek), nil
}

func sniff(peek []byte) string {
	switch {
	case bytes.HasPrefix(peek, CompDocSignature):
		return "ole2"
	case len(peek) >= 4 && bytes.HasPrefix(peek, propSetSignature) && peek[3] == 0 && peek[2] <= 1:
		return "propset"
	}
	return ""
}
