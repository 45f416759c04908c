package oleps

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// CodePage is the value of the CodePage property. It selects the encoding
// of every CodePageString in the property set.
type CodePage uint16

const (
	// CP_WINUNICODE marks CodePageString values as UTF-16LE.
	CP_WINUNICODE CodePage = 0x04B0
	CP_UTF8       CodePage = 0xFDE9
	CP_WINDOWS    CodePage = 0x04E4 // 1252
	CP_USASCII    CodePage = 20127
)

type codePageEncoding struct {
	name string
	enc  encoding.Encoding
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// encodingFromCodePage maps Windows code page numbers to decoders.
var encodingFromCodePage = map[CodePage]codePageEncoding{
	437:   {"cp437", charmap.CodePage437},
	850:   {"cp850", charmap.CodePage850},
	852:   {"cp852", charmap.CodePage852},
	855:   {"cp855", charmap.CodePage855},
	858:   {"cp858", charmap.CodePage858},
	860:   {"cp860", charmap.CodePage860},
	862:   {"cp862", charmap.CodePage862},
	863:   {"cp863", charmap.CodePage863},
	865:   {"cp865", charmap.CodePage865},
	866:   {"cp866", charmap.CodePage866},
	874:   {"windows-874", charmap.Windows874},
	932:   {"shift_jis", japanese.ShiftJIS},
	936:   {"gbk", simplifiedchinese.GBK},
	949:   {"euc-kr", korean.EUCKR},
	950:   {"big5", traditionalchinese.Big5},
	1200:  {"utf-16le", utf16le},
	1250:  {"windows-1250", charmap.Windows1250},
	1251:  {"windows-1251", charmap.Windows1251},
	1252:  {"windows-1252", charmap.Windows1252},
	1253:  {"windows-1253", charmap.Windows1253},
	1254:  {"windows-1254", charmap.Windows1254},
	1255:  {"windows-1255", charmap.Windows1255},
	1256:  {"windows-1256", charmap.Windows1256},
	1257:  {"windows-1257", charmap.Windows1257},
	1258:  {"windows-1258", charmap.Windows1258},
	10000: {"macintosh", charmap.Macintosh},
	10007: {"x-mac-cyrillic", charmap.MacintoshCyrillic},
	20127: {"us-ascii", charmap.ISO8859_1},
	20866: {"koi8-r", charmap.KOI8R},
	21866: {"koi8-u", charmap.KOI8U},
	28591: {"iso-8859-1", charmap.ISO8859_1},
	28592: {"iso-8859-2", charmap.ISO8859_2},
	28593: {"iso-8859-3", charmap.ISO8859_3},
	28594: {"iso-8859-4", charmap.ISO8859_4},
	28595: {"iso-8859-5", charmap.ISO8859_5},
	28596: {"iso-8859-6", charmap.ISO8859_6},
	28597: {"iso-8859-7", charmap.ISO8859_7},
	28598: {"iso-8859-8", charmap.ISO8859_8},
	28599: {"iso-8859-9", charmap.ISO8859_9},
	28603: {"iso-8859-13", charmap.ISO8859_13},
	28605: {"iso-8859-15", charmap.ISO8859_15},
	51932: {"euc-jp", japanese.EUCJP},
	54936: {"gb18030", simplifiedchinese.GB18030},
	65001: {"utf-8", unicode.UTF8},
}

// IsUnicode reports whether strings in this code page are UTF-16LE.
func (cp CodePage) IsUnicode() bool {
	return cp == CP_WINUNICODE
}

// EncodingName returns the name of the character encoding, or "" when the
// code page is not known.
func (cp CodePage) EncodingName() string {
	return encodingFromCodePage[cp].name
}

func (cp CodePage) String() string {
	if name := cp.EncodingName(); name != "" {
		return fmt.Sprintf("%d (%s)", uint16(cp), name)
	}
	return fmt.Sprintf("%d", uint16(cp))
}

// decodeText converts raw characters (terminator already removed) to a Go
// string. Unknown code pages are read as Latin-1 and reported through known.
func decodeText(cp CodePage, raw []byte) (s string, known bool, err error) {
	e, ok := encodingFromCodePage[cp]
	if !ok {
		e = codePageEncoding{"iso-8859-1", charmap.ISO8859_1}
	}
	if cp == CP_USASCII {
		for i, c := range raw {
			if c > 0x7F {
				return "", true, fmt.Errorf("byte 0x%02x at %d is not us-ascii", c, i)
			}
		}
	}
	b, err := e.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", ok, fmt.Errorf("failed to decode %s: %v", e.name, err)
	}
	return string(b), ok, nil
}

func decodeUTF16(raw []byte) (string, error) {
	b, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode utf-16le: %v", err)
	}
	return string(b), nil
}
