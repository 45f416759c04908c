package oleps

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"
)

type dumpFile struct {
	File    string       `yaml:"file"`
	Format  string       `yaml:"format"`
	Control *dumpControl `yaml:"control,omitempty"`
	Streams []dumpStream `yaml:"streams"`
}

type dumpControl struct {
	ApplicationState uint32 `yaml:"application_state"`
	CLSID            string `yaml:"clsid,omitempty"`
	Error            string `yaml:"error,omitempty"`
}

type dumpStream struct {
	Name    string    `yaml:"name"`
	FMTID   string    `yaml:"fmtid"`
	Format  string    `yaml:"format"`
	Error   string    `yaml:"error,omitempty"`
	Version uint16    `yaml:"version"`
	OS      string    `yaml:"os,omitempty"`
	CLSID   string    `yaml:"clsid,omitempty"`
	Sets    []dumpSet `yaml:"sets,omitempty"`
}

type dumpSet struct {
	FMTID      string         `yaml:"fmtid"`
	Format     string         `yaml:"format"`
	Offset     uint32         `yaml:"offset"`
	Size       uint32         `yaml:"size"`
	CodePage   string         `yaml:"codepage,omitempty"`
	Locale     string         `yaml:"locale,omitempty"`
	Behavior   string         `yaml:"behavior"`
	Dictionary []dumpEntry    `yaml:"dictionary,omitempty"`
	Properties []dumpProperty `yaml:"properties"`
}

type dumpEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type dumpProperty struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func osName(pss *PropertySetStream) string {
	major, minor := pss.OSVersion()
	var kind string
	switch pss.OSKind() {
	case OSWin16:
		kind = "Win16"
	case OSMac:
		kind = "Macintosh"
	case OSWin32:
		kind = "Win32"
	default:
		kind = fmt.Sprintf("OS(%d)", pss.OSKind())
	}
	return fmt.Sprintf("%s %d.%d", kind, major, minor)
}

func buildDumpSet(fs FormatSet) dumpSet {
	ps := fs.Set
	ds := dumpSet{
		FMTID:    fs.FMTID.String(),
		Format:   FormatName(fs.FMTID),
		Offset:   fs.Offset,
		Size:     ps.Size,
		Behavior: ps.Behavior.String(),
	}
	if ps.HasCodePage {
		ds.CodePage = ps.CodePage.String()
	}
	if ps.HasLocale {
		ds.Locale = fmt.Sprintf("0x%08x", ps.Locale)
	}
	for _, e := range ps.Dictionary.Entries() {
		ds.Dictionary = append(ds.Dictionary, dumpEntry{ID: e.ID.String(), Name: e.Name})
	}
	for _, id := range ps.IDs() {
		tv, _ := ps.Typed(id)
		name, _ := PropertyName(fs.FMTID, ps, id)
		ds.Properties = append(ds.Properties, dumpProperty{
			ID:    id.String(),
			Name:  name,
			Type:  tv.Type.String(),
			Value: FormatValue(tv.Value),
		})
	}
	return ds
}

func buildDump(f *File) dumpFile {
	df := dumpFile{File: f.Name, Format: FileFormatDescriptions[f.Format]}
	if cs, ok, err := f.ControlStream(); ok {
		df.Control = &dumpControl{}
		if err != nil {
			df.Control.Error = err.Error()
		} else {
			df.Control.ApplicationState = cs.ApplicationState
			if cs.HasCLSID {
				df.Control.CLSID = FormatValue(cs.CLSID)
			}
		}
	}
	for _, ns := range f.Streams {
		st := dumpStream{
			Name:   ns.Name,
			FMTID:  ns.FMTID.String(),
			Format: FormatName(ns.FMTID),
		}
		if ns.Err != nil {
			st.Error = ns.Err.Error()
			df.Streams = append(df.Streams, st)
			continue
		}
		pss := ns.Stream
		st.Version = pss.Version
		st.OS = osName(pss)
		if pss.CLSID != (CLSID{}) {
			st.CLSID = FormatValue(pss.CLSID)
		}
		for _, fs := range pss.Sets {
			st.Sets = append(st.Sets, buildDumpSet(fs))
		}
		df.Streams = append(df.Streams, st)
	}
	return df
}

// Dump writes every property set of f to w. format is "text" or "yaml".
func Dump(w io.Writer, f *File, format string) error {
	df := buildDump(f)
	switch format {
	case "yaml":
		out, err := yaml.Marshal(df)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "text", "":
		return dumpText(w, df)
	}
	return fmt.Errorf("unknown dump format %q", format)
}

func dumpText(w io.Writer, df dumpFile) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", df.File, df.Format)
	if c := df.Control; c != nil {
		if c.Error != "" {
			fmt.Fprintf(&b, "control stream: error: %s\n", c.Error)
		} else {
			fmt.Fprintf(&b, "control stream: state 0x%08x %s\n", c.ApplicationState, c.CLSID)
		}
	}
	for _, st := range df.Streams {
		fmt.Fprintf(&b, "\nstream %q: %s %s\n", st.Name, st.Format, st.FMTID)
		if st.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", st.Error)
			continue
		}
		fmt.Fprintf(&b, "  version %d, %s", st.Version, st.OS)
		if st.CLSID != "" {
			fmt.Fprintf(&b, ", clsid %s", st.CLSID)
		}
		b.WriteString("\n")
		for _, s := range st.Sets {
			fmt.Fprintf(&b, "  set %s %s at offset %d, %d bytes\n", s.Format, s.FMTID, s.Offset, s.Size)
			if s.CodePage != "" {
				fmt.Fprintf(&b, "    codepage: %s\n", s.CodePage)
			}
			if s.Locale != "" {
				fmt.Fprintf(&b, "    locale: %s\n", s.Locale)
			}
			fmt.Fprintf(&b, "    behavior: %s\n", s.Behavior)
			if len(s.Dictionary) > 0 {
				b.WriteString("    dictionary:\n")
				for _, e := range s.Dictionary {
					fmt.Fprintf(&b, "      %s %q\n", e.ID, e.Name)
				}
			}
			for _, p := range s.Properties {
				name := p.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(&b, "    %-10s %-24s %-16s %s\n", p.ID, name, p.Type, p.Value)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HexCharDump writes dlen bytes of data starting at ofs as rows of sixteen
// hex bytes followed by their printable characters. NULs show as ~ and
// other unprintable bytes as ?.
func HexCharDump(w io.Writer, data []byte, ofs, dlen int) {
	end := ofs + dlen
	if end > len(data) {
		end = len(data)
	}
	for pos := ofs; pos < end; pos += 16 {
		sub := data[pos:min(pos+16, end)]
		var hexd, chard strings.Builder
		for _, c := range sub {
			fmt.Fprintf(&hexd, "%02x ", c)
			switch {
			case c == 0:
				chard.WriteByte('~')
			case c < ' ' || c > '~':
				chard.WriteByte('?')
			default:
				chard.WriteByte(c)
			}
		}
		fmt.Fprintf(w, "%5d:     %-48s %s\n", pos-ofs, hexd.String(), chard.String())
	}
}
