package oleps

import (
	"math"
	"strings"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// DocumentSecurity is the value of PIDSI_DOC_SECURITY.
type DocumentSecurity int32

const (
	PasswordProtected    DocumentSecurity = 0x1
	ReadOnlyRecommended  DocumentSecurity = 0x2
	ReadOnlyEnforced     DocumentSecurity = 0x4
	LockedForAnnotations DocumentSecurity = 0x8
)

var documentSecurityNames = []struct {
	flag DocumentSecurity
	name string
}{
	{PasswordProtected, "password-protected"},
	{ReadOnlyRecommended, "read-only-recommended"},
	{ReadOnlyEnforced, "read-only-enforced"},
	{LockedForAnnotations, "locked-for-annotations"},
}

func (s DocumentSecurity) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for _, n := range documentSecurityNames {
		if s&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

func checkFormat(pss *PropertySetStream, expected guid.GUID) (*PropertySet, error) {
	if len(pss.Sets) == 0 || pss.Sets[0].FMTID != expected {
		var actual guid.GUID
		if len(pss.Sets) > 0 {
			actual = pss.Sets[0].FMTID
		}
		return nil, &FormatMismatchError{Expected: expected, Actual: actual}
	}
	return pss.Sets[0].Set, nil
}

func stringProperty(ps *PropertySet, id PropertyID) (string, bool) {
	s, ok := Property[String](ps, id)
	return string(s), ok
}

func int32Property(ps *PropertySet, id PropertyID) (int32, bool) {
	switch v, _ := ps.Get(id); v := v.(type) {
	case Int32:
		return int32(v), true
	case Int16:
		return int32(v), true
	}
	return 0, false
}

func boolProperty(ps *PropertySet, id PropertyID) (bool, bool) {
	b, ok := Property[Bool](ps, id)
	return bool(b), ok
}

func timeProperty(ps *PropertySet, id PropertyID) (time.Time, bool) {
	ft, ok := Property[Filetime](ps, id)
	if !ok || ft.IsZero() {
		return time.Time{}, false
	}
	return ft.Time(), true
}

// SummaryInformation gives typed access to the SummaryInformation property
// set.
type SummaryInformation struct {
	*PropertySet
}

// NewSummaryInformation checks that pss holds a SummaryInformation property
// set.
func NewSummaryInformation(pss *PropertySetStream) (*SummaryInformation, error) {
	ps, err := checkFormat(pss, FMTIDSummaryInformation)
	if err != nil {
		return nil, err
	}
	return &SummaryInformation{ps}, nil
}

func (si *SummaryInformation) Title() (string, bool)      { return stringProperty(si.PropertySet, PIDSI_TITLE) }
func (si *SummaryInformation) Subject() (string, bool)    { return stringProperty(si.PropertySet, PIDSI_SUBJECT) }
func (si *SummaryInformation) Author() (string, bool)     { return stringProperty(si.PropertySet, PIDSI_AUTHOR) }
func (si *SummaryInformation) Keywords() (string, bool)   { return stringProperty(si.PropertySet, PIDSI_KEYWORDS) }
func (si *SummaryInformation) Comments() (string, bool)   { return stringProperty(si.PropertySet, PIDSI_COMMENTS) }
func (si *SummaryInformation) Template() (string, bool)   { return stringProperty(si.PropertySet, PIDSI_TEMPLATE) }
func (si *SummaryInformation) LastAuthor() (string, bool) { return stringProperty(si.PropertySet, PIDSI_LASTAUTHOR) }
func (si *SummaryInformation) RevNumber() (string, bool)  { return stringProperty(si.PropertySet, PIDSI_REVNUMBER) }
func (si *SummaryInformation) AppName() (string, bool)    { return stringProperty(si.PropertySet, PIDSI_APPNAME) }
func (si *SummaryInformation) PageCount() (int32, bool)   { return int32Property(si.PropertySet, PIDSI_PAGECOUNT) }
func (si *SummaryInformation) WordCount() (int32, bool)   { return int32Property(si.PropertySet, PIDSI_WORDCOUNT) }
func (si *SummaryInformation) CharCount() (int32, bool)   { return int32Property(si.PropertySet, PIDSI_CHARCOUNT) }

// EditTime returns the total editing time. It is stored as a FILETIME but
// counts elapsed ticks, not ticks since 1601. Intervals too long for a
// time.Duration are reported as absent.
func (si *SummaryInformation) EditTime() (time.Duration, bool) {
	ft, ok := Property[Filetime](si.PropertySet, PIDSI_EDITTIME)
	if !ok || ft > math.MaxInt64/100 {
		return 0, false
	}
	return ft.Duration(), true
}

func (si *SummaryInformation) LastPrinted() (time.Time, bool) {
	return timeProperty(si.PropertySet, PIDSI_LASTPRINTED)
}

func (si *SummaryInformation) CreateTime() (time.Time, bool) {
	return timeProperty(si.PropertySet, PIDSI_CREATE_DTM)
}

func (si *SummaryInformation) LastSaveTime() (time.Time, bool) {
	return timeProperty(si.PropertySet, PIDSI_LASTSAVE_DTM)
}

// Thumbnail returns the thumbnail image. Its contents are not validated.
func (si *SummaryInformation) Thumbnail() (ClipboardData, bool) {
	return Property[ClipboardData](si.PropertySet, PIDSI_THUMBNAIL)
}

func (si *SummaryInformation) DocSecurity() (DocumentSecurity, bool) {
	v, ok := int32Property(si.PropertySet, PIDSI_DOC_SECURITY)
	return DocumentSecurity(v), ok
}

// DocumentSummaryInformation gives typed access to the
// DocumentSummaryInformation property set and the user defined properties
// stored next to it.
type DocumentSummaryInformation struct {
	*PropertySet
	userDefined *PropertySet
}

// NewDocumentSummaryInformation checks that pss holds a
// DocumentSummaryInformation property set.
func NewDocumentSummaryInformation(pss *PropertySetStream) (*DocumentSummaryInformation, error) {
	ps, err := checkFormat(pss, FMTIDDocSummaryInformation)
	if err != nil {
		return nil, err
	}
	dsi := &DocumentSummaryInformation{PropertySet: ps}
	if ud, ok := pss.Set(FMTIDUserDefinedProperties); ok {
		dsi.userDefined = ud
	}
	return dsi, nil
}

// UserDefined returns the user defined property set, or nil.
func (dsi *DocumentSummaryInformation) UserDefined() *PropertySet {
	return dsi.userDefined
}

func (dsi *DocumentSummaryInformation) Category() (string, bool) {
	return stringProperty(dsi.PropertySet, PIDDSI_CATEGORY)
}

func (dsi *DocumentSummaryInformation) PresentationTarget() (string, bool) {
	return stringProperty(dsi.PropertySet, PIDDSI_PRESFORMAT)
}

func (dsi *DocumentSummaryInformation) Manager() (string, bool) {
	return stringProperty(dsi.PropertySet, PIDDSI_MANAGER)
}

func (dsi *DocumentSummaryInformation) Company() (string, bool) {
	return stringProperty(dsi.PropertySet, PIDDSI_COMPANY)
}

func (dsi *DocumentSummaryInformation) Bytes() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_BYTECOUNT)
}

func (dsi *DocumentSummaryInformation) Lines() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_LINECOUNT)
}

func (dsi *DocumentSummaryInformation) Paragraphs() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_PARCOUNT)
}

func (dsi *DocumentSummaryInformation) Slides() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_SLIDECOUNT)
}

func (dsi *DocumentSummaryInformation) Notes() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_NOTECOUNT)
}

func (dsi *DocumentSummaryInformation) HiddenSlides() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_HIDDENCOUNT)
}

func (dsi *DocumentSummaryInformation) MMClips() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_MMCLIPCOUNT)
}

func (dsi *DocumentSummaryInformation) CharCountWithSpaces() (int32, bool) {
	return int32Property(dsi.PropertySet, PIDDSI_CCHWITHSPACES)
}

func (dsi *DocumentSummaryInformation) ScaleCrop() (bool, bool) {
	return boolProperty(dsi.PropertySet, PIDDSI_SCALE)
}

func (dsi *DocumentSummaryInformation) LinksUpToDate() (bool, bool) {
	return boolProperty(dsi.PropertySet, PIDDSI_LINKSDIRTY)
}

func (dsi *DocumentSummaryInformation) SharedDoc() (bool, bool) {
	return boolProperty(dsi.PropertySet, PIDDSI_SHAREDDOC)
}

func (dsi *DocumentSummaryInformation) HyperlinksChanged() (bool, bool) {
	return boolProperty(dsi.PropertySet, PIDDSI_HYPERLINKSCHANGED)
}

// HeadingPair is one entry of PIDDSI_HEADINGPAIR: a heading and the number
// of document parts listed under it in TitlesOfParts.
type HeadingPair struct {
	Heading string
	Parts   int32
}

// HeadingPairs decodes the vector of variants alternating heading strings
// and part counts.
func (dsi *DocumentSummaryInformation) HeadingPairs() ([]HeadingPair, bool) {
	vec, ok := Property[Vector](dsi.PropertySet, PIDDSI_HEADINGPAIR)
	if !ok || len(vec.Values)%2 != 0 {
		return nil, false
	}
	pairs := make([]HeadingPair, 0, len(vec.Values)/2)
	for i := 0; i < len(vec.Values); i += 2 {
		heading, ok1 := vec.Values[i].(TypedValue)
		count, ok2 := vec.Values[i+1].(TypedValue)
		if !ok1 || !ok2 {
			return nil, false
		}
		s, ok1 := heading.Value.(String)
		n, ok2 := count.Value.(Int32)
		if !ok1 || !ok2 {
			return nil, false
		}
		pairs = append(pairs, HeadingPair{Heading: string(s), Parts: int32(n)})
	}
	return pairs, true
}

// TitlesOfParts returns the names of the document parts.
func (dsi *DocumentSummaryInformation) TitlesOfParts() ([]string, bool) {
	vec, ok := Property[Vector](dsi.PropertySet, PIDDSI_DOCPARTS)
	if !ok {
		return nil, false
	}
	return vec.Strings(), true
}

// Version returns the application version: major in the high word, minor
// in the low word.
func (dsi *DocumentSummaryInformation) Version() (major, minor uint16, ok bool) {
	v, ok := int32Property(dsi.PropertySet, PIDDSI_VERSION)
	return uint16(uint32(v) >> 16), uint16(v), ok
}

// Custom returns a user defined property by name.
func (dsi *DocumentSummaryInformation) Custom(name string) (Value, bool) {
	if dsi.userDefined == nil {
		return nil, false
	}
	return dsi.userDefined.Lookup(name)
}
