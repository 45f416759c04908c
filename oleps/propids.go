package oleps

import "github.com/Microsoft/go-winio/pkg/guid"

// SummaryInformation property identifiers.
const (
	PIDSI_TITLE        PropertyID = 0x02
	PIDSI_SUBJECT      PropertyID = 0x03
	PIDSI_AUTHOR       PropertyID = 0x04
	PIDSI_KEYWORDS     PropertyID = 0x05
	PIDSI_COMMENTS     PropertyID = 0x06
	PIDSI_TEMPLATE     PropertyID = 0x07
	PIDSI_LASTAUTHOR   PropertyID = 0x08
	PIDSI_REVNUMBER    PropertyID = 0x09
	PIDSI_EDITTIME     PropertyID = 0x0A
	PIDSI_LASTPRINTED  PropertyID = 0x0B
	PIDSI_CREATE_DTM   PropertyID = 0x0C
	PIDSI_LASTSAVE_DTM PropertyID = 0x0D
	PIDSI_PAGECOUNT    PropertyID = 0x0E
	PIDSI_WORDCOUNT    PropertyID = 0x0F
	PIDSI_CHARCOUNT    PropertyID = 0x10
	PIDSI_THUMBNAIL    PropertyID = 0x11
	PIDSI_APPNAME      PropertyID = 0x12
	PIDSI_DOC_SECURITY PropertyID = 0x13
)

// DocumentSummaryInformation property identifiers.
const (
	PIDDSI_CATEGORY          PropertyID = 0x02
	PIDDSI_PRESFORMAT        PropertyID = 0x03
	PIDDSI_BYTECOUNT         PropertyID = 0x04
	PIDDSI_LINECOUNT         PropertyID = 0x05
	PIDDSI_PARCOUNT          PropertyID = 0x06
	PIDDSI_SLIDECOUNT        PropertyID = 0x07
	PIDDSI_NOTECOUNT         PropertyID = 0x08
	PIDDSI_HIDDENCOUNT       PropertyID = 0x09
	PIDDSI_MMCLIPCOUNT       PropertyID = 0x0A
	PIDDSI_SCALE             PropertyID = 0x0B
	PIDDSI_HEADINGPAIR       PropertyID = 0x0C
	PIDDSI_DOCPARTS          PropertyID = 0x0D
	PIDDSI_MANAGER           PropertyID = 0x0E
	PIDDSI_COMPANY           PropertyID = 0x0F
	PIDDSI_LINKSDIRTY        PropertyID = 0x10
	PIDDSI_CCHWITHSPACES     PropertyID = 0x11
	PIDDSI_SHAREDDOC         PropertyID = 0x13
	PIDDSI_LINKBASE          PropertyID = 0x14
	PIDDSI_HLINKS            PropertyID = 0x15
	PIDDSI_HYPERLINKSCHANGED PropertyID = 0x16
	PIDDSI_VERSION           PropertyID = 0x17
	PIDDSI_DIGSIG            PropertyID = 0x18
	PIDDSI_CONTENTTYPE       PropertyID = 0x1A
	PIDDSI_CONTENTSTATUS     PropertyID = 0x1B
	PIDDSI_LANGUAGE          PropertyID = 0x1C
	PIDDSI_DOCVERSION        PropertyID = 0x1D
)

var summaryPropertyNames = map[PropertyID]string{
	PIDSI_TITLE:        "Title",
	PIDSI_SUBJECT:      "Subject",
	PIDSI_AUTHOR:       "Author",
	PIDSI_KEYWORDS:     "Keywords",
	PIDSI_COMMENTS:     "Comments",
	PIDSI_TEMPLATE:     "Template",
	PIDSI_LASTAUTHOR:   "LastAuthor",
	PIDSI_REVNUMBER:    "RevNumber",
	PIDSI_EDITTIME:     "EditTime",
	PIDSI_LASTPRINTED:  "LastPrinted",
	PIDSI_CREATE_DTM:   "CreateTime",
	PIDSI_LASTSAVE_DTM: "LastSaveTime",
	PIDSI_PAGECOUNT:    "PageCount",
	PIDSI_WORDCOUNT:    "WordCount",
	PIDSI_CHARCOUNT:    "CharCount",
	PIDSI_THUMBNAIL:    "Thumbnail",
	PIDSI_APPNAME:      "AppName",
	PIDSI_DOC_SECURITY: "DocSecurity",
}

var docSummaryPropertyNames = map[PropertyID]string{
	PIDDSI_CATEGORY:          "Category",
	PIDDSI_PRESFORMAT:        "PresentationTarget",
	PIDDSI_BYTECOUNT:         "Bytes",
	PIDDSI_LINECOUNT:         "Lines",
	PIDDSI_PARCOUNT:          "Paragraphs",
	PIDDSI_SLIDECOUNT:        "Slides",
	PIDDSI_NOTECOUNT:         "Notes",
	PIDDSI_HIDDENCOUNT:       "HiddenSlides",
	PIDDSI_MMCLIPCOUNT:       "MMClips",
	PIDDSI_SCALE:             "ScaleCrop",
	PIDDSI_HEADINGPAIR:       "HeadingPairs",
	PIDDSI_DOCPARTS:          "TitlesOfParts",
	PIDDSI_MANAGER:           "Manager",
	PIDDSI_COMPANY:           "Company",
	PIDDSI_LINKSDIRTY:        "LinksUpToDate",
	PIDDSI_CCHWITHSPACES:     "CharCountWithSpaces",
	PIDDSI_SHAREDDOC:         "SharedDoc",
	PIDDSI_LINKBASE:          "LinkBase",
	PIDDSI_HLINKS:            "Hyperlinks",
	PIDDSI_HYPERLINKSCHANGED: "HyperlinksChanged",
	PIDDSI_VERSION:           "Version",
	PIDDSI_DIGSIG:            "DigitalSignature",
	PIDDSI_CONTENTTYPE:       "ContentType",
	PIDDSI_CONTENTSTATUS:     "ContentStatus",
	PIDDSI_LANGUAGE:          "Language",
	PIDDSI_DOCVERSION:        "DocVersion",
}

// PropertyName returns a display name for a property: the special names,
// then the well-known names of the format, then the dictionary.
func PropertyName(fmtid guid.GUID, ps *PropertySet, id PropertyID) (string, bool) {
	if name, ok := specialPIDNames[id]; ok {
		return name, true
	}
	var table map[PropertyID]string
	switch fmtid {
	case FMTIDSummaryInformation:
		table = summaryPropertyNames
	case FMTIDDocSummaryInformation:
		table = docSummaryPropertyNames
	}
	if name, ok := table[id]; ok {
		return name, true
	}
	if ps != nil {
		return ps.Name(id)
	}
	return "", false
}
