package frmr

import "strings"

// DocumentType classifies an FRMR document.
type DocumentType string

// DocumentType constants.
const (
	DocumentKSI     DocumentType = "KSI"
	DocumentMAS     DocumentType = "MAS"
	DocumentVDR     DocumentType = "VDR"
	DocumentSCN     DocumentType = "SCN"
	DocumentFRD     DocumentType = "FRD"
	DocumentADS     DocumentType = "ADS"
	DocumentCCM     DocumentType = "CCM"
	DocumentFSI     DocumentType = "FSI"
	DocumentICP     DocumentType = "ICP"
	DocumentPVA     DocumentType = "PVA"
	DocumentRSC     DocumentType = "RSC"
	DocumentSCG     DocumentType = "SCG"
	DocumentUCM     DocumentType = "UCM"
	DocumentUnknown DocumentType = "unknown"
)

var documentTypes = map[string]DocumentType{
	"KSI": DocumentKSI,
	"MAS": DocumentMAS,
	"VDR": DocumentVDR,
	"SCN": DocumentSCN,
	"FRD": DocumentFRD,
	"ADS": DocumentADS,
	"CCM": DocumentCCM,
	"FSI": DocumentFSI,
	"ICP": DocumentICP,
	"PVA": DocumentPVA,
	"RSC": DocumentRSC,
	"SCG": DocumentSCG,
	"UCM": DocumentUCM,
}

// ParseDocumentType maps a type tag to a DocumentType, case-insensitively.
// Unrecognized tags map to DocumentUnknown.
func ParseDocumentType(s string) DocumentType {
	if t, ok := documentTypes[strings.ToUpper(s)]; ok {
		return t
	}
	return DocumentUnknown
}

// Item is one requirement, indicator, definition or mapping row extracted
// from a document.
type Item = map[string]any

// Document represents one logical FRMR document. A JSON file yields one
// Document, or several when it is a unified file with multiple sections.
//
// Path is a virtual path: the slash-separated path relative to the corpus
// root, suffixed with "#SECTION" for sections of a unified file.
type Document struct {
	Type         DocumentType `json:"type"`
	Title        string       `json:"title"`
	Version      string       `json:"version,omitempty"`
	Published    string       `json:"published,omitempty"`
	Path         string       `json:"path"`
	Section      string       `json:"section,omitempty"`
	IDHint       string       `json:"idHint,omitempty"`
	ItemCount    int          `json:"itemCount"`
	IDKey        string       `json:"idKey,omitempty"`
	Raw          any          `json:"raw"`
	RawText      string       `json:"rawText"`
	TopLevelKeys []string     `json:"topLevelKeys"`
}

// DocumentMeta is the projection of a Document without its raw content.
type DocumentMeta struct {
	Type      DocumentType `json:"type"`
	Title     string       `json:"title"`
	Version   string       `json:"version,omitempty"`
	Published string       `json:"published,omitempty"`
	Path      string       `json:"path"`
	IDHint    string       `json:"idHint,omitempty"`
	ItemCount int          `json:"itemCount"`
}

// Meta returns the document's metadata projection.
func (d *Document) Meta() DocumentMeta {
	return DocumentMeta{
		Type:      d.Type,
		Title:     d.Title,
		Version:   d.Version,
		Published: d.Published,
		Path:      d.Path,
		IDHint:    d.IDHint,
		ItemCount: d.ItemCount,
	}
}

// DocumentSummary describes the shape of a document.
type DocumentSummary struct {
	CountItems   int      `json:"countItems"`
	TopLevelKeys []string `json:"topLevelKeys"`
}

// VersionInfo is one row of the version listing.
type VersionInfo struct {
	Type      DocumentType `json:"type"`
	Version   string       `json:"version,omitempty"`
	Published string       `json:"published,omitempty"`
	Path      string       `json:"path"`
}
