// Package extract turns FRMR JSON files into documents, items, KSI items
// and control mappings. It tolerates every encoding of items seen in the
// corpus: item arrays, objects keyed by identifier, nested category maps
// and unified multi-section files.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path"

	"github.com/fwojciec/frmr"
)

// Version identifies the extraction logic. Bump it whenever extraction
// output changes so persisted indexes are rebuilt.
const Version = 3

// Unified file sections.
const (
	sectionDefinitions  = "FRD"
	sectionRequirements = "FRR"
	sectionIndicators   = "KSI"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Result is the extraction output of one file.
type Result struct {
	Documents []*frmr.Document
	KsiItems  []*frmr.KsiItem
	Mappings  []*frmr.ControlMapping
}

// File extracts the documents of the JSON file at relPath, a slash
// separated path relative to the corpus root. Returns EPARSE when content
// is not valid JSON. A valid file whose top level is not an object yields
// an empty result.
func File(relPath string, content []byte) (*Result, error) {
	raw, err := Decode(content)
	if err != nil {
		return nil, frmr.Errorf(frmr.EPARSE, "Failed to parse JSON file %s: %s", relPath, err)
	}

	res := &Result{}
	obj, ok := raw.(map[string]any)
	if !ok {
		return res, nil
	}

	name := path.Base(relPath)
	file := fileMeta(obj, name)

	if isUnified(obj) {
		for _, doc := range unifiedDocuments(relPath, obj, file) {
			res.add(doc)
		}
		return res, nil
	}

	doc := newDocument(relPath, "", frmr.ParseDocumentType(TypeFromFilename(name)), obj, string(content), file)
	res.add(doc)
	return res, nil
}

// Decode parses JSON keeping numbers as json.Number so documents serialize
// back to their original values.
func Decode(content []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid data after top-level value")
	}
	return v, nil
}

func (r *Result) add(doc *frmr.Document) {
	items := Items(doc)
	r.Documents = append(r.Documents, doc)
	if doc.Type == frmr.DocumentKSI {
		r.KsiItems = append(r.KsiItems, KsiItems(doc, items)...)
	}
	r.Mappings = append(r.Mappings, Mappings(doc, items)...)
}

// isUnified reports whether obj bundles definitions, requirements and
// indicators, each as a nested object.
func isUnified(obj map[string]any) bool {
	for _, key := range []string{sectionDefinitions, sectionRequirements, sectionIndicators} {
		if _, ok := obj[key].(map[string]any); !ok {
			return false
		}
	}
	return true
}

// unifiedDocuments splits a unified file into one document for the
// definitions, one for the indicators and one per requirement category.
func unifiedDocuments(relPath string, obj map[string]any, file docMeta) []*frmr.Document {
	definitions := obj[sectionDefinitions].(map[string]any)
	indicators := obj[sectionIndicators].(map[string]any)
	requirements := obj[sectionRequirements].(map[string]any)

	docs := []*frmr.Document{
		newSection(relPath, sectionDefinitions, frmr.DocumentFRD, definitions, file),
		newSection(relPath, sectionIndicators, frmr.DocumentKSI, indicators, file),
	}
	for _, category := range sortedKeys(requirements) {
		if isMetadataKey(category) {
			continue
		}
		sub, ok := requirements[category].(map[string]any)
		if !ok {
			continue
		}
		section := sectionRequirements + "." + category
		docs = append(docs, newSection(relPath, section, frmr.ParseDocumentType(category), sub, file))
	}
	return docs
}

func newSection(relPath, section string, typ frmr.DocumentType, obj map[string]any, file docMeta) *frmr.Document {
	return newDocument(relPath, section, typ, obj, marshal(obj), sectionMeta(obj, file, section))
}

func newDocument(relPath, section string, typ frmr.DocumentType, obj map[string]any, rawText string, meta docMeta) *frmr.Document {
	p := relPath
	if section != "" {
		p += "#" + section
	}
	doc := &frmr.Document{
		Type:         typ,
		Title:        meta.title,
		Version:      meta.version,
		Published:    meta.published,
		Path:         p,
		Section:      section,
		Raw:          obj,
		RawText:      rawText,
		TopLevelKeys: sortedKeys(obj),
	}
	if typ != frmr.DocumentUnknown {
		doc.IDHint = string(typ)
	}
	items := Items(doc)
	doc.ItemCount = len(items)
	doc.IDKey = DetectIDKey(items)
	return doc
}

// marshal serializes v without HTML escaping. Map keys come out sorted.
func marshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
