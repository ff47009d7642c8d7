package index

import (
	"strings"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/diff"
	"github.com/fwojciec/frmr/extract"
)

// Documents returns the metadata of every indexed document.
func (s *Service) Documents() ([]frmr.DocumentMeta, error) {
	return query(s, func(v *view) ([]frmr.DocumentMeta, error) {
		metas := make([]frmr.DocumentMeta, len(v.state.Documents))
		for i, doc := range v.state.Documents {
			metas[i] = doc.Meta()
		}
		return metas, nil
	})
}

// Document returns the document at a virtual path.
func (s *Service) Document(path string) (*frmr.Document, error) {
	return query(s, func(v *view) (*frmr.Document, error) {
		return v.document(path)
	})
}

func (v *view) document(path string) (*frmr.Document, error) {
	doc, ok := v.state.Document(path)
	if !ok {
		return nil, frmr.Errorf(frmr.ENOTFOUND, "FRMR document not found at path %s", path)
	}
	return doc, nil
}

// DocumentDetail returns the document at path with its raw JSON. A
// non-empty typ must match the document's type.
func (s *Service) DocumentDetail(typ frmr.DocumentType, path string) (*frmr.DocumentDetail, error) {
	return query(s, func(v *view) (*frmr.DocumentDetail, error) {
		doc, err := v.document(path)
		if err != nil {
			return nil, err
		}
		if typ != "" && doc.Type != typ {
			return nil, frmr.Errorf(frmr.EBADREQUEST, "Requested type %s does not match document type %s", typ, doc.Type)
		}
		return &frmr.DocumentDetail{
			Meta:    doc.Meta(),
			RawJSON: doc.RawText,
			Summary: frmr.DocumentSummary{CountItems: doc.ItemCount, TopLevelKeys: doc.TopLevelKeys},
		}, nil
	})
}

// Versions returns the type, version and publication date of every
// document.
func (s *Service) Versions() ([]frmr.VersionInfo, error) {
	return query(s, func(v *view) ([]frmr.VersionInfo, error) {
		versions := make([]frmr.VersionInfo, len(v.state.Documents))
		for i, doc := range v.state.Documents {
			versions[i] = frmr.VersionInfo{
				Type:      doc.Type,
				Version:   doc.Version,
				Published: doc.Published,
				Path:      doc.Path,
			}
		}
		return versions, nil
	})
}

// Diff compares the items of two documents. idKey overrides identifier
// detection when non-empty.
func (s *Service) Diff(leftPath, rightPath, idKey string) (*frmr.DiffResult, error) {
	return query(s, func(v *view) (*frmr.DiffResult, error) {
		left, lok := v.state.Document(leftPath)
		right, rok := v.state.Document(rightPath)
		if !lok || !rok {
			return nil, frmr.Errorf(frmr.ENOTFOUND, "One or both FRMR documents could not be found in the index.")
		}
		return diff.Documents(left, right, idKey)
	})
}

// SearchDefinitions returns definitions whose term, definition text or
// alternate terms contain term, case-insensitively. limit <= 0 returns
// every match.
func (s *Service) SearchDefinitions(term string, limit int) (*frmr.DefinitionResult, error) {
	return query(s, func(v *view) (*frmr.DefinitionResult, error) {
		needle := strings.ToLower(term)
		matches := []*frmr.Definition{}
		seen := make(map[string]bool)

		for _, doc := range v.state.Documents {
			if doc.Type != frmr.DocumentFRD {
				continue
			}
			for _, item := range extract.Items(doc) {
				def := definition(item, doc.IDKey)
				if def.ID == "" || seen[def.ID] || !definitionMatches(def, needle) {
					continue
				}
				seen[def.ID] = true
				matches = append(matches, def)
			}
		}

		return &frmr.DefinitionResult{Total: len(matches), Definitions: page(matches, 0, limit)}, nil
	})
}

func definition(item frmr.Item, idKey string) *frmr.Definition {
	def := &frmr.Definition{ID: extract.ItemID(item, idKey)}
	def.Term, _ = item["term"].(string)
	def.Definition, _ = item["definition"].(string)
	def.Note, _ = item["note"].(string)
	if alts, ok := item["alts"].([]any); ok {
		for _, a := range alts {
			if s, ok := a.(string); ok {
				def.Alts = append(def.Alts, s)
			}
		}
	}
	return def
}

func definitionMatches(d *frmr.Definition, needle string) bool {
	if strings.Contains(strings.ToLower(d.Term), needle) || strings.Contains(strings.ToLower(d.Definition), needle) {
		return true
	}
	for _, alt := range d.Alts {
		if strings.Contains(strings.ToLower(alt), needle) {
			return true
		}
	}
	return false
}

// RequirementByID finds any requirement, indicator or definition by id,
// case-insensitively. KSI items are checked first, then the items of every
// document, then any object carrying a matching "id" field.
func (s *Service) RequirementByID(id string) (*frmr.Requirement, error) {
	return query(s, func(v *view) (*frmr.Requirement, error) {
		want := strings.ToUpper(strings.TrimSpace(id))

		if strings.HasPrefix(want, "KSI-") {
			for _, item := range v.state.KsiItems {
				if strings.ToUpper(item.ID) == want {
					return &frmr.Requirement{
						ID:               item.ID,
						Source:           frmr.DocumentKSI,
						DocumentPath:     item.DocPath,
						DocumentTitle:    v.title(item.DocPath),
						Title:            item.Title,
						Statement:        item.Statement,
						Description:      item.Description,
						Theme:            item.Category,
						Impact:           item.Impact,
						ControlMapping:   item.ControlMapping,
						EvidenceExamples: item.EvidenceExamples,
					}, nil
				}
			}
		}

		for _, doc := range v.state.Documents {
			for _, item := range extract.Items(doc) {
				if strings.ToUpper(extract.ItemID(item, doc.IDKey)) == want {
					return requirement(doc, want, item), nil
				}
			}
		}

		for _, doc := range v.state.Documents {
			if item := findByID(doc.Raw, want); item != nil {
				return requirement(doc, want, item), nil
			}
		}

		return nil, frmr.Errorf(frmr.ENOTFOUND, "Requirement not found for ID: %s", id).
			WithHint("Try using list_frmr_documents to see available documents, or list_ksi to browse KSI items.")
	})
}

func (v *view) title(path string) string {
	if doc, ok := v.state.Document(path); ok {
		return doc.Title
	}
	return ""
}

func requirement(doc *frmr.Document, id string, item map[string]any) *frmr.Requirement {
	req := &frmr.Requirement{
		ID:            id,
		Source:        doc.Type,
		DocumentPath:  doc.Path,
		DocumentTitle: doc.Title,
		Raw:           item,
	}
	req.Title, _ = item["name"].(string)
	if req.Title == "" {
		req.Title, _ = item["title"].(string)
	}
	req.Statement, _ = item["statement"].(string)
	req.Description, _ = item["description"].(string)
	return req
}

// findByID walks raw depth first and returns the first object whose "id"
// field equals want, case-insensitively.
func findByID(raw any, want string) map[string]any {
	stack := []any{raw}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var children []any
		switch n := node.(type) {
		case map[string]any:
			if id, ok := n["id"].(string); ok && strings.ToUpper(id) == want {
				return n
			}
			for _, k := range sortedKeys(n) {
				children = append(children, n[k])
			}
		case []any:
			children = n
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}
