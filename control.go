package frmr

// ControlMapping links an FRMR item to a NIST control.
type ControlMapping struct {
	Source              DocumentType `json:"source"`
	SourceID            string       `json:"sourceId"`
	Control             string       `json:"control"`
	ControlEnhancements []string     `json:"controlEnhancements"`
	Path                string       `json:"path"`
}

// ControlFilter represents a filter for listing control mappings.
type ControlFilter struct {
	Source  DocumentType `json:"source"`
	Family  string       `json:"family"`
	Control string       `json:"control"`
}

// FamilyCoverage summarizes how one control family is referenced.
type FamilyCoverage struct {
	Family           string         `json:"family"`
	DistinctControls int            `json:"distinctControls"`
	MappingCount     int            `json:"mappingCount"`
	Controls         []string       `json:"controls"`
	Sources          []DocumentType `json:"sources"`
}

// ControlCoverage summarizes control references across the index.
type ControlCoverage struct {
	TotalFamilies    int               `json:"totalFamilies"`
	TotalMappings    int               `json:"totalMappings"`
	DistinctControls int               `json:"distinctControls"`
	Families         []*FamilyCoverage `json:"families"`
}
