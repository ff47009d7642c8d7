package frmr

// ChangeType classifies a diff change.
type ChangeType string

// ChangeType constants.
const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// DiffChange is one item-level difference between two documents.
type DiffChange struct {
	Type   ChangeType `json:"type"`
	ID     string     `json:"id"`
	Title  string     `json:"title,omitempty"`
	Fields []string   `json:"fields,omitempty"`
}

// DiffSummary counts changes by type.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// DiffResult is the structural difference between two documents.
type DiffResult struct {
	Summary DiffSummary   `json:"summary"`
	Changes []*DiffChange `json:"changes"`
}
