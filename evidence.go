package frmr

// EvidenceCatalog is a community-maintained catalog of evidence sources
// for KSI items. It is supplementary and not part of the corpus.
type EvidenceCatalog struct {
	Disclaimer  string                      `json:"disclaimer" yaml:"disclaimer"`
	Version     string                      `json:"version,omitempty" yaml:"version"`
	LastUpdated string                      `json:"lastUpdated,omitempty" yaml:"lastUpdated"`
	Examples    map[string]*EvidenceExample `json:"examples" yaml:"examples" validate:"dive"`
}

// DefaultEvidenceDisclaimer is reported when the catalog has no disclaimer
// or no catalog is configured.
const DefaultEvidenceDisclaimer = "These evidence examples are community suggestions to help with FedRAMP compliance automation. They are NOT official FedRAMP guidance. Always verify requirements with official FedRAMP documentation at https://fedramp.gov"

// EvidenceExample lists the evidence for one KSI item.
type EvidenceExample struct {
	Name     string      `json:"name" yaml:"name"`
	Evidence []*Evidence `json:"evidence" yaml:"evidence" validate:"dive"`
	Retired  *Retirement `json:"retired,omitempty" yaml:"retired"`
}

// Evidence is one kind of evidence, such as an API response or a scan.
type Evidence struct {
	Type        string            `json:"type" yaml:"type" validate:"omitempty,oneof=api report scan log configuration documentation inventory metrics"`
	Description string            `json:"description" yaml:"description"`
	Tip         string            `json:"tip,omitempty" yaml:"tip"`
	Sources     []*EvidenceSource `json:"sources" yaml:"sources" validate:"dive"`
}

// EvidenceSource is where a provider's evidence can be collected.
type EvidenceSource struct {
	Provider    string `json:"provider" yaml:"provider" validate:"required"`
	Command     string `json:"command,omitempty" yaml:"command"`
	API         string `json:"api,omitempty" yaml:"api"`
	Artifact    string `json:"artifact,omitempty" yaml:"artifact"`
	Description string `json:"description,omitempty" yaml:"description"`
	Field       string `json:"field,omitempty" yaml:"field"`
	Service     string `json:"service,omitempty" yaml:"service"`
}

// Retirement records that a KSI item was retired.
type Retirement struct {
	Date       string `json:"date,omitempty" yaml:"date"`
	Reason     string `json:"reason,omitempty" yaml:"reason"`
	ReplacedBy string `json:"replacedBy,omitempty" yaml:"replacedBy"`
}
