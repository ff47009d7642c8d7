package frmr

import (
	"context"
	"time"
)

// IndexState is the complete, immutable result of one corpus scan.
type IndexState struct {
	RepoPath        string                  `json:"repoPath"`
	Revision        string                  `json:"repoHead,omitempty"`
	BuildID         string                  `json:"buildId"`
	IndexedAt       time.Time               `json:"indexedAt"`
	Documents       []*Document             `json:"frmrDocuments"`
	KsiItems        []*KsiItem              `json:"ksiItems"`
	ControlMappings []*ControlMapping       `json:"controlMappings"`
	MarkdownDocs    map[string]*MarkdownDoc `json:"-"`
	Errors          []string                `json:"errors"`
}

// Document returns the document with the given virtual path.
func (s *IndexState) Document(path string) (*Document, bool) {
	for _, doc := range s.Documents {
		if doc.Path == path {
			return doc, true
		}
	}
	return nil, false
}

// Snapshot is an IndexState together with the code-stripped markdown
// content that feeds the search index. It is the unit persisted by an
// IndexCache.
type Snapshot struct {
	State        *IndexState
	IndexContent map[string]string
}

// Scanner builds snapshots from a corpus checkout.
type Scanner interface {
	// Scan reads every document under root. Per-file failures are recorded
	// in the snapshot's error log rather than returned.
	Scan(ctx context.Context, root string) (*Snapshot, error)
}

// IndexCache persists snapshots keyed by repository revision.
type IndexCache interface {
	// Load returns the cached snapshot for revision. It returns a nil
	// snapshot and a nil error on a cache miss. An empty revision means the
	// revision is unknown.
	Load(ctx context.Context, revision string) (*Snapshot, error)

	// Save persists snapshot for revision, replacing any previous entry.
	Save(ctx context.Context, snapshot *Snapshot, revision string) error
}

// Repository provides a local checkout of the document corpus.
type Repository interface {
	// EnsureReady makes the corpus available locally and returns its root
	// directory. Returns EACQUISITION if the corpus cannot be obtained.
	EnsureReady(ctx context.Context) (string, error)

	// HeadRevision returns the current revision of the checkout, or an
	// empty string when it cannot be determined.
	HeadRevision(ctx context.Context) (string, error)

	// Info describes the checkout.
	Info(ctx context.Context) (*RepoInfo, error)

	// Update fetches the latest corpus and moves the checkout to it.
	Update(ctx context.Context) (*UpdateResult, error)
}

// RepoInfo describes a corpus checkout.
type RepoInfo struct {
	Path          string     `json:"path"`
	Remote        string     `json:"remote,omitempty"`
	Branch        string     `json:"branch,omitempty"`
	CommitHash    string     `json:"commitHash,omitempty"`
	CommitDate    string     `json:"commitDate,omitempty"`
	LastFetchedAt *time.Time `json:"lastFetchedAt,omitempty"`
	AutoUpdate    bool       `json:"autoUpdate"`
	CheckInterval string     `json:"checkInterval"`
}

// UpdateResult reports the outcome of a repository update.
type UpdateResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current,omitempty"`
}

// Health reports whether the index is ready to serve queries.
type Health struct {
	OK            bool      `json:"ok"`
	IndexedFiles  int       `json:"indexedFiles"`
	MarkdownFiles int       `json:"markdownFiles"`
	RepoPath      string    `json:"repoPath"`
	Revision      string    `json:"revision,omitempty"`
	BuildID       string    `json:"buildId,omitempty"`
	IndexedAt     time.Time `json:"indexedAt"`
	Repo          *RepoInfo `json:"repo,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
}

// IndexService builds and maintains the live index.
type IndexService interface {
	// Build makes the index ready, rescanning the corpus when force is set.
	Build(ctx context.Context, force bool) (*BuildSummary, error)

	// Refresh updates the repository and rebuilds the index when the
	// revision moved.
	Refresh(ctx context.Context) (*UpdateResult, error)
}
