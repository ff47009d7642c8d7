package index_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/fs"
	"github.com/fwojciec/frmr/index"
	"github.com/fwojciec/frmr/mock"
	"github.com/fwojciec/frmr/sqlite"
	"github.com/stretchr/testify/require"
)

var corpus = map[string]string{
	"FRMR.KSI.key-security-indicators.json": `{
  "info": {"name": "Key Security Indicators", "releases": [{"id": "25.11A", "published_date": "2025-11-14"}]},
  "KSI": {
    "IAM": {
      "name": "Identity and Access Management",
      "indicators": [
        {
          "id": "KSI-IAM-MFA",
          "name": "Phishing-Resistant MFA",
          "statement": "Enforce phishing-resistant MFA per IA-2(1).",
          "impact": {"low": true, "moderate": true, "high": true},
          "evidence_examples": ["MFA configuration export", "IdP policy report"]
        },
        {
          "id": "KSI-IAM-AAM",
          "name": "Automating Account Management",
          "statement": "Automate account management per AC-2.",
          "status": "active",
          "impact": {"low": false, "moderate": true, "high": true},
          "evidence_examples": ["Account lifecycle logs"]
        }
      ]
    },
    "SVC": {
      "name": "Service Configuration",
      "indicators": {
        "KSI-SVC-VRI": {
          "name": "Validating Resource Integrity",
          "statement": "Validate integrity per SC-13 and SI-7.1.",
          "impact": {"low": false, "moderate": false, "high": true}
        }
      }
    }
  }
}`,
	"FRMR.MAS.minimum-assessment-scope.json": `{
  "info": {"name": "Minimum Assessment Scope"},
  "FRR": {"MAS": {"data": {"both": {
    "FRR-MAS-01": {"name": "Scope", "statement": "Providers must identify all information resources, including AC-2 account stores."},
    "FRR-MAS-02": {"statement": "A significant change to scope requires notification."}
  }}}}
}`,
	"FRMR.FRD.definitions.json": `{
  "info": {"name": "FedRAMP Definitions"},
  "FRD": {"data": {"both": {
    "FRD-ACV": {"term": "Agency", "definition": "A federal agency using a cloud offering.", "alts": ["Federal Agency"]},
    "FRD-SCN": {"term": "Significant Change", "definition": "A change that impacts the security posture.", "alts": ["Major Change"]}
  }}}
}`,
	"FRMR.VDR.broken.json": `{not json`,
	"docs/significant-change.md": "# Significant Change Notifications\n\nProviders must submit a Significant Change Request before implementing a\nsignificant change to the cloud service offering.\n\n## Examples\n\n```yaml\ncontrol: SC-7(5)\n```\n\nBoundary changes affecting SC-7 require review.\n",
	"docs/continuous-monitoring.md": "# Continuous Monitoring\n\nProviders monitor systems monthly and report vulnerabilities per RA-5.\nAccount management follows AC-2(1) automation guidance.\n",
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// fixture is a service over a temporary corpus with counting collaborators.
type fixture struct {
	service  *index.Service
	root     string
	revision atomic.Value
	scans    atomic.Int32
	repo     *mock.Repository
}

func newFixture(t *testing.T, cache frmr.IndexCache) *fixture {
	t.Helper()

	f := &fixture{root: writeCorpus(t, corpus)}
	f.revision.Store("rev1")

	f.repo = &mock.Repository{
		EnsureReadyFn:  func(context.Context) (string, error) { return f.root, nil },
		HeadRevisionFn: func(context.Context) (string, error) { return f.revision.Load().(string), nil },
		InfoFn: func(context.Context) (*frmr.RepoInfo, error) {
			return &frmr.RepoInfo{Path: f.root, CommitHash: "abc1234"}, nil
		},
		UpdateFn: func(context.Context) (*frmr.UpdateResult, error) {
			return &frmr.UpdateResult{Success: true, Current: f.revision.Load().(string)}, nil
		},
	}

	scanner := &mock.Scanner{
		ScanFn: func(ctx context.Context, root string) (*frmr.Snapshot, error) {
			f.scans.Add(1)
			return fs.NewScanner().Scan(ctx, root)
		},
	}

	f.service = index.NewService(f.repo, scanner, sqlite.NewSearchIndexer(), cache)
	t.Cleanup(func() { f.service.Close() })
	return f
}

// built returns a fixture whose index has been built without a cache.
func built(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, nil)
	_, err := f.service.Build(context.Background(), false)
	require.NoError(t, err)
	return f
}
