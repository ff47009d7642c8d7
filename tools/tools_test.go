package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/fs"
	"github.com/fwojciec/frmr/index"
	"github.com/fwojciec/frmr/mock"
	"github.com/fwojciec/frmr/sqlite"
	"github.com/fwojciec/frmr/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ tools.Index = (*index.Service)(nil)

var corpus = map[string]string{
	"FRMR.KSI.key-security-indicators.json": `{
  "info": {"name": "Key Security Indicators"},
  "KSI": {
    "IAM": {
      "name": "Identity and Access Management",
      "indicators": [
        {"id": "KSI-IAM-MFA", "name": "Phishing-Resistant MFA", "statement": "Enforce phishing-resistant MFA per IA-2(1).", "impact": {"low": true, "moderate": true, "high": true}},
        {"id": "KSI-IAM-AAM", "name": "Automating Account Management", "statement": "Automate account management per AC-2.", "impact": {"low": false, "moderate": true, "high": true}}
      ]
    },
    "SVC": {
      "name": "Service Configuration",
      "indicators": {
        "KSI-SVC-VRI": {"name": "Validating Resource Integrity", "statement": "Validate integrity per SC-13.", "impact": {"low": false, "moderate": false, "high": true}}
      }
    }
  }
}`,
	"docs/significant-change.md": "# Significant Change Notifications\n\nProviders must submit a Significant Change Request before implementing a\nsignificant change to the cloud service offering.\n\n## Examples\n\n```yaml\ncontrol: SC-7(5)\n```\n\nBoundary changes affecting SC-7 require review.\n",
	"docs/continuous-monitoring.md": "# Continuous Monitoring\n\nProviders monitor systems monthly and report vulnerabilities per RA-5.\n",
}

// newService returns an index service over a temporary corpus. The
// revision reported by the repository is read from rev.
func newService(t *testing.T, rev *string) (*index.Service, *mock.Repository) {
	t.Helper()

	root := t.TempDir()
	for name, content := range corpus {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	repo := &mock.Repository{
		EnsureReadyFn:  func(context.Context) (string, error) { return root, nil },
		HeadRevisionFn: func(context.Context) (string, error) { return *rev, nil },
		InfoFn: func(context.Context) (*frmr.RepoInfo, error) {
			return &frmr.RepoInfo{Path: root}, nil
		},
		UpdateFn: func(context.Context) (*frmr.UpdateResult, error) {
			return &frmr.UpdateResult{Success: true, Current: *rev}, nil
		},
	}
	svc := index.NewService(repo, fs.NewScanner(), sqlite.NewSearchIndexer(), nil)
	t.Cleanup(func() { svc.Close() })
	return svc, repo
}

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	rev := "rev1"
	svc, _ := newService(t, &rev)
	_, err := svc.Build(context.Background(), false)
	require.NoError(t, err)
	return tools.New(svc)
}

func call(t *testing.T, r *tools.Registry, name, args string) (any, error) {
	t.Helper()
	return r.CallTool(context.Background(), name, json.RawMessage(args))
}

func TestNew(t *testing.T) {
	t.Parallel()

	r := tools.New(nil)

	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotEmpty(t, tool.Category, tool.Name)
		assert.NotEmpty(t, tool.Keywords, tool.Name)
		assert.True(t, json.Valid(tool.InputSchema), tool.Name)
	}

	assert.Equal(t, []string{
		"list_frmr_documents", "get_frmr_document", "list_versions",
		"list_ksi", "get_ksi", "filter_by_impact", "get_theme_summary", "get_evidence_checklist", "get_evidence_examples",
		"list_controls", "get_control_requirements", "analyze_control_coverage",
		"search_markdown", "read_markdown", "search_definitions", "get_requirement_by_id",
		"diff_frmr", "grep_controls_in_markdown", "get_significant_change_guidance",
		"health_check", "update_repository", "search_tools",
	}, names)
}

func TestRegistry_Schema(t *testing.T) {
	t.Parallel()

	r := tools.New(nil)

	schema := func(t *testing.T, name string) *tools.Schema {
		t.Helper()
		tool, ok := r.Tool(name)
		require.True(t, ok)
		var s tools.Schema
		require.NoError(t, json.Unmarshal(tool.InputSchema, &s))
		return &s
	}

	t.Run("integer bounds and defaults", func(t *testing.T) {
		t.Parallel()

		s := schema(t, "list_ksi")
		assert.Equal(t, "object", s.Type)
		assert.Empty(t, s.Required)

		limit := s.Properties["limit"]
		require.NotNil(t, limit)
		assert.Equal(t, "integer", limit.Type)
		assert.Equal(t, 1, *limit.Minimum)
		assert.Equal(t, 200, *limit.Maximum)
		assert.InDelta(t, 100, limit.Default, 0)
		assert.Equal(t, "string", s.Properties["text"].Type)
	})

	t.Run("required enums", func(t *testing.T) {
		t.Parallel()

		s := schema(t, "filter_by_impact")
		assert.Equal(t, []string{"impact"}, s.Required)
		assert.Equal(t, []string{"low", "moderate", "high"}, s.Properties["impact"].Enum)
	})

	t.Run("boolean defaults", func(t *testing.T) {
		t.Parallel()

		s := schema(t, "grep_controls_in_markdown")
		assert.Equal(t, []string{"control"}, s.Required)
		assert.Equal(t, "boolean", s.Properties["with_enhancements"].Type)
		assert.Equal(t, true, s.Properties["with_enhancements"].Default)
	})

	t.Run("tools without arguments", func(t *testing.T) {
		t.Parallel()

		s := schema(t, "health_check")
		assert.Empty(t, s.Properties)
		assert.False(t, s.AdditionalProperties)
	})
}

func TestRegistry_CallTool(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	t.Run("unknown tool", func(t *testing.T) {
		t.Parallel()

		_, err := call(t, r, "no_such_tool", `{}`)
		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
		assert.NotEmpty(t, frmr.ErrorHint(err))
	})

	t.Run("rejects invalid arguments", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			tool    string
			args    string
			message string
		}{
			{"below minimum", "list_ksi", `{"limit": 0}`, "Invalid arguments: limit must be at least 1"},
			{"above maximum", "list_ksi", `{"limit": 500}`, "Invalid arguments: limit must be at most 200"},
			{"missing required", "get_ksi", `{}`, "Invalid arguments: id is required"},
			{"not in enum", "filter_by_impact", `{"impact": "extreme"}`, "Invalid arguments: impact must be one of: low, moderate, high"},
			{"wrong type", "list_ksi", `{"limit": "ten"}`, "Invalid arguments: limit must be of type integer"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, err := call(t, r, tt.tool, tt.args)
				assert.Equal(t, frmr.EBADREQUEST, frmr.ErrorCode(err))
				assert.Equal(t, tt.message, frmr.ErrorMessage(err))
			})
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		_, err := call(t, r, "list_ksi", `{"limit":`)
		assert.Equal(t, frmr.EBADREQUEST, frmr.ErrorCode(err))
	})

	t.Run("missing arguments use defaults", func(t *testing.T) {
		t.Parallel()

		for _, args := range []string{``, `null`, `{}`} {
			res, err := call(t, r, "list_ksi", args)
			require.NoError(t, err)
			assert.Equal(t, 3, res.(*frmr.KsiPage).Total)
			assert.Len(t, res.(*frmr.KsiPage).Items, 3)
		}
	})

	t.Run("boolean defaults apply", func(t *testing.T) {
		t.Parallel()

		res, err := call(t, r, "grep_controls_in_markdown", `{"control": "SC-7"}`)
		require.NoError(t, err)
		assert.Len(t, res.(map[string]any)["matches"], 2)

		res, err = call(t, r, "grep_controls_in_markdown", `{"control": "SC-7", "with_enhancements": false}`)
		require.NoError(t, err)
		assert.Len(t, res.(map[string]any)["matches"], 1)
	})

	t.Run("passes service errors through", func(t *testing.T) {
		t.Parallel()

		_, err := call(t, r, "get_ksi", `{"id": "KSI-NOPE"}`)
		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))

		_, err = call(t, r, "read_markdown", `{"path": "docs/missing.md"}`)
		assert.Equal(t, frmr.ENOTFOUND, frmr.ErrorCode(err))
	})

	t.Run("filters by impact", func(t *testing.T) {
		t.Parallel()

		res, err := call(t, r, "filter_by_impact", `{"impact": "low"}`)
		require.NoError(t, err)
		page := res.(*frmr.KsiPage)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "KSI-IAM-MFA", page.Items[0].ID)
	})

	t.Run("searches markdown", func(t *testing.T) {
		t.Parallel()

		res, err := call(t, r, "search_markdown", `{"query": "continuous monitoring"}`)
		require.NoError(t, err)
		assert.Equal(t, 1, res.(*frmr.MarkdownSearchResult).Total)
	})

	t.Run("reads markdown", func(t *testing.T) {
		t.Parallel()

		res, err := call(t, r, "read_markdown", `{"path": "docs/continuous-monitoring.md"}`)
		require.NoError(t, err)
		doc := res.(map[string]any)
		assert.Equal(t, "docs/continuous-monitoring.md", doc["path"])
		assert.Equal(t, corpus["docs/continuous-monitoring.md"], doc["content"])
		assert.NotEmpty(t, doc["contentHash"])
	})

	t.Run("results marshal to JSON", func(t *testing.T) {
		t.Parallel()

		for _, tool := range r.Tools() {
			if tool.Name == "update_repository" {
				continue
			}
			res, err := call(t, r, tool.Name, `{}`)
			if err != nil {
				continue
			}
			_, err = json.Marshal(res)
			assert.NoError(t, err, tool.Name)
		}
	})
}

func TestRegistry_CallTool_NotReady(t *testing.T) {
	t.Parallel()

	rev := "rev1"
	svc, _ := newService(t, &rev)
	r := tools.New(svc)

	_, err := call(t, r, "health_check", `{}`)
	assert.Equal(t, frmr.ENOTREADY, frmr.ErrorCode(err))
}

func TestRegistry_UpdateRepository(t *testing.T) {
	t.Parallel()

	rev := "rev1"
	svc, _ := newService(t, &rev)
	_, err := svc.Build(context.Background(), false)
	require.NoError(t, err)
	r := tools.New(svc)

	rev = "rev2"
	res, err := call(t, r, "update_repository", `{}`)
	require.NoError(t, err)
	assert.True(t, res.(*frmr.UpdateResult).Success)

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rev2", health.Revision)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("duplicate names panic", func(t *testing.T) {
		t.Parallel()

		r := tools.NewRegistry()
		fn := func(context.Context, struct{}) (any, error) { return nil, nil }
		tools.Register(r, frmr.Tool{Name: "once"}, fn)
		assert.Panics(t, func() { tools.Register(r, frmr.Tool{Name: "once"}, fn) })
	})

	t.Run("non-struct arguments panic", func(t *testing.T) {
		t.Parallel()

		r := tools.NewRegistry()
		assert.Panics(t, func() {
			tools.Register(r, frmr.Tool{Name: "bad"}, func(context.Context, string) (any, error) { return nil, nil })
		})
	})

	t.Run("decodes over defaults", func(t *testing.T) {
		t.Parallel()

		type args struct {
			Name  string `json:"name" default:"anon"`
			Count int    `json:"count" default:"3"`
		}
		r := tools.NewRegistry()
		tools.Register(r, frmr.Tool{Name: "echo"}, func(_ context.Context, a args) (any, error) { return a, nil })

		res, err := r.CallTool(context.Background(), "echo", json.RawMessage(`{"count": 7}`))
		require.NoError(t, err)
		assert.Equal(t, args{Name: "anon", Count: 7}, res)
	})
}

func TestErrorResult(t *testing.T) {
	t.Parallel()

	t.Run("application error", func(t *testing.T) {
		t.Parallel()

		res := tools.ErrorResult(frmr.Errorf(frmr.ENOTFOUND, "KSI item not found").WithHint("Try list_ksi."))
		assert.Equal(t, &tools.ErrorDetail{Code: frmr.ENOTFOUND, Message: "KSI item not found", Hint: "Try list_ksi."}, res["error"])

		buf, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"KSI item not found","hint":"Try list_ksi."}}`, string(buf))
	})

	t.Run("untyped error", func(t *testing.T) {
		t.Parallel()

		res := tools.ErrorResult(errors.New("disk on fire"))
		assert.Equal(t, &tools.ErrorDetail{Code: frmr.EIO, Message: "disk on fire"}, res["error"])
	})
}
