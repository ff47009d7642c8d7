package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/frmr"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Repository frmr.Repository
	Index      frmr.IndexService
	Tools      frmr.ToolService
	Gatherer   prometheus.Gatherer

	// AutoUpdate enables the periodic refresh loop of the serve command.
	AutoUpdate     bool
	UpdateInterval time.Duration
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Path             string `env:"FEDRAMP_DOCS_PATH" help:"Corpus checkout directory (default ~/.cache/fedramp-docs)"`
	Remote           string `env:"FEDRAMP_DOCS_REMOTE" default:"https://github.com/FedRAMP/docs" help:"Git remote cloned when the checkout is missing"`
	Branch           string `env:"FEDRAMP_DOCS_BRANCH" default:"main" help:"Branch to clone and track"`
	AllowAutoClone   bool   `env:"FEDRAMP_DOCS_ALLOW_AUTO_CLONE" default:"true" negatable:"" help:"Clone the corpus when the checkout is missing"`
	AutoUpdate       bool   `env:"FEDRAMP_DOCS_AUTO_UPDATE" default:"true" negatable:"" help:"Fetch upstream changes when the checkout is stale"`
	UpdateCheckHours int    `env:"FEDRAMP_DOCS_UPDATE_CHECK_HOURS" default:"24" help:"Hours between upstream checks"`
	IndexPersist     bool   `env:"FEDRAMP_DOCS_INDEX_PERSIST" default:"true" negatable:"" help:"Persist the index to a cache file"`
	CacheFile        string `env:"FEDRAMP_DOCS_CACHE_FILE" help:"Index cache file (default ~/.cache/fedramp-docs/index-v1.json)"`
	EvidenceFile     string `env:"FEDRAMP_DOCS_EVIDENCE_FILE" type:"path" help:"YAML or JSON evidence catalog"`
	LogLevel         string `env:"FEDRAMP_DOCS_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`

	Serve ServeCmd `cmd:"" help:"Serve the tools over MCP on stdin and stdout"`
	Build BuildCmd `cmd:"" help:"Rebuild the index and print a summary"`
	Call  CallCmd  `cmd:"" help:"Call one tool and print its JSON result"`
	Tools ToolsCmd `cmd:"" help:"Search the tool catalog"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	MetricsAddr string        `env:"FEDRAMP_DOCS_METRICS_ADDR" help:"Serve Prometheus metrics on this address"`
	Watch       bool          `help:"Rebuild the index when corpus files change"`
	Debounce    time.Duration `default:"2s" help:"Quiet period before a watched change triggers a rebuild"`
}

// BuildCmd is the "build" subcommand.
type BuildCmd struct{}

// CallCmd is the "call" subcommand.
type CallCmd struct {
	Tool string `arg:"" help:"Tool name"`
	Args string `arg:"" optional:"" default:"{}" help:"JSON arguments object"`
}

// ToolsCmd is the "tools" subcommand.
type ToolsCmd struct {
	Query    string `arg:"" optional:"" help:"Search terms"`
	Category string `short:"c" help:"Only list tools in this category"`
	Limit    int    `short:"n" default:"22" help:"Maximum number of tools"`
}
