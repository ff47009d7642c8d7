package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/extract"
	"github.com/fwojciec/frmr/fs"
	"github.com/fwojciec/frmr/git"
	"github.com/fwojciec/frmr/index"
	frmrprom "github.com/fwojciec/frmr/prometheus"
	frmrslog "github.com/fwojciec/frmr/slog"
	"github.com/fwojciec/frmr/sqlite"
	"github.com/fwojciec/frmr/tools"
	"github.com/fwojciec/frmr/yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// version is set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// ConfigPaths are YAML configuration files read by the flag parser.
	// Missing files are skipped.
	ConfigPaths []string

	// Index service, set by Run.
	Service *index.Service
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{"~/.config/frmr/config.yaml", "frmr.yaml"},
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Service != nil {
		return m.Service.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("frmr"),
		kong.Description("Index, search and diff FedRAMP FRMR documents."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Configuration(yaml.Loader, m.ConfigPaths...),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'frmr --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.LogLevel)

	if err := m.wire(cli, deps, strings.HasPrefix(kongCtx.Command(), "serve") && cli.Serve.MetricsAddr != ""); err != nil {
		return err
	}
	defer m.Close()

	return kongCtx.Run(deps)
}

// wire builds the service graph from configuration.
func (m *Main) wire(cli *CLI, deps *Dependencies, withMetrics bool) error {
	logger := deps.Logger

	var metrics *frmrprom.Metrics
	if withMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = frmrprom.NewMetrics(reg)
		deps.Gatherer = reg
	}

	root := cli.Path
	if root == "" {
		root = git.DefaultPath()
	}
	checkout := git.NewRepository(root)
	checkout.Remote = cli.Remote
	checkout.Branch = cli.Branch
	checkout.AllowClone = cli.AllowAutoClone
	checkout.AutoUpdate = cli.AutoUpdate
	checkout.CheckInterval = time.Duration(cli.UpdateCheckHours) * time.Hour
	checkout.Logger = logger

	var repo frmr.Repository = frmrslog.NewLoggingRepository(checkout, logger)
	if metrics != nil {
		repo = frmrprom.NewMetricsRepository(repo, metrics)
	}

	scanner := fs.NewScanner()
	var cache frmr.IndexCache
	if cli.IndexPersist {
		cachePath := cli.CacheFile
		if cachePath == "" {
			cachePath = fs.DefaultCachePath()
		}
		// The default cache file lives inside the default checkout.
		if rel, ok := within(root, cachePath); ok {
			scanner.Ignore = append(slices.Clone(scanner.Ignore), rel)
		}
		cache = frmrslog.NewLoggingCache(fs.NewIndexCache(cachePath, extract.Version), logger)
	}

	var scan frmr.Scanner = scanner
	if metrics != nil {
		scan = frmrprom.NewMetricsScanner(scanner, metrics)
	}

	svc := index.NewService(repo, scan, sqlite.NewSearchIndexer(), cache)
	svc.Logger = logger
	if cli.EvidenceFile != "" {
		catalog, err := yaml.LoadEvidenceCatalog(cli.EvidenceFile)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "Hint: Set FEDRAMP_DOCS_EVIDENCE_FILE to a valid YAML or JSON evidence catalog\n")
			return fmt.Errorf("failed to load evidence catalog %q: %s", cli.EvidenceFile, frmr.ErrorMessage(err))
		}
		svc.Evidence = catalog
	}
	m.Service = svc

	var toolSvc frmr.ToolService = frmrslog.NewLoggingToolService(tools.New(svc), logger)
	if metrics != nil {
		toolSvc = frmrprom.NewMetricsToolService(toolSvc, metrics)
	}

	deps.Repository = repo
	deps.Index = svc
	deps.Tools = toolSvc
	deps.AutoUpdate = cli.AutoUpdate
	deps.UpdateInterval = checkout.CheckInterval
	return nil
}

// within returns the slash-separated path of target relative to dir when
// target lies inside dir.
func within(dir, target string) (string, bool) {
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
