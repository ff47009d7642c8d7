// Package prometheus provides metrics decorators for frmr services and the
// HTTP handler that exposes them.
package prometheus

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fwojciec/frmr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "frmr"

// Metrics holds the collectors shared by the decorators.
type Metrics struct {
	ToolCalls         *prometheus.CounterVec
	ToolDuration      *prometheus.HistogramVec
	RepositoryUpdates *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	IndexedDocuments  *prometheus.GaugeVec
	ScanErrors        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Tool calls by tool and result code.",
		}, []string{"tool", "code"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Tool call latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"tool"}),
		RepositoryUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repository",
			Name:      "updates_total",
			Help:      "Repository updates by result.",
		}, []string{"result"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "scan_duration_seconds",
			Help:      "Corpus scan latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		IndexedDocuments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "documents",
			Help:      "Documents in the last scan by kind.",
		}, []string{"kind"}),
		ScanErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "scan_errors",
			Help:      "Files that failed to load in the last scan.",
		}),
	}
	reg.MustRegister(
		m.ToolCalls,
		m.ToolDuration,
		m.RepositoryUpdates,
		m.ScanDuration,
		m.IndexedDocuments,
		m.ScanErrors,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Ensure MetricsToolService implements frmr.ToolService.
var _ frmr.ToolService = (*MetricsToolService)(nil)

// MetricsToolService counts and times tool calls.
type MetricsToolService struct {
	next frmr.ToolService
	m    *Metrics
}

// NewMetricsToolService creates a new MetricsToolService.
func NewMetricsToolService(next frmr.ToolService, m *Metrics) *MetricsToolService {
	return &MetricsToolService{next: next, m: m}
}

// Tools delegates to the wrapped service.
func (s *MetricsToolService) Tools() []*frmr.Tool {
	return s.next.Tools()
}

// CallTool delegates to the wrapped service and records the call. A
// successful call is counted with code "OK".
func (s *MetricsToolService) CallTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	begin := time.Now()
	res, err := s.next.CallTool(ctx, name, args)
	s.m.ToolDuration.WithLabelValues(name).Observe(time.Since(begin).Seconds())

	code := "OK"
	if err != nil {
		code = frmr.ErrorCode(err)
	}
	s.m.ToolCalls.WithLabelValues(name, code).Inc()
	return res, err
}

// Ensure MetricsRepository implements frmr.Repository.
var _ frmr.Repository = (*MetricsRepository)(nil)

// MetricsRepository counts repository updates.
type MetricsRepository struct {
	next frmr.Repository
	m    *Metrics
}

// NewMetricsRepository creates a new MetricsRepository.
func NewMetricsRepository(next frmr.Repository, m *Metrics) *MetricsRepository {
	return &MetricsRepository{next: next, m: m}
}

// EnsureReady delegates to the wrapped repository.
func (r *MetricsRepository) EnsureReady(ctx context.Context) (string, error) {
	return r.next.EnsureReady(ctx)
}

// HeadRevision delegates to the wrapped repository.
func (r *MetricsRepository) HeadRevision(ctx context.Context) (string, error) {
	return r.next.HeadRevision(ctx)
}

// Info delegates to the wrapped repository.
func (r *MetricsRepository) Info(ctx context.Context) (*frmr.RepoInfo, error) {
	return r.next.Info(ctx)
}

// Update delegates to the wrapped repository and counts the outcome as
// "success", "skipped" or "error".
func (r *MetricsRepository) Update(ctx context.Context) (*frmr.UpdateResult, error) {
	res, err := r.next.Update(ctx)
	switch {
	case err != nil:
		r.m.RepositoryUpdates.WithLabelValues("error").Inc()
	case res.Success:
		r.m.RepositoryUpdates.WithLabelValues("success").Inc()
	default:
		r.m.RepositoryUpdates.WithLabelValues("skipped").Inc()
	}
	return res, err
}

// Ensure MetricsScanner implements frmr.Scanner.
var _ frmr.Scanner = (*MetricsScanner)(nil)

// MetricsScanner times scans and records the size of the last one.
type MetricsScanner struct {
	next frmr.Scanner
	m    *Metrics
}

// NewMetricsScanner creates a new MetricsScanner.
func NewMetricsScanner(next frmr.Scanner, m *Metrics) *MetricsScanner {
	return &MetricsScanner{next: next, m: m}
}

// Scan delegates to the wrapped scanner. Gauges are only updated by
// successful scans.
func (s *MetricsScanner) Scan(ctx context.Context, root string) (*frmr.Snapshot, error) {
	begin := time.Now()
	snap, err := s.next.Scan(ctx, root)
	s.m.ScanDuration.Observe(time.Since(begin).Seconds())
	if err != nil {
		return nil, err
	}

	st := snap.State
	s.m.IndexedDocuments.WithLabelValues("frmr").Set(float64(len(st.Documents)))
	s.m.IndexedDocuments.WithLabelValues("markdown").Set(float64(len(st.MarkdownDocs)))
	s.m.IndexedDocuments.WithLabelValues("ksi").Set(float64(len(st.KsiItems)))
	s.m.ScanErrors.Set(float64(len(st.Errors)))
	return snap, nil
}
