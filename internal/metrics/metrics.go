// Package metrics provides Prometheus text-format metrics.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// Metric names.
const (
	HTTPRequestsTotal      = "shiftplan_http_requests_total"
	HTTPRequestDuration    = "shiftplan_http_request_duration_seconds"
	PlanGenerationTotal    = "shiftplan_plan_generation_total"
	PlanGenerationDuration = "shiftplan_plan_generation_duration_seconds"
	PlanFillRate           = "shiftplan_plan_fill_rate"
	PlanWorkloadGini       = "shiftplan_plan_workload_gini"
	UnassignedSlotsTotal   = "shiftplan_unassigned_slots_total"
	HardViolationsTotal    = "shiftplan_hard_violations_total"
	SoftViolationsTotal    = "shiftplan_soft_violations_total"
	labelSeparator         = "\x1f"
)

// MetricsRegistry holds named counters, gauges and histograms.
type MetricsRegistry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter is a monotonically increasing value per label set.
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge is a settable value per label set.
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram counts observations into cumulative buckets per label set.
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *MetricsRegistry
	once     sync.Once
)

// GetRegistry returns the process-wide registry.
func GetRegistry() *MetricsRegistry {
	once.Do(func() {
		registry = NewRegistry()
	})
	return registry
}

// NewRegistry creates a registry with the planner metrics registered.
func NewRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}

	r.NewCounter(HTTPRequestsTotal, "HTTP requests", []string{"method", "path", "status"})
	r.NewHistogram(HTTPRequestDuration, "HTTP request latency",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	r.NewCounter(PlanGenerationTotal, "Plan generations", []string{"mechanism", "status"})
	r.NewHistogram(PlanGenerationDuration, "Plan generation latency",
		[]string{"mechanism"},
		[]float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0})

	r.NewGauge(PlanFillRate, "Fill rate of the last plan in percent", []string{"mechanism"})
	r.NewGauge(PlanWorkloadGini, "Workload Gini coefficient of the last plan", []string{"mechanism"})
	r.NewCounter(UnassignedSlotsTotal, "Slots left open", []string{"reason"})
	r.NewCounter(HardViolationsTotal, "Obligatory violations found in audited plans", []string{"mechanism"})
	r.NewCounter(SoftViolationsTotal, "Soft violations accepted in loose mode", []string{"mechanism"})
	return r
}

// NewCounter registers a counter.
func (r *MetricsRegistry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge registers a gauge.
func (r *MetricsRegistry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram registers a histogram.
func (r *MetricsRegistry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter returns a registered counter.
func (r *MetricsRegistry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge returns a registered gauge.
func (r *MetricsRegistry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram returns a registered histogram.
func (r *MetricsRegistry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc adds one.
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add adds value.
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Value returns the current value of a label set.
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labelValues)]
}

// Set replaces the value.
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Value returns the current value of a label set.
func (g *Gauge) Value(labelValues ...string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labelValues)]
}

// Observe records one observation.
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	// per-bucket counts; the exposition accumulates them
	placed := false
	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
			placed = true
			break
		}
	}
	if !placed {
		h.counts[key][len(h.Buckets)]++
	}
	h.sums[key] += value
}

// Count returns the number of observations of a label set.
func (h *Histogram) Count(labelValues ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, c := range h.counts[labelKey(labelValues)] {
		total += c
	}
	return total
}

func labelKey(labels []string) string {
	return strings.Join(labels, labelSeparator)
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return GetRegistry().Handler()
}

// Handler serves the registry in Prometheus text format.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.Expose(w)
	})
}

// Expose writes every metric, sorted by name and label values.
func (r *MetricsRegistry) Expose(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.Name, c.Help, c.Name)
		c.mu.RLock()
		for _, key := range sortedKeys(c.values) {
			fmt.Fprintf(w, "%s%s %s\n", c.Name, braces(formatLabels(c.Labels, key)), formatValue(c.values[key]))
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", g.Name, g.Help, g.Name)
		g.mu.RLock()
		for _, key := range sortedKeys(g.values) {
			fmt.Fprintf(w, "%s%s %s\n", g.Name, braces(formatLabels(g.Labels, key)), formatValue(g.values[key]))
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.Name, h.Help, h.Name)
		h.mu.RLock()
		for _, key := range sortedKeys(h.counts) {
			counts := h.counts[key]
			labels := formatLabels(h.Labels, key)
			prefix := labels
			if prefix != "" {
				prefix += ","
			}
			cumulative := 0
			for i, bucket := range h.Buckets {
				cumulative += counts[i]
				fmt.Fprintf(w, "%s_bucket{%sle=\"%s\"} %d\n", h.Name, prefix, formatValue(bucket), cumulative)
			}
			cumulative += counts[len(h.Buckets)]
			fmt.Fprintf(w, "%s_bucket{%sle=\"+Inf\"} %d\n", h.Name, prefix, cumulative)
			fmt.Fprintf(w, "%s_sum%s %s\n", h.Name, braces(labels), formatValue(h.sums[key]))
			fmt.Fprintf(w, "%s_count%s %d\n", h.Name, braces(labels), cumulative)
		}
		h.mu.RUnlock()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatLabels(names []string, key string) string {
	if len(names) == 0 {
		return ""
	}
	values := strings.Split(key, labelSeparator)
	parts := make([]string, len(names))
	for i, name := range names {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		parts[i] = fmt.Sprintf("%s=%s", name, strconv.Quote(val))
	}
	return strings.Join(parts, ",")
}

func braces(labels string) string {
	if labels == "" {
		return ""
	}
	return "{" + labels + "}"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// RecordRequest records one HTTP request.
func (r *MetricsRegistry) RecordRequest(method, path string, status int, duration time.Duration) {
	if c := r.GetCounter(HTTPRequestsTotal); c != nil {
		c.Inc(method, path, strconv.Itoa(status))
	}
	if h := r.GetHistogram(HTTPRequestDuration); h != nil {
		h.Observe(duration.Seconds(), method, path)
	}
}

// RecordPlanGeneration records the outcome and latency of a planning run.
func (r *MetricsRegistry) RecordPlanGeneration(mechanism string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	if c := r.GetCounter(PlanGenerationTotal); c != nil {
		c.Inc(mechanism, status)
	}
	if h := r.GetHistogram(PlanGenerationDuration); h != nil {
		h.Observe(duration.Seconds(), mechanism)
	}
}

// RecordPlan records the quality figures of a generated plan.
func (r *MetricsRegistry) RecordPlan(plan *model.Plan, workloadGini float64) {
	if g := r.GetGauge(PlanFillRate); g != nil {
		g.Set(plan.Metrics.FillRate, plan.Mechanism)
	}
	if g := r.GetGauge(PlanWorkloadGini); g != nil {
		g.Set(workloadGini, plan.Mechanism)
	}
	if c := r.GetCounter(UnassignedSlotsTotal); c != nil {
		for _, u := range plan.Unassigned {
			c.Inc(string(u.Reason))
		}
	}
	if c := r.GetCounter(HardViolationsTotal); c != nil && len(plan.HardViolations) > 0 {
		c.Add(float64(len(plan.HardViolations)), plan.Mechanism)
	}
	if c := r.GetCounter(SoftViolationsTotal); c != nil && len(plan.SoftViolations) > 0 {
		c.Add(float64(len(plan.SoftViolations)), plan.Mechanism)
	}
}
