// Package metrics exposes the orchestrator's fork/pipe-lifecycle
// counters and phase-duration histograms named in SPEC_FULL.md §5, via
// github.com/prometheus/client_golang.
//
// Grounded in kraklabs-cie's pkg/ingestion/metrics.go: a package-level
// singleton initialized once behind sync.Once, one Counter per
// lifecycle event and one Histogram per timed phase, all registered
// against the default Prometheus registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type pipelineMetrics struct {
	once sync.Once

	childSpawned    prometheus.Counter
	childExited     prometheus.Counter
	childNonZero    prometheus.Counter
	childSignaled   prometheus.Counter
	shortReads      prometheus.Counter
	compilesOK      prometheus.Counter
	compilesFailed  prometheus.Counter
	depFilesWritten prometheus.Counter

	mainCompileDuration  prometheus.Histogram
	debugCompileDuration prometheus.Histogram
	pipeReadDuration     prometheus.Histogram
}

var m pipelineMetrics

func (m *pipelineMetrics) init() {
	m.once.Do(func() {
		m.childSpawned = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_child_spawned_total", Help: "Fork-isolated compile children spawned",
		})
		m.childExited = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_child_exited_total", Help: "Fork-isolated compile children that exited zero",
		})
		m.childNonZero = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_child_nonzero_total", Help: "Fork-isolated compile children that exited non-zero",
		})
		m.childSignaled = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_child_signaled_total", Help: "Fork-isolated compile children killed by a signal",
		})
		m.shortReads = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_short_reads_total", Help: "Short reads on the parent/child IPC pipe",
		})
		m.compilesOK = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_compiles_ok_total", Help: "Pipeline runs that completed without errors",
		})
		m.compilesFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_compiles_failed_total", Help: "Pipeline runs that ended with at least one error diagnostic",
		})
		m.depFilesWritten = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emlangc_pipeline_depfiles_written_total", Help: "Dependency files written",
		})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.mainCompileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "emlangc_pipeline_main_compile_seconds", Help: "Duration of the main (non-debug) compile pass", Buckets: buckets,
		})
		m.debugCompileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "emlangc_pipeline_debug_compile_seconds", Help: "Duration of the debug-patched compile pass", Buckets: buckets,
		})
		m.pipeReadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "emlangc_pipeline_pipe_read_seconds", Help: "Duration of the parent's blocking read of the child's snapshot bundle", Buckets: buckets,
		})

		prometheus.MustRegister(
			m.childSpawned, m.childExited, m.childNonZero, m.childSignaled, m.shortReads,
			m.compilesOK, m.compilesFailed, m.depFilesWritten,
			m.mainCompileDuration, m.debugCompileDuration, m.pipeReadDuration,
		)
	})
}

func ChildSpawned()       { m.init(); m.childSpawned.Inc() }
func ChildExited()        { m.init(); m.childExited.Inc() }
func ChildExitedNonZero() { m.init(); m.childNonZero.Inc() }
func ChildSignaled()      { m.init(); m.childSignaled.Inc() }
func ShortRead()          { m.init(); m.shortReads.Inc() }
func CompileOK()          { m.init(); m.compilesOK.Inc() }
func CompileFailed()      { m.init(); m.compilesFailed.Inc() }
func DepFileWritten()     { m.init(); m.depFilesWritten.Inc() }

func ObserveMainCompile(seconds float64)  { m.init(); m.mainCompileDuration.Observe(seconds) }
func ObserveDebugCompile(seconds float64) { m.init(); m.debugCompileDuration.Observe(seconds) }
func ObservePipeRead(seconds float64)     { m.init(); m.pipeReadDuration.Observe(seconds) }
