package framework

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Config is the part of the command-line configuration that the engine consumes. ServerURL is
// already validated and has no trailing slash.
type Config struct {
	ServerURL             string
	PreferAdvancedBackend bool
	Verbose               bool
}

// Run is one execution of a Catalog. It owns the outcome counters, so separate runs never share
// state.
type Run struct {
	id           string
	config       Config
	outcomes     Outcomes
	reporter     Reporter
	logger       Logger
	probe        FacilityProbe
	probeTimeout time.Duration
	now          func() time.Time
	suiteCount   int
	selection    Selection
}

// RunOption customizes a Run.
type RunOption func(*Run)

// WithReporter sets the Reporter used when the configuration is verbose. Without it a verbose run
// reports to a ConsoleReporter on stderr.
func WithReporter(reporter Reporter) RunOption {
	return func(r *Run) { r.reporter = reporter }
}

// WithLogger sets the debug logger.
func WithLogger(logger Logger) RunOption {
	return func(r *Run) { r.logger = logger }
}

// WithFacilityProbe replaces the default probe, which looks up DefaultFacilityName.
func WithFacilityProbe(probe FacilityProbe) RunOption {
	return func(r *Run) { r.probe = probe }
}

// WithProbeTimeout bounds how long acquiring the facility may take.
func WithProbeTimeout(timeout time.Duration) RunOption {
	return func(r *Run) { r.probeTimeout = timeout }
}

// WithClock replaces time.Now, for deterministic timings in tests.
func WithClock(now func() time.Time) RunOption {
	return func(r *Run) { r.now = now }
}

func NewRun(config Config, options ...RunOption) *Run {
	r := &Run{
		id:     uuid.NewString(),
		config: config,
		probe:  LookupFacility(DefaultFacilityName),
		now:    time.Now,
	}
	for _, o := range options {
		o(r)
	}
	if r.logger == nil {
		r.logger = NullLogger()
	}
	r.logger = LoggerWithPrefix(r.logger, "[run "+r.id[:8]+"] ")
	switch {
	case !config.Verbose:
		r.reporter = nullReporter{}
	case r.reporter == nil:
		r.reporter = NewConsoleReporter(nil)
	}
	return r
}

// ID returns the unique identifier of this run.
func (r *Run) ID() string { return r.id }

// Config returns the configuration the run was created with.
func (r *Run) Config() Config { return r.config }

// Outcomes returns a copy of the current tallies.
func (r *Run) Outcomes() Outcomes {
	ret := r.outcomes
	ret.Failures = append([]TestFailure(nil), r.outcomes.Failures...)
	return ret
}

// Selection returns the backend chosen by Execute.
func (r *Run) Selection() Selection { return r.selection }

// Execute selects a backend and drives every descriptor of the catalog through it.
//
// With the probed backend, Execute returns once the facility has accepted every registration;
// the facility owns pass/fail accounting from then on. With the internal backend, the outcome
// counters are complete when Execute returns. In non-verbose mode a panicking test body is not
// recovered, and the panic propagates out of Execute.
func (r *Run) Execute(ctx context.Context, catalog *Catalog) Selection {
	r.outcomes.StartTime = r.now()
	r.suiteCount = catalog.Len()
	r.logger.Printf("Starting run against %s with %d suites", r.config.ServerURL, r.suiteCount)

	r.selection = SelectBackend(ctx, r.config, r.probe, r.probeTimeout, r.logger)
	r.logger.Printf("Using %s backend", r.selection.Kind)

	switch r.selection.Kind {
	case ProbedBackend:
		r.runProbed(r.selection.Facility, catalog)
	default:
		r.runInternal(catalog)
	}
	return r.selection
}

// Finish reports the summary of an internal-backend run. It does nothing if the run was not
// verbose, or if a facility executed it, since the facility does its own reporting.
func (r *Run) Finish() {
	if !r.config.Verbose || r.selection.Kind != InternalBackend {
		return
	}
	r.reporter.RunFinished(Summary{
		Outcomes:   r.Outcomes(),
		SuiteCount: r.suiteCount,
		Duration:   r.now().Sub(r.outcomes.StartTime),
	})
}
