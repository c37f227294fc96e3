package framework

import (
	"context"
	"errors"
	"time"
)

const defaultProbeTimeout = time.Second * 5

// BackendKind says which strategy executed a run.
type BackendKind int

const (
	// InternalBackend is the engine's own sequential runner.
	InternalBackend BackendKind = iota
	// ProbedBackend means the run was handed to an acquired Facility.
	ProbedBackend
)

func (k BackendKind) String() string {
	switch k {
	case ProbedBackend:
		return "probed"
	default:
		return "internal"
	}
}

// Selection is the backend chosen for a run. Facility is non-nil only when Kind is ProbedBackend.
type Selection struct {
	Kind     BackendKind
	Facility Facility
}

type probeResult struct {
	facility Facility
	err      error
}

// SelectBackend decides once how a run will execute. The advanced facility is only probed if the
// configuration asks for it, and any failure to acquire it, including a timeout, selects the
// internal backend. The failure reason goes to the logger and nowhere else.
func SelectBackend(ctx context.Context, config Config, probe FacilityProbe, timeout time.Duration, logger Logger) Selection {
	if !config.PreferAdvancedBackend {
		return Selection{Kind: InternalBackend}
	}
	if logger == nil {
		logger = NullLogger()
	}
	if probe == nil {
		logger.Printf("No test facility probe configured; using internal runner")
		return Selection{Kind: InternalBackend}
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan probeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- probeResult{err: errors.New("test facility probe panicked")}
			}
		}()
		f, err := probe(probeCtx)
		resultCh <- probeResult{facility: f, err: err}
	}()

	var result probeResult
	select {
	case result = <-resultCh:
	case <-probeCtx.Done():
		result = probeResult{err: probeCtx.Err()}
	}
	if result.err == nil && result.facility == nil {
		result.err = ErrFacilityUnavailable
	}
	if result.err != nil {
		logger.Printf("Advanced test facility unavailable (%s); using internal runner", result.err)
		return Selection{Kind: InternalBackend}
	}
	return Selection{Kind: ProbedBackend, Facility: result.facility}
}
