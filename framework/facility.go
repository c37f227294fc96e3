package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultFacilityName is the registry name of the facility a Run probes for unless told otherwise.
const DefaultFacilityName = "gotest"

// ErrFacilityUnavailable is returned by a probe when the requested facility is not present.
var ErrFacilityUnavailable = errors.New("test facility is not available")

// TestOptions are the per-test settings passed to a Facility.
type TestOptions struct {
	Skip bool
}

// TestInfo identifies the test that a lifecycle hook is running for.
type TestInfo struct {
	Name string
}

// Facility is an advanced test runner provided by the host environment. When a Run acquires one,
// it registers every suite and test with it and lets it own execution and pass/fail accounting.
//
// Suite opens a named group; tests registered while its function runs belong to that group.
// BeforeEach and AfterEach hooks run around every test that is not skipped, and AfterEach must
// run even if the test body panicked.
type Facility interface {
	Suite(name string, fn func())
	Test(description string, options TestOptions, fn func())
	BeforeEach(fn func(TestInfo))
	AfterEach(fn func(TestInfo))
}

// FacilityProbe tries to acquire a Facility. It may block, and it may fail.
type FacilityProbe func(ctx context.Context) (Facility, error)

var facilityRegistry = struct {
	probes map[string]FacilityProbe
	lock   sync.Mutex
}{probes: make(map[string]FacilityProbe)}

// RegisterFacility makes a probe available under a name, replacing any earlier registration.
// The returned function removes it again.
func RegisterFacility(name string, probe FacilityProbe) (unregister func()) {
	facilityRegistry.lock.Lock()
	facilityRegistry.probes[name] = probe
	facilityRegistry.lock.Unlock()
	return func() {
		facilityRegistry.lock.Lock()
		delete(facilityRegistry.probes, name)
		facilityRegistry.lock.Unlock()
	}
}

// LookupFacility returns a probe that acquires the named facility. The lookup itself happens
// when the probe is called, so a facility registered after LookupFacility is still found.
func LookupFacility(name string) FacilityProbe {
	return func(ctx context.Context) (Facility, error) {
		facilityRegistry.lock.Lock()
		probe := facilityRegistry.probes[name]
		facilityRegistry.lock.Unlock()
		if probe == nil {
			return nil, fmt.Errorf("%q: %w", name, ErrFacilityUnavailable)
		}
		return probe(ctx)
	}
}
