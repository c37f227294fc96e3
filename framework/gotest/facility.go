// Package gotest provides a framework.Facility backed by the Go test runner, so the contract
// tests can run as ordinary subtests of a go test invocation.
package gotest

import (
	"context"
	"fmt"
	"runtime/debug"
	"testing"

	"github.com/launchdarkly/xhr-contract-tests/framework"
)

// Name is the registry name of this facility.
const Name = framework.DefaultFacilityName

// Facility maps suites and tests onto subtests of a *testing.T. Each suite becomes a subtest of
// the test it was created from, and each test a subtest of its suite. A panic in a test body is
// reported with Errorf, so the Go test runner owns pass/fail.
type Facility struct {
	stack  []*testing.T
	before []func(framework.TestInfo)
	after  []func(framework.TestInfo)
}

// New creates a Facility rooted at t.
func New(t *testing.T) *Facility {
	return &Facility{stack: []*testing.T{t}}
}

// Register makes a Facility rooted at t available to framework.LookupFacility for the rest of
// the test. Each probe gets a fresh Facility, so hooks from one run never leak into another.
func Register(t *testing.T) {
	unregister := framework.RegisterFacility(Name, func(ctx context.Context) (framework.Facility, error) {
		if !testing.Testing() {
			return nil, fmt.Errorf("not running under go test: %w", framework.ErrFacilityUnavailable)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return New(t), nil
	})
	t.Cleanup(unregister)
}

func (f *Facility) current() *testing.T {
	return f.stack[len(f.stack)-1]
}

func (f *Facility) Suite(name string, fn func()) {
	f.current().Run(name, func(t *testing.T) {
		f.stack = append(f.stack, t)
		defer func() { f.stack = f.stack[:len(f.stack)-1] }()
		fn()
	})
}

func (f *Facility) Test(description string, options framework.TestOptions, fn func()) {
	f.current().Run(description, func(t *testing.T) {
		if options.Skip {
			t.Skip("skipped in test catalog")
		}
		info := framework.TestInfo{Name: description}
		for _, h := range f.before {
			h(info)
		}
		defer func() {
			for _, h := range f.after {
				h(info)
			}
		}()
		defer func() {
			if p := recover(); p != nil {
				t.Errorf("test body panicked: %v\n%s", p, string(debug.Stack()))
			}
		}()
		fn()
	})
}

func (f *Facility) BeforeEach(fn func(framework.TestInfo)) {
	f.before = append(f.before, fn)
}

func (f *Facility) AfterEach(fn func(framework.TestInfo)) {
	f.after = append(f.after, fn)
}
