package framework

import (
	"fmt"
	"runtime/debug"
)

func (r *Run) runInternal(catalog *Catalog) {
	for suiteName, tests := range catalog.All() {
		for _, d := range tests {
			switch {
			case d.Skip:
				r.outcomes.Skip++
			case r.config.Verbose:
				r.runIsolated(suiteName, d)
			default:
				// Deliberately unguarded: a failure here aborts the rest of the run.
				d.Execute(r.config.ServerURL)
				r.outcomes.Pass++
			}
		}
	}
}

func (r *Run) runIsolated(suiteName string, d TestDescriptor) {
	r.outcomes.TestCount++
	number := r.outcomes.TestCount
	r.reporter.TestStarted(number)
	start := r.now()

	err := r.invoke(d)

	if err == nil {
		r.outcomes.Pass++
	} else {
		r.outcomes.Fail++
		r.outcomes.Failures = append(r.outcomes.Failures,
			TestFailure{Suite: suiteName, Description: d.Description, Err: err})
	}
	r.reporter.TestFinished(number, err == nil, r.now().Sub(start), d.Description)
}

func (r *Run) invoke(d TestDescriptor) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
			if IsAssertionFailure(err) {
				r.logger.Printf("Test %q failed: %s", d.Description, err)
			} else {
				r.logger.Printf("Test %q failed: %s\n%s", d.Description, err, string(debug.Stack()))
			}
		}
	}()
	d.Execute(r.config.ServerURL)
	return nil
}

func panicError(p interface{}) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("unexpected panic in test: %+v", p)
}
