package framework

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func probedRun(f Facility, verbose bool, reporter Reporter) *Run {
	return NewRun(Config{ServerURL: testServerURL, PreferAdvancedBackend: true, Verbose: verbose},
		WithFacilityProbe(probeReturning(f)),
		WithReporter(reporter),
		WithClock(steppingClock(time.Millisecond*5)),
	)
}

func TestProbedBackendRegistersSuitesAndTests(t *testing.T) {
	var log invocationLog
	c := NewCatalog()
	c.Register("A", TestDescriptor{Description: "a1", Execute: log.passing("a1")})
	c.Register("A", TestDescriptor{Description: "a2", Execute: log.failing("a2", "bad")})
	c.Register("B", TestDescriptor{Description: "b1", Execute: log.failing("b1", "never"), Skip: true})

	f := &fakeFacility{}
	run := probedRun(f, false, &recordingReporter{})
	s := run.Execute(context.Background(), c)

	assert.Equal(t, ProbedBackend, s.Kind)
	assert.Equal(t, []string{"A", "B"}, f.suites)
	assert.Equal(t, []string{"a1"}, f.passed)
	assert.Equal(t, []string{"a2"}, f.failed)
	assert.Equal(t, []string{"b1"}, f.skipped)
	assert.Equal(t, []string{"a1", "a2"}, log.calls)
	assert.Empty(t, f.hookLog, "hooks are only registered in verbose mode")

	// the facility owns accounting
	o := run.Outcomes()
	assert.Equal(t, 0, o.Pass+o.Fail+o.Skip)
}

func TestProbedBackendHooksReportEachTest(t *testing.T) {
	var log invocationLog
	c := NewCatalog()
	c.Register("A", TestDescriptor{Description: "a1", Execute: log.passing("a1")})
	c.Register("A", TestDescriptor{Description: "skipped", Execute: log.passing("skipped"), Skip: true})
	c.Register("B", TestDescriptor{Description: "b1", Execute: log.failing("b1", "bad")})
	c.Register("B", TestDescriptor{Description: "b2", Execute: log.passing("b2")})

	f := &fakeFacility{}
	reporter := &recordingReporter{}
	run := probedRun(f, true, reporter)
	run.Execute(context.Background(), c)

	assert.Equal(t, []string{
		"before:a1", "after:a1",
		"before:b1", "after:b1",
		"before:b2", "after:b2",
	}, f.hookLog)
	assert.Equal(t, []reportedTest{
		{1, true, time.Millisecond * 5, "a1"},
		{2, false, time.Millisecond * 5, "b1"},
		{3, true, time.Millisecond * 5, "b2"},
	}, reporter.completed)
	assert.Empty(t, reporter.started)
	assert.Empty(t, reporter.finished)
	assert.Equal(t, 3, run.Outcomes().TestCount)
}

func TestProbedBackendRethrowsSoFacilityClassifiesFailure(t *testing.T) {
	var log invocationLog
	c := NewCatalog()
	c.Register("S", TestDescriptor{Description: "bad", Execute: log.failing("bad", "boom")})
	c.Register("S", TestDescriptor{Description: "good", Execute: log.passing("good")})

	f := &fakeFacility{}
	run := probedRun(f, true, &recordingReporter{})
	run.Execute(context.Background(), c)

	assert.Equal(t, []string{"bad"}, f.failed)
	assert.Equal(t, []string{"good"}, f.passed)
}

func TestProbedBackendDoesNotReportSummary(t *testing.T) {
	c := NewCatalog()
	c.Register("S", TestDescriptor{Description: "t1", Execute: noop})

	reporter := &recordingReporter{}
	run := probedRun(&fakeFacility{}, true, reporter)
	run.Execute(context.Background(), c)
	run.Finish()

	assert.Empty(t, reporter.summaries)
}

func TestTraceNumberingMatchesAcrossBackends(t *testing.T) {
	build := func() *Catalog {
		c := NewCatalog()
		c.Register("A", TestDescriptor{Description: "a1", Execute: noop})
		c.Register("A", TestDescriptor{Description: "a2", Execute: noop})
		c.Register("B", TestDescriptor{Description: "b1", Execute: noop})
		return c
	}
	numbered := func(tests []reportedTest) []string {
		var ret []string
		for _, rt := range tests {
			ret = append(ret, string(rune('0'+rt.number))+":"+rt.description)
		}
		return ret
	}

	internalReporter := &recordingReporter{}
	verboseInternalRun(internalReporter).Execute(context.Background(), build())

	probedReporter := &recordingReporter{}
	probedRun(&fakeFacility{}, true, probedReporter).Execute(context.Background(), build())

	expected := []string{"1:a1", "2:a2", "3:b1"}
	assert.Equal(t, expected, numbered(internalReporter.finished))
	assert.Equal(t, expected, numbered(probedReporter.completed))
}
