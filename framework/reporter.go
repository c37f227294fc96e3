package framework

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Reporter observes test boundaries. It only formats output; it never affects counters or
// control flow.
//
// The internal runner calls TestStarted before a test body and TestFinished after it. A facility
// run calls TestCompleted once, from the after-hook. RunFinished is called at the end of a
// verbose internal run.
type Reporter interface {
	TestStarted(number int)
	TestFinished(number int, success bool, elapsed time.Duration, description string)
	TestCompleted(number int, success bool, elapsed time.Duration, description string)
	RunFinished(summary Summary)
}

// Summary is what a Reporter gets at the end of a run.
type Summary struct {
	Outcomes   Outcomes
	SuiteCount int
	Duration   time.Duration
}

type nullReporter struct{}

func (nullReporter) TestStarted(int)                                {}
func (nullReporter) TestFinished(int, bool, time.Duration, string)  {}
func (nullReporter) TestCompleted(int, bool, time.Duration, string) {}
func (nullReporter) RunFinished(Summary)                            {}

// NullReporter returns a Reporter that prints nothing.
func NullReporter() Reporter { return nullReporter{} }

// ConsoleReporter writes fixed-format trace lines and a plain-text summary.
type ConsoleReporter struct {
	out              io.Writer
	passWord         *color.Color
	failWord         *color.Color
	descriptionWidth int
}

// ConsoleReporterOption customizes a ConsoleReporter.
type ConsoleReporterOption func(*ConsoleReporter)

// WithColor turns coloring of the pass/fail words on or off. By default it follows the terminal
// detection of the color package.
func WithColor(enabled bool) ConsoleReporterOption {
	return func(c *ConsoleReporter) {
		if enabled {
			c.passWord.EnableColor()
			c.failWord.EnableColor()
		} else {
			c.passWord.DisableColor()
			c.failWord.DisableColor()
		}
	}
}

// WithDescriptionWidth truncates descriptions to a display width; 0 means no limit.
func WithDescriptionWidth(width int) ConsoleReporterOption {
	return func(c *ConsoleReporter) { c.descriptionWidth = width }
}

// NewConsoleReporter creates a ConsoleReporter. If out is nil it writes to stderr.
func NewConsoleReporter(out io.Writer, options ...ConsoleReporterOption) *ConsoleReporter {
	if out == nil {
		out = color.Error
	}
	c := &ConsoleReporter{
		out:      out,
		passWord: color.New(color.FgGreen),
		failWord: color.New(color.FgRed, color.Bold),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

func (c *ConsoleReporter) TestStarted(number int) {
	fmt.Fprintf(c.out, "%03d ", number)
}

func (c *ConsoleReporter) TestFinished(number int, success bool, elapsed time.Duration, description string) {
	fmt.Fprintf(c.out, "%s %-6d %s\n", c.word(success), elapsed.Milliseconds(), c.description(description))
}

func (c *ConsoleReporter) TestCompleted(number int, success bool, elapsed time.Duration, description string) {
	fmt.Fprintf(c.out, "%03d %s %-6d %s\n", number, c.word(success), elapsed.Milliseconds(),
		c.description(description))
}

func (c *ConsoleReporter) RunFinished(summary Summary) {
	o := summary.Outcomes
	fmt.Fprintln(c.out)
	// Skipped tests are counted here, unlike Outcomes.TestCount, which only counts tests that ran.
	fmt.Fprintf(c.out, "# tests %d\n", o.Total())
	fmt.Fprintf(c.out, "# suites %d\n", summary.SuiteCount)
	fmt.Fprintf(c.out, "# pass %d\n", o.Pass)
	fmt.Fprintf(c.out, "# fail %d\n", o.Fail)
	fmt.Fprintf(c.out, "# cancelled %d\n", o.Cancel)
	fmt.Fprintf(c.out, "# skipped %d\n", o.Skip)
	fmt.Fprintf(c.out, "# todo %d\n", o.Todo)
	fmt.Fprintf(c.out, "# duration_ms %d\n", summary.Duration.Milliseconds())
	if len(o.Failures) == 0 {
		return
	}
	fmt.Fprintln(c.out, "# failures:")
	for _, f := range o.Failures {
		fmt.Fprintf(c.out, "#   %s/%s\n", f.Suite, f.Description)
		for _, line := range strings.Split(f.Err.Error(), "\n") {
			fmt.Fprintf(c.out, "#     %s\n", line)
		}
	}
}

func (c *ConsoleReporter) word(success bool) string {
	if success {
		return c.passWord.Sprint("pass")
	}
	return c.failWord.Sprint("fail")
}

func (c *ConsoleReporter) description(s string) string {
	if c.descriptionWidth <= 0 {
		return s
	}
	return runewidth.Truncate(s, c.descriptionWidth, "...")
}
