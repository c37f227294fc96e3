package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/xhrtests"

	"github.com/spf13/cobra"
)

const (
	version            = "1.0.0"
	statusQueryTimeout = time.Second * 10
)

var exitFunc = os.Exit

func main() {
	exitFunc(execute(os.Args, os.Stdout, os.Stderr))
}

// execute parses the command line and runs the tests, returning the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	var params commandParams
	params.commandLine.add(args...)

	code := 0
	cmd := newRootCommand(&params, func(cmd *cobra.Command) error {
		code = runTests(&params, stdout, stderr)
		return nil
	})
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", cmd.Name(), err)
		return 1
	}
	return code
}

func runTests(params *commandParams, stdout, stderr io.Writer) int {
	config := params.config()

	logger := framework.NullLogger()
	statusOutput := io.Discard
	var reporter framework.Reporter = framework.NullReporter()
	if config.Verbose {
		fmt.Fprintf(stdout, "Running: %s\n", params.commandLine)
		logger = framework.ConsoleLogger(stderr, "")
		statusOutput = stdout
		reporter = framework.NewConsoleReporter(stderr)
	}

	info, err := framework.QueryTargetServer(config.ServerURL, statusQueryTimeout, statusOutput)
	if err != nil {
		fmt.Fprintf(stderr, "Target server error: %s\n", err)
	} else if missing := info.MissingCapabilities(); len(missing) > 0 && config.Verbose {
		fmt.Fprintf(stdout, "Tests needing these capabilities will be skipped: %v\n", missing)
	}

	run := framework.NewRun(config, framework.WithLogger(logger), framework.WithReporter(reporter))
	if config.Verbose {
		fmt.Fprintf(stdout, "Starting run %s\n", run.ID())
	}
	run.Execute(context.Background(), xhrtests.NewCatalog(info))
	run.Finish()

	if !run.Outcomes().OK() {
		return 1
	}
	return 0
}
