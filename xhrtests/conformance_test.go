package xhrtests

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/framework/gotest"
	"github.com/launchdarkly/xhr-contract-tests/testserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTarget(t *testing.T) (*httptest.Server, *framework.Catalog) {
	server := httptest.NewServer(testserver.NewHandler(nil))
	t.Cleanup(server.Close)

	info, err := framework.QueryTargetServer(server.URL, time.Second*5, io.Discard)
	require.NoError(t, err)
	assert.Empty(t, info.MissingCapabilities())
	return server, NewCatalog(info)
}

func TestCatalogPassesWithInternalRunner(t *testing.T) {
	server, catalog := startTarget(t)

	var out bytes.Buffer
	logger := &framework.CapturingLogger{}
	run := framework.NewRun(framework.Config{ServerURL: server.URL, Verbose: true},
		framework.WithLogger(logger),
		framework.WithReporter(framework.NewConsoleReporter(&out, framework.WithColor(false))))
	selection := run.Execute(context.Background(), catalog)
	run.Finish()

	assert.Equal(t, framework.InternalBackend, selection.Kind)
	o := run.Outcomes()
	for _, f := range o.Failures {
		t.Errorf("%s", f.Error())
	}
	if t.Failed() {
		var debug bytes.Buffer
		logger.Output().Dump(&debug, "")
		t.Log(debug.String())
	}
	assert.Equal(t, 0, o.Fail)
	assert.Equal(t, catalog.TestCount(), o.Pass)
	assert.Equal(t, 0, o.Skip)
	assert.Contains(t, out.String(), "# fail 0")
}

func TestCatalogPassesWithGoTestFacility(t *testing.T) {
	server, catalog := startTarget(t)
	gotest.Register(t)

	run := framework.NewRun(framework.Config{ServerURL: server.URL, PreferAdvancedBackend: true})
	selection := run.Execute(context.Background(), catalog)

	assert.Equal(t, framework.ProbedBackend, selection.Kind)
}
