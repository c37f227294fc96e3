package xhrtests

import (
	"strings"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doBasicTests(s *suiteBuilder) {
	s.test("new request is UNSENT", func(t *framework.T, serverURL string) {
		assert.Equal(t, xhr.Unsent, xhr.New().ReadyState())
	})

	s.test("open moves to OPENED", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/text", true))
		assert.Equal(t, xhr.Opened, r.ReadyState())
		assert.Equal(t, 0, r.Status())
		assert.Empty(t, r.ResponseText())
	})

	s.test("synchronous GET", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/text?body=hello", nil)
		assert.Equal(t, xhr.Done, r.ReadyState())
		assert.Equal(t, 200, r.Status())
		assert.Equal(t, "OK", r.StatusText())
		assert.Equal(t, "hello", r.ResponseText())
	})

	s.test("asynchronous GET", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/text?body=async", true))
		require.NoError(t, r.Send(nil))
		require.NoError(t, awaitDone(t, r))
		assert.Equal(t, xhr.Done, r.ReadyState())
		assert.Equal(t, "async", r.ResponseText())
	})

	s.test("error status is not a request failure", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/status/404", nil)
		assert.NoError(t, r.Err())
		assert.Equal(t, 404, r.Status())
		assert.Equal(t, "Not Found", r.StatusText())
		assert.Equal(t, "status 404", r.ResponseText())
	})

	s.test("response URL", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/text?body=x", nil)
		assert.Equal(t, serverURL+"/text?body=x", r.ResponseURL())
	})

	s.test("standard method names are normalized", func(t *framework.T, serverURL string) {
		for _, method := range []string{"get", "post", "Put", "delete", "options"} {
			r := sendSync(t, method, serverURL+"/echo", nil)
			e := echo(t, r)
			assert.Equal(t, strings.ToUpper(method), e.Method)
		}
	})

	s.test("other method names are sent unchanged", func(t *framework.T, serverURL string) {
		r := sendSync(t, "Report", serverURL+"/echo", nil)
		assert.Equal(t, "Report", echo(t, r).Method)
	})

	s.test("forbidden methods are rejected", func(t *framework.T, serverURL string) {
		for _, method := range []string{"CONNECT", "trace", "TRACK"} {
			assert.ErrorIs(t, xhr.New().Open(method, serverURL, false), xhr.ErrSecurity, method)
		}
	})

	s.test("invalid method is rejected", func(t *framework.T, serverURL string) {
		assert.ErrorIs(t, xhr.New().Open("GET POST", serverURL, false), xhr.ErrSyntax)
		assert.ErrorIs(t, xhr.New().Open("", serverURL, false), xhr.ErrSyntax)
	})

	s.test("relative URL is rejected", func(t *framework.T, serverURL string) {
		assert.ErrorIs(t, xhr.New().Open("GET", "/text", false), xhr.ErrSyntax)
	})

	s.test("send before open is invalid", func(t *framework.T, serverURL string) {
		assert.ErrorIs(t, xhr.New().Send(nil), xhr.ErrInvalidState)
	})

	s.test("send twice is invalid", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/text", nil)
		assert.ErrorIs(t, r.Send(nil), xhr.ErrInvalidState)
	})

	s.test("request can be reopened after completion", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/text?body=first", nil)
		require.NoError(t, r.Open("GET", serverURL+"/text?body=second", false))
		assert.Equal(t, 0, r.Status())
		require.NoError(t, r.Send(nil))
		assert.Equal(t, "second", r.ResponseText())
	})
}
