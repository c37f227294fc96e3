package xhrtests

import (
	"strings"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequestHeaderTests(s *suiteBuilder) {
	s.test("custom header is sent", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/echo", false))
		require.NoError(t, r.SetRequestHeader("X-Test-Header", "some value"))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, "some value", echo(t, r).Headers["x-test-header"])
	})

	s.test("repeated header values are combined", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/echo", false))
		require.NoError(t, r.SetRequestHeader("X-Repeated", "one"))
		require.NoError(t, r.SetRequestHeader("x-repeated", "two"))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, "one, two", echo(t, r).Headers["x-repeated"])
	})

	s.test("header value whitespace is trimmed", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/echo", false))
		require.NoError(t, r.SetRequestHeader("X-Padded", " \tvalue\t "))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, "value", echo(t, r).Headers["x-padded"])
	})

	s.test("forbidden headers are ignored", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/echo", false))
		for _, name := range []string{"Referer", "Via", "Proxy-Authorization", "Sec-Custom", "DNT"} {
			require.NoError(t, r.SetRequestHeader(name, "should not be sent"), name)
		}
		require.NoError(t, r.Send(nil))
		headers := echo(t, r).Headers
		for _, name := range []string{"referer", "via", "proxy-authorization", "sec-custom", "dnt"} {
			assert.NotContains(t, headers, name)
		}
	})

	s.test("invalid header name is rejected", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/echo", false))
		assert.ErrorIs(t, r.SetRequestHeader("Bad Name", "x"), xhr.ErrSyntax)
		assert.ErrorIs(t, r.SetRequestHeader("X-Injected", "a\r\nX-Other: b"), xhr.ErrSyntax)
	})

	s.test("header before open is invalid", func(t *framework.T, serverURL string) {
		assert.ErrorIs(t, xhr.New().SetRequestHeader("X-A", "b"), xhr.ErrInvalidState)
	})

	s.test("header after send is invalid", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/text", nil)
		assert.ErrorIs(t, r.SetRequestHeader("X-A", "b"), xhr.ErrInvalidState)
	})
}

func doResponseHeaderTests(s *suiteBuilder) {
	s.test("header lookup is case-insensitive", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/headers?X-Answer=42", nil)
		assert.Equal(t, "42", r.GetResponseHeader("x-answer"))
		assert.Equal(t, "42", r.GetResponseHeader("X-ANSWER"))
	})

	s.test("repeated response headers are combined", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/headers?X-Multi=a&X-Multi=b", nil)
		assert.Equal(t, "a, b", r.GetResponseHeader("X-Multi"))
	})

	s.test("missing header is empty", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/headers", nil)
		assert.Empty(t, r.GetResponseHeader("X-Not-There"))
	})

	s.test("all headers are lower-cased lines", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/headers?X-First=1&X-Second=2", nil)
		all := r.GetAllResponseHeaders()
		assert.Contains(t, all, "x-first: 1\r\n")
		assert.Contains(t, all, "x-second: 2\r\n")
		assert.True(t, strings.HasSuffix(all, "\r\n"))
		assert.Less(t, strings.Index(all, "x-first"), strings.Index(all, "x-second"))
	})

	s.test("headers are empty before a response", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/headers?X-A=1", false))
		assert.Empty(t, r.GetAllResponseHeaders())
		assert.Empty(t, r.GetResponseHeader("X-A"))
	})

	s.test("Set-Cookie is never exposed", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/cookies/set?flavor=oatmeal", nil)
		assert.Empty(t, r.GetResponseHeader("Set-Cookie"))
		assert.NotContains(t, strings.ToLower(r.GetAllResponseHeaders()), "set-cookie")
	}, servicedef.CapabilityCookies)
}
