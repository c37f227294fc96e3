package xhrtests

import (
	"bytes"
	"net/url"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequestBodyTests(s *suiteBuilder) {
	s.test("string body is sent as UTF-8 text", func(t *framework.T, serverURL string) {
		e := echo(t, sendSync(t, "POST", serverURL+"/echo", "héllo"))
		assert.Equal(t, "héllo", e.Body)
		assert.Equal(t, "text/plain;charset=UTF-8", e.Headers["content-type"])
	})

	s.test("byte body has no default content type", func(t *framework.T, serverURL string) {
		e := echo(t, sendSync(t, "PUT", serverURL+"/echo", []byte("raw bytes")))
		assert.Equal(t, "raw bytes", e.Body)
		assert.NotContains(t, e.Headers, "content-type")
	})

	s.test("reader body is read fully", func(t *framework.T, serverURL string) {
		e := echo(t, sendSync(t, "POST", serverURL+"/echo", bytes.NewBufferString("from a reader")))
		assert.Equal(t, "from a reader", e.Body)
	})

	s.test("explicit content type is kept", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("POST", serverURL+"/echo", false))
		require.NoError(t, r.SetRequestHeader("Content-Type", "application/json"))
		require.NoError(t, r.Send(`{"a":1}`))
		e := echo(t, r)
		assert.Equal(t, "application/json", e.Headers["content-type"])
		assert.Equal(t, `{"a":1}`, e.Body)
	})

	s.test("GET and HEAD never send a body", func(t *framework.T, serverURL string) {
		e := echo(t, sendSync(t, "GET", serverURL+"/echo", "ignored"))
		assert.Empty(t, e.Body)
		assert.NotContains(t, e.Headers, "content-type")

		r := sendSync(t, "HEAD", serverURL+"/echo", "ignored")
		assert.Equal(t, 200, r.Status())
		assert.Empty(t, r.ResponseText())
	})

	s.test("unsupported body type is rejected", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("POST", serverURL+"/echo", false))
		assert.ErrorIs(t, r.Send(3.14), xhr.ErrSyntax)
	})

	s.test("URL-encoded form body", func(t *framework.T, serverURL string) {
		values := url.Values{"name": {"a b"}, "list": {"1", "2"}}
		form := decodeJSON[servicedef.FormResponse](t, sendSync(t, "POST", serverURL+"/form", values))
		assert.Equal(t, "application/x-www-form-urlencoded", form.ContentType)
		assert.Equal(t, map[string][]string{"name": {"a b"}, "list": {"1", "2"}}, form.Fields)
	}, servicedef.CapabilityForms)

	s.test("query string is preserved", func(t *framework.T, serverURL string) {
		e := echo(t, sendSync(t, "GET", serverURL+"/echo?x=1&y=two", nil))
		assert.Equal(t, map[string]string{"x": "1", "y": "two"}, e.Query)
	})
}
