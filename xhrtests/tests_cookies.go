package xhrtests

import (
	"net/http/cookiejar"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJar(t *framework.T) *cookiejar.Jar {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func cookiesSeen(t *framework.T, serverURL string, options ...xhr.Option) map[string]string {
	r := sendSync(t, "GET", serverURL+"/cookies", nil, options...)
	return decodeJSON[servicedef.CookiesResponse](t, r).Cookies
}

func doCookieTests(s *suiteBuilder) {
	s.test("cookies are sent back through a jar", func(t *framework.T, serverURL string) {
		jar := newJar(t)
		sendSync(t, "GET", serverURL+"/cookies/set?flavor=oatmeal", nil, xhr.WithCookieJar(jar))
		assert.Equal(t, map[string]string{"flavor": "oatmeal"}, cookiesSeen(t, serverURL, xhr.WithCookieJar(jar)))
	}, servicedef.CapabilityCookies)

	s.test("cookies are not shared without a jar", func(t *framework.T, serverURL string) {
		sendSync(t, "GET", serverURL+"/cookies/set?flavor=oatmeal", nil)
		assert.Empty(t, cookiesSeen(t, serverURL))
	}, servicedef.CapabilityCookies)

	s.test("separate jars are isolated", func(t *framework.T, serverURL string) {
		sendSync(t, "GET", serverURL+"/cookies/set?flavor=oatmeal", nil, xhr.WithCookieJar(newJar(t)))
		assert.Empty(t, cookiesSeen(t, serverURL, xhr.WithCookieJar(newJar(t))))
	}, servicedef.CapabilityCookies)

	s.test("cookies are sent on a redirected request", func(t *framework.T, serverURL string) {
		jar := newJar(t)
		sendSync(t, "GET", serverURL+"/cookies/set?size=large", nil, xhr.WithCookieJar(jar))
		r := sendSync(t, "GET", serverURL+"/redirect/302?to=/cookies", nil, xhr.WithCookieJar(jar))
		assert.Equal(t, map[string]string{"size": "large"}, decodeJSON[servicedef.CookiesResponse](t, r).Cookies)
	}, servicedef.CapabilityCookies, servicedef.CapabilityRedirects)

	s.test("Cookie request header cannot be set by hand", func(t *framework.T, serverURL string) {
		r := newOpened(t, "GET", serverURL+"/cookies")
		setHeader(t, r, "Cookie", "forged=1")
		send(t, r, nil)
		assert.Empty(t, decodeJSON[servicedef.CookiesResponse](t, r).Cookies)
	}, servicedef.CapabilityCookies)
}
