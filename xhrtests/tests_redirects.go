package xhrtests

import (
	"fmt"
	"net/url"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
)

func doRedirectTests(s *suiteBuilder) {
	for _, status := range []int{301, 302, 303, 307, 308} {
		s.test(fmt.Sprintf("GET follows %d", status), func(t *framework.T, serverURL string) {
			r := sendSync(t, "GET", fmt.Sprintf("%s/redirect/%d", serverURL, status), nil)
			e := echo(t, r)
			assert.Equal(t, "GET", e.Method)
			assert.Equal(t, serverURL+"/echo", r.ResponseURL())
		}, servicedef.CapabilityRedirects)
	}

	for _, status := range []int{301, 302, 303} {
		s.test(fmt.Sprintf("POST becomes GET after %d", status), func(t *framework.T, serverURL string) {
			e := echo(t, sendSync(t, "POST", fmt.Sprintf("%s/redirect/%d", serverURL, status), "payload"))
			assert.Equal(t, "GET", e.Method)
			assert.Empty(t, e.Body)
		}, servicedef.CapabilityRedirects)
	}

	for _, status := range []int{307, 308} {
		s.test(fmt.Sprintf("POST keeps method and body after %d", status), func(t *framework.T, serverURL string) {
			e := echo(t, sendSync(t, "POST", fmt.Sprintf("%s/redirect/%d", serverURL, status), "payload"))
			assert.Equal(t, "POST", e.Method)
			assert.Equal(t, "payload", e.Body)
		}, servicedef.CapabilityRedirects)
	}

	s.test("redirect chain ends at the last response", func(t *framework.T, serverURL string) {
		last := "/text?body=" + url.QueryEscape("end of chain")
		middle := "/redirect/302?to=" + url.QueryEscape(last)
		r := sendSync(t, "GET", serverURL+"/redirect/301?to="+url.QueryEscape(middle), nil)
		assert.Equal(t, 200, r.Status())
		assert.Equal(t, "end of chain", r.ResponseText())
		assert.Equal(t, serverURL+last, r.ResponseURL())
	}, servicedef.CapabilityRedirects)

	s.test("custom header survives a same-origin redirect", func(t *framework.T, serverURL string) {
		r := newOpened(t, "GET", serverURL+"/redirect/302")
		setHeader(t, r, "X-Carried", "yes")
		send(t, r, nil)
		assert.Equal(t, "yes", echo(t, r).Headers["x-carried"])
	}, servicedef.CapabilityRedirects)
}
