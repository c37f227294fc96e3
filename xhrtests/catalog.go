// Package xhrtests contains the contract tests for the xhr package: the test bodies, grouped in
// suites, and the function that registers them in a framework.Catalog.
package xhrtests

import (
	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
)

// NewCatalog builds the full test catalog. A test that needs a capability the target server did
// not advertise is still registered, but marked as skipped.
func NewCatalog(info servicedef.TargetInfo) *framework.Catalog {
	c := framework.NewCatalog()
	s := &suiteBuilder{catalog: c, info: info}

	s.suite("XMLHttpRequest basics", doBasicTests)
	s.suite("request headers", doRequestHeaderTests)
	s.suite("response headers", doResponseHeaderTests)
	s.suite("events", doEventTests)
	s.suite("request bodies", doRequestBodyTests)
	s.suite("redirects", doRedirectTests)
	s.suite("cookies", doCookieTests)
	s.suite("timeouts", doTimeoutTests)
	s.suite("abort", doAbortTests)
	s.suite("FormData", doFormDataTests)
	s.suite("streaming", doStreamingTests)

	return c
}

// body is a test body written against testify through a framework.T.
type body func(t *framework.T, serverURL string)

type suiteBuilder struct {
	catalog *framework.Catalog
	info    servicedef.TargetInfo
	name    string
}

func (s *suiteBuilder) suite(name string, fn func(*suiteBuilder)) {
	s.name = name
	fn(s)
}

// test registers a body in the current suite. It is skipped if any of the required capabilities
// is missing.
func (s *suiteBuilder) test(description string, fn body, requires ...string) {
	skip := false
	for _, c := range requires {
		if !s.info.HasCapability(c) {
			skip = true
		}
	}
	s.catalog.Register(s.name, framework.TestDescriptor{
		Description: description,
		Execute: func(serverURL string) {
			t := framework.NewT()
			defer t.Finish()
			fn(t, serverURL)
		},
		Skip: skip,
	})
}
