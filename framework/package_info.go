// Package framework contains the test orchestration engine for the XHR contract tests.
//
// The general model is:
//
// 1. A Catalog holds named suites of TestDescriptors, in the order they were registered. Each
// descriptor wraps an opaque test body that receives the base URL of the target test server and
// signals failure by panicking.
//
// 2. A Run executes a Catalog. It either hands the whole Catalog to an advanced test Facility, if
// one can be acquired at startup, or drives the descriptors itself with a minimal sequential
// runner. Acquiring the Facility is optional: if it fails, the run quietly uses the internal
// runner instead.
//
// 3. A Reporter observes test boundaries and formats trace lines and a final summary. Outcome
// counters belong to the Run, so any number of runs can exist in one process.
//
// The domain-specific code that knows what is being tested (the test bodies, the library under
// test, the target server) lives in other packages.
package framework
