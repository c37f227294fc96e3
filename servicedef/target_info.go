// Package servicedef contains the JSON shapes exchanged between the contract tests and the
// target test server.
package servicedef

// Capability names advertised by a target server. Tests that need one of these are registered
// as skipped if the server does not list it.
const (
	CapabilityCookies   = "cookies"
	CapabilityRedirects = "redirects"
	CapabilityDelay     = "delay"
	CapabilityForms     = "forms"
	CapabilityChunked   = "chunked"
)

// AllCapabilities is every capability the test catalog knows how to use.
var AllCapabilities = []string{
	CapabilityCookies,
	CapabilityRedirects,
	CapabilityDelay,
	CapabilityForms,
	CapabilityChunked,
}

// TargetInfo is the status document a target server returns from its root resource.
type TargetInfo struct {
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// HasCapability reports whether the server advertised the given capability.
func (i TargetInfo) HasCapability(desired string) bool {
	for _, c := range i.Capabilities {
		if c == desired {
			return true
		}
	}
	return false
}

// MissingCapabilities returns the known capabilities the server did not advertise.
func (i TargetInfo) MissingCapabilities() []string {
	var ret []string
	for _, c := range AllCapabilities {
		if !i.HasCapability(c) {
			ret = append(ret, c)
		}
	}
	return ret
}
