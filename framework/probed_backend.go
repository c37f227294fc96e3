package framework

import "time"

// probeHooks is the per-test state shared by the before and after hooks. Tests run one at a
// time, so a single instance is enough.
type probeHooks struct {
	run     *Run
	number  int
	start   time.Time
	success bool
}

func (h *probeHooks) before(TestInfo) {
	h.run.outcomes.TestCount++
	h.number = h.run.outcomes.TestCount
	h.start = h.run.now()
	h.success = true
}

func (h *probeHooks) after(info TestInfo) {
	h.run.reporter.TestCompleted(h.number, h.success, h.run.now().Sub(h.start), info.Name)
}

func (r *Run) runProbed(facility Facility, catalog *Catalog) {
	hooks := &probeHooks{run: r}
	if r.config.Verbose {
		facility.BeforeEach(hooks.before)
		facility.AfterEach(hooks.after)
	}

	for suiteName, tests := range catalog.All() {
		facility.Suite(suiteName, func() {
			for _, d := range tests {
				facility.Test(d.Description, TestOptions{Skip: d.Skip}, func() {
					defer func() {
						if p := recover(); p != nil {
							hooks.success = false
							panic(p)
						}
					}()
					d.Execute(r.config.ServerURL)
				})
			}
		})
	}
}
