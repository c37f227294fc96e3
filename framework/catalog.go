package framework

import (
	"iter"

	"github.com/iancoleman/orderedmap"
)

// TestDescriptor is one registered unit of work.
//
// Execute receives the base URL of the target server, with no trailing slash. It signals failure
// only by panicking; its return is not awaited beyond the synchronous call, so anything it leaves
// running in other goroutines may overlap the next test.
type TestDescriptor struct {
	Description string
	Execute     func(serverURL string)
	Skip        bool
}

// Suite is a named, ordered group of descriptors.
type Suite struct {
	Name  string
	Tests []TestDescriptor
}

// Catalog is an ordered collection of suites. It is built once at startup by Register calls and
// is only read after that.
type Catalog struct {
	suites *orderedmap.OrderedMap
}

func NewCatalog() *Catalog {
	return &Catalog{suites: orderedmap.New()}
}

// Register appends a descriptor to the named suite, creating the suite at the end of the catalog
// if it does not exist yet. Registering under an existing name appends to that suite.
func (c *Catalog) Register(suiteName string, descriptor TestDescriptor) {
	if value, ok := c.suites.Get(suiteName); ok {
		s := value.(*Suite)
		s.Tests = append(s.Tests, descriptor)
		return
	}
	c.suites.Set(suiteName, &Suite{Name: suiteName, Tests: []TestDescriptor{descriptor}})
}

// All yields each suite name with its descriptors, in registration order. The sequence can be
// iterated any number of times and never changes the catalog.
func (c *Catalog) All() iter.Seq2[string, []TestDescriptor] {
	return func(yield func(string, []TestDescriptor) bool) {
		for _, name := range c.suites.Keys() {
			value, _ := c.suites.Get(name)
			tests := append([]TestDescriptor(nil), value.(*Suite).Tests...)
			if !yield(name, tests) {
				return
			}
		}
	}
}

// Suites returns a snapshot of the suites in registration order.
func (c *Catalog) Suites() []Suite {
	ret := make([]Suite, 0, c.Len())
	for name, tests := range c.All() {
		ret = append(ret, Suite{Name: name, Tests: tests})
	}
	return ret
}

// Len returns the number of suites.
func (c *Catalog) Len() int {
	return len(c.suites.Keys())
}

// TestCount returns the number of registered descriptors, skipped ones included.
func (c *Catalog) TestCount() int {
	n := 0
	for _, tests := range c.All() {
		n += len(tests)
	}
	return n
}
