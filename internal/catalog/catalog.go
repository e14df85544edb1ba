package catalog

import (
	"sort"

	"github.com/havocd/havoc/internal/core/domain"
)

// Operation is the catalog entry for one callable operation. The core
// consumes only the name and the declared error classes; path and method
// exist for the pass-through transport and payload shaping.
type Operation struct {
	Name         string
	Path         string
	Method       string
	Summary      string
	ErrorClasses map[domain.ErrorClass]string // class -> human description
}

// Classes returns the operation's error classes in stable sorted order.
func (o Operation) Classes() []domain.ErrorClass {
	out := make([]domain.ErrorClass, 0, len(o.ErrorClasses))
	for c := range o.ErrorClasses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Catalog is an immutable mapping from operation name to metadata,
// built once from an external API description.
type Catalog struct {
	baseURL string
	ops     map[string]Operation
}

// BaseURL returns the upstream base URL declared by the API description.
func (c *Catalog) BaseURL() string { return c.baseURL }

// Lookup returns the operation metadata for name.
func (c *Catalog) Lookup(name string) (Operation, bool) {
	op, ok := c.ops[name]
	return op, ok
}

// Operations lists all operation names in stable sorted order.
func (c *Catalog) Operations() []string {
	names := make([]string, 0, len(c.ops))
	for n := range c.ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of catalogued operations.
func (c *Catalog) Len() int { return len(c.ops) }
