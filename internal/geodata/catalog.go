package geodata

import (
	_ "embed"
	"strings"
)

//go:embed countries.txt
var isoCountryNames string

// Catalog is the canonical ISO-3166 country name list.
type Catalog struct {
	names []string
	index map[string]struct{}
}

// NewCatalog returns the embedded ISO-3166 catalog.
func NewCatalog() *Catalog {
	return NewCatalogFromNames(strings.Split(isoCountryNames, "\n"))
}

// NewCatalogFromNames builds a catalog from an explicit list (for tests).
// Blank entries are skipped.
func NewCatalogFromNames(names []string) *Catalog {
	c := &Catalog{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := c.index[n]; dup {
			continue
		}
		c.index[n] = struct{}{}
		c.names = append(c.names, n)
	}
	return c
}

// IsCountryValid reports an exact, case-sensitive match against the catalog.
func (c *Catalog) IsCountryValid(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns a copy of the catalog in file order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
