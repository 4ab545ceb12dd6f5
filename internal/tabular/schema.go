// Package tabular parses header-keyed, comma-delimited text into rows that are
// accessed by column name.
package tabular

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Schema maps header column names to their field positions. It is built once
// per table so row access is by name rather than index.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema builds a schema from a header row. Names are trimmed; when a name
// repeats, the first occurrence wins.
func NewSchema(header []string) *Schema {
	s := &Schema{
		columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		s.columns[i] = name
		if _, dup := s.index[name]; !dup {
			s.index[name] = i
		}
	}
	return s
}

// Index returns the field position of a column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether the header contains name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Columns returns the header names in file order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Require returns an error listing every name missing from the header.
func (s *Schema) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !s.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("tabular: missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}
