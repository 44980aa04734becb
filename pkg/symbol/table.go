// Package symbol interns the names that appear in declarations so that a
// grammar built from a large DTD holds a single copy of each name.
package symbol

// Table maps a string to its canonical copy. The zero value is not
// usable; call NewTable.
type Table struct {
	syms map[string]string
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{syms: make(map[string]string)}
}

// Add returns the canonical copy of s, storing s if it was not seen before.
func (t *Table) Add(s string) string {
	if sym, ok := t.syms[s]; ok {
		return sym
	}
	t.syms[s] = s
	return s
}

// Len returns the number of distinct symbols.
func (t *Table) Len() int {
	return len(t.syms)
}
