package ledger

import "strings"

// HeaderMap maps person names to their ledger columns, in sheet order.
type HeaderMap struct {
	names      []string
	cols       map[string]int
	duplicates map[string][]int
}

// NewHeaderMap builds a HeaderMap from the cells of the header row, where
// cells[0] is column A. Names are trimmed, blanks skipped and the first
// occurrence of a repeated name wins.
func NewHeaderMap(cells []string) HeaderMap {
	h := HeaderMap{cols: make(map[string]int)}
	for i := firstNameCol - 1; i < len(cells); i++ {
		name := strings.TrimSpace(cells[i])
		if name == "" {
			continue
		}
		col := i + 1
		if first, seen := h.cols[name]; seen {
			if h.duplicates == nil {
				h.duplicates = make(map[string][]int)
			}
			if len(h.duplicates[name]) == 0 {
				h.duplicates[name] = []int{first}
			}
			h.duplicates[name] = append(h.duplicates[name], col)
			continue
		}
		h.cols[name] = col
		h.names = append(h.names, name)
	}
	return h
}

// Names returns the names in sheet order.
func (h HeaderMap) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of distinct names.
func (h HeaderMap) Len() int { return len(h.names) }

// Column returns the 1-based column of name.
func (h HeaderMap) Column(name string) (int, bool) {
	col, ok := h.cols[name]
	return col, ok
}

// Lookup resolves user input to a header name: exact match first, then a
// unique case-insensitive match.
func (h HeaderMap) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if _, ok := h.cols[name]; ok {
		return name, true
	}
	found := ""
	for _, n := range h.names {
		if strings.EqualFold(n, name) {
			if found != "" {
				return "", false
			}
			found = n
		}
	}
	return found, found != ""
}
