// Package normalize implements the space compaction applied to default
// values of non-CDATA attributes (XML 1.0 section 3.3.3, second step).
package normalize

// Spaces compacts buf in place: leading spaces are dropped, every run of
// embedded spaces becomes a single space, and a trailing run is removed.
// Only the space character (#x20) is considered; earlier normalization
// has already mapped tab, CR and LF to spaces.
//
// It returns the new length of the value, which always lies within buf,
// and whether any byte was removed.
func Spaces(buf []byte) (int, bool) {
	skip := true
	n := 0
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if c == ' ' {
			if !skip {
				buf[n] = ' '
				n++
				skip = true
			}
			continue
		}
		if n != i {
			buf[n] = c
		}
		n++
		skip = false
	}
	if n > 0 && buf[n-1] == ' ' {
		n--
	}
	return n, n != len(buf)
}

// String is the string form of Spaces.
func String(s string) (string, bool) {
	buf := []byte(s)
	n, changed := Spaces(buf)
	if !changed {
		return s, false
	}
	return string(buf[:n]), true
}
