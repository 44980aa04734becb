package normalize

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"", "", false},
		{"a", "a", false},
		{"a b", "a b", false},
		{"  a   b  ", "a b", true},
		{"a ", "a", true},
		{" a", "a", true},
		{"    ", "", true},
		{"x  y z   w", "x y z w", true},
		{"café  crème", "café crème", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed := String(tt.in)
			if got != tt.want || changed != tt.changed {
				t.Errorf("String(%q) = %q, %v; want %q, %v", tt.in, got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestSpacesInPlace(t *testing.T) {
	buf := []byte(" one  two ")
	n, changed := Spaces(buf)
	if !changed {
		t.Fatal("expected a change")
	}
	if got := string(buf[:n]); got != "one two" {
		t.Errorf("got %q, want %q", got, "one two")
	}
}
