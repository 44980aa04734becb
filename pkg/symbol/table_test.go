package symbol

import (
	"strings"
	"testing"
	"unsafe"
)

func TestAddReturnsCanonicalCopy(t *testing.T) {
	tab := NewTable()
	first := tab.Add(strings.Clone("element"))
	second := tab.Add(strings.Clone("element"))

	if first != second {
		t.Fatalf("got %q and %q", first, second)
	}
	if unsafe.StringData(first) != unsafe.StringData(second) {
		t.Error("Add did not return the interned copy")
	}
	if tab.Len() != 1 {
		t.Errorf("Len = %d, want 1", tab.Len())
	}
	tab.Add("other")
	if tab.Len() != 2 {
		t.Errorf("Len = %d, want 2", tab.Len())
	}
}
