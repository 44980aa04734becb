package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRepairAllHandlesEveryPath(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.dtd", "b.dtd"} {
		path := filepath.Join(dir, name)
		src := "<!ELEMENT doc EMPTY>\n<!ATTLIST doc id ID \"x\">\n"
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	if code := repairAll(paths, ""); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	for _, path := range paths {
		if _, err := os.Stat(path + ".fixed.dtd"); err != nil {
			t.Errorf("%s was not repaired: %v", filepath.Base(path), err)
		}
	}
}

func TestRepairAllRejectsOutputWithSeveralPaths(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.dtd")
	if code := repairAll([]string{"a.dtd", "b.dtd"}, out); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("nothing should be written on a usage error")
	}
}
