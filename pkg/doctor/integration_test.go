package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fixturesDir returns testdata/fixtures in the repo root.
func fixturesDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "testdata", "fixtures")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

// TestDoctorIntegrationFixtures repairs every fixture DTD and verifies
// that the output validates cleanly.
func TestDoctorIntegrationFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(fixturesDir(t), "*.dtd"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, input := range paths {
		name := filepath.Base(input)
		t.Run(strings.TrimSuffix(name, ".dtd"), func(t *testing.T) {
			output := filepath.Join(t.TempDir(), name)
			result, err := Repair(input, output)
			if err != nil {
				t.Fatal(err)
			}
			requireClean(t, result.AfterReport)
			if result.BeforeReport.IsValid() && result.BeforeReport.WarningCount() == 0 {
				return
			}
			if len(result.Fixes) == 0 {
				t.Error("findings were reported but no fixes applied")
			}
		})
	}
}

// TestDoctorIntegrationMultipleProblems repairs a DTD with many
// simultaneous problems in one pass.
func TestDoctorIntegrationMultipleProblems(t *testing.T) {
	src := `<!ENTITY % flags "hidden (yes|no) 'maybe'">
<!ELEMENT doc (sec+)>
<!ELEMENT doc ANY>
<!ATTLIST sec
    id    ID        #REQUIRED
    alt   ID        #IMPLIED
    kind  KIND      #IMPLIED
    %flags;>
<!ATTLIST doc >
<!ELEMENT pic EMPTY>
<!ATTLIST pic src NOTATION (svg) #IMPLIED>
`
	result, out := repair(t, src)
	requireClean(t, result.AfterReport)

	for _, id := range []string{"DTD-004", "VC-001", "DTD-001", "VC-006", "VC-007", "VC-005"} {
		if !hasFix(result, id) {
			t.Errorf("missing %s fix", id)
		}
	}
	if strings.Contains(out, "NOTATION (svg)") {
		t.Errorf("NOTATION attribute on EMPTY element survived:\n%s", out)
	}
}

// TestDoctorIntegrationNotationFixture repairs each notation problem of the
// shared fixture and declares only the notation that was missing.
func TestDoctorIntegrationNotationFixture(t *testing.T) {
	input := filepath.Join(fixturesDir(t), "notation-errors.dtd")
	output := filepath.Join(t.TempDir(), "notation-errors.dtd")
	result, err := Repair(input, output)
	if err != nil {
		t.Fatal(err)
	}
	requireClean(t, result.AfterReport)
	for _, id := range []string{"VC-003", "VC-004", "VC-005"} {
		if !hasFix(result, id) {
			t.Errorf("missing %s fix; got %v", id, result.Fixes)
		}
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<!NOTATION tiff SYSTEM "tiff">`) {
		t.Errorf("tiff notation not declared:\n%s", data)
	}
}
