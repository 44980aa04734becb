package realworld

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/validate"
)

// knownInvalid lists samples that are genuinely invalid. They are kept in
// the corpus to verify we detect real errors, not just to check for false
// positives.
var knownInvalid = map[string]bool{}

// TestRealWorldSamples builds grammars for downloaded DTDs (XHTML, DocBook,
// TEI and similar) and checks for false positives. Samples not in
// knownInvalid are expected to have no errors; warnings for external
// parameter entities that are not loaded are expected.
//
// Set REALWORLD_SAMPLES_DIR to point at a directory of DTDs, or place them
// in test/realworld/samples.
func TestRealWorldSamples(t *testing.T) {
	dir := os.Getenv("REALWORLD_SAMPLES_DIR")
	if dir == "" {
		dir = filepath.Join(findRepoRoot(t), "test", "realworld", "samples")
	}

	entries, err := filepath.Glob(filepath.Join(dir, "*.dtd"))
	if err != nil {
		t.Fatalf("globbing samples: %v", err)
	}
	if len(entries) == 0 {
		t.Skipf("no sample DTDs found in %s", dir)
	}

	for _, dtd := range entries {
		name := filepath.Base(dtd)
		t.Run(name, func(t *testing.T) {
			rpt, err := validate.Validate(dtd)
			if err != nil {
				t.Fatalf("validation failed: %v", err)
			}

			if knownInvalid[name] {
				// Known-invalid: verify we detect errors
				if rpt.IsValid() {
					t.Errorf("expected invalid (known-invalid sample), but got valid")
				}
				return
			}

			// All other samples should be valid
			if !rpt.IsValid() {
				t.Errorf("expected valid, got invalid (errors=%d, warnings=%d)",
					rpt.ErrorCount(), rpt.WarningCount())
				for _, m := range rpt.Messages {
					if m.Severity == "ERROR" || m.Severity == "FATAL" {
						t.Logf("  %s(%s): %s [%s]", m.Severity, m.CheckID, m.Message, m.Location)
					}
				}
			}
		})
	}
}

// TestRealWorldRoundTrip writes each sample's grammar back out and checks
// that the text builds the same tables.
func TestRealWorldRoundTrip(t *testing.T) {
	dir := os.Getenv("REALWORLD_SAMPLES_DIR")
	if dir == "" {
		dir = filepath.Join(findRepoRoot(t), "test", "realworld", "samples")
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "*.dtd"))
	if len(entries) == 0 {
		t.Skipf("no sample DTDs found in %s", dir)
	}

	for _, path := range entries {
		t.Run(filepath.Base(path), func(t *testing.T) {
			g, _, err := validate.Load(path, validate.Options{})
			if err != nil {
				t.Fatal(err)
			}
			out := filepath.Join(t.TempDir(), "out.dtd")
			f, err := os.Create(out)
			if err != nil {
				t.Fatal(err)
			}
			if err := g.WriteDTD(f); err != nil {
				t.Fatal(err)
			}
			f.Close()

			again, _, err := validate.Load(out, validate.Options{})
			if err != nil {
				t.Fatal(err)
			}
			compareTables(t, g, again)
		})
	}
}

func compareTables(t *testing.T, want, got *grammar.Grammar) {
	t.Helper()
	if want.ElementCount() != got.ElementCount() || want.AttributeCount() != got.AttributeCount() {
		t.Fatalf("tables differ: %d/%d elements, %d/%d attributes",
			got.ElementCount(), want.ElementCount(), got.AttributeCount(), want.AttributeCount())
	}
	for i, e := range want.Elements() {
		j := got.ElementIndex(e.Name.Raw)
		if j == -1 || got.ContentSpecType(j) != e.Type {
			t.Errorf("element %s [%d] lost or changed", e.Name, i)
			continue
		}
		for _, a := range want.Attributes(i) {
			b, ok := got.AttributeDecl(got.AttributeIndex(j, a.Name.Raw))
			if !ok || b.Type != a.Type || b.DefaultValue != a.DefaultValue {
				t.Errorf("attribute %s of %s lost or changed", a.Name, e.Name)
			}
		}
	}
}

// findRepoRoot walks up from the test file location to find the repo root.
func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}
