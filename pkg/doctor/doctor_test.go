package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adammathes/dtdgrammar/pkg/report"
)

// writeTestDTD stores src in a temp file and returns its path.
func writeTestDTD(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dtd")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func repair(t *testing.T, src string) (*Result, string) {
	t.Helper()
	input := writeTestDTD(t, src)
	output := filepath.Join(filepath.Dir(input), "out.dtd")
	result, err := Repair(input, output)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	return result, string(data)
}

func hasFix(result *Result, checkID string) bool {
	for _, f := range result.Fixes {
		if f.CheckID == checkID {
			return true
		}
	}
	return false
}

func requireClean(t *testing.T, r *report.Report) {
	t.Helper()
	if r.IsValid() && r.WarningCount() == 0 {
		return
	}
	t.Error("repaired DTD still has findings")
	for _, m := range r.Messages {
		t.Logf("  %s", m)
	}
}

func TestDoctorNoFixesOnValidDTD(t *testing.T) {
	input := writeTestDTD(t, `<!ELEMENT doc (p*)><!ELEMENT p (#PCDATA)><!ATTLIST p id ID #IMPLIED>`)
	result, err := Repair(input, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Fixes) != 0 {
		t.Errorf("expected no fixes, got %v", result.Fixes)
	}
	if _, err := os.Stat(input + ".fixed.dtd"); !os.IsNotExist(err) {
		t.Error("no output should be written for a valid DTD")
	}
}

func TestDoctorFixes(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		checkID string
		want    string // expected in the repaired DTD
	}{
		{
			name:    "unknown type",
			src:     `<!ELEMENT a EMPTY><!ATTLIST a ref REFERENCE #IMPLIED>`,
			checkID: "DTD-001",
			want:    "<!ATTLIST a ref CDATA #IMPLIED>",
		},
		{
			name:    "extra ID",
			src:     `<!ELEMENT a EMPTY><!ATTLIST a id ID #REQUIRED key ID #IMPLIED>`,
			checkID: "VC-001",
			want:    "<!ATTLIST a key CDATA #IMPLIED>",
		},
		{
			name:    "ID default",
			src:     `<!ELEMENT a EMPTY><!ATTLIST a id ID "x">`,
			checkID: "VC-002",
			want:    "<!ATTLIST a id ID #IMPLIED>",
		},
		{
			name:    "undeclared notation",
			src:     `<!ELEMENT a (#PCDATA)><!ATTLIST a fmt NOTATION (tex) #IMPLIED>`,
			checkID: "VC-003",
			want:    `<!NOTATION tex SYSTEM "tex">`,
		},
		{
			name:    "second NOTATION attribute",
			src:     `<!NOTATION n SYSTEM "n"><!ELEMENT a (#PCDATA)><!ATTLIST a f NOTATION (n) #IMPLIED g NOTATION (n) #IMPLIED>`,
			checkID: "VC-004",
			want:    "<!ATTLIST a g (n) #IMPLIED>",
		},
		{
			name:    "NOTATION on EMPTY",
			src:     `<!NOTATION n SYSTEM "n"><!ELEMENT a EMPTY><!ATTLIST a f NOTATION (n) #IMPLIED>`,
			checkID: "VC-005",
			want:    "<!ATTLIST a f (n) #IMPLIED>",
		},
		{
			name:    "default outside enumeration",
			src:     `<!ELEMENT a EMPTY><!ATTLIST a s (on|off) "maybe">`,
			checkID: "VC-006",
			want:    "<!ATTLIST a s (on|off) #IMPLIED>",
		},
		{
			name:    "attributes without element",
			src:     `<!ELEMENT doc ANY><!ATTLIST note by CDATA #IMPLIED>`,
			checkID: "VC-007",
			want:    "<!ELEMENT note ANY>",
		},
		{
			name:    "unparsed entity notation",
			src:     `<!ENTITY pic SYSTEM "pic.jpg" NDATA jpeg><!ELEMENT doc EMPTY>`,
			checkID: "VC-008",
			want:    `<!NOTATION jpeg SYSTEM "jpeg">`,
		},
		{
			name:    "malformed declaration",
			src:     "<!ELEMENT doc EMPTY>\n<!ELEMENT >\n",
			checkID: "DTD-011",
			want:    "<!ELEMENT doc EMPTY>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out := repair(t, tt.src)
			if !hasFix(result, tt.checkID) {
				t.Errorf("no %s fix in %v", tt.checkID, result.Fixes)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("repaired DTD lacks %q:\n%s", tt.want, out)
			}
			if !result.BeforeReport.Has(tt.checkID) {
				t.Errorf("before report lacks %s", tt.checkID)
			}
			requireClean(t, result.AfterReport)
		})
	}
}

func TestDoctorOutputPassesValidation(t *testing.T) {
	src := `<!ENTITY % attrs "id ID #FIXED 'a' key ID #IMPLIED">
<!ENTITY logo SYSTEM "logo.gif" NDATA gif>
<!ELEMENT img EMPTY>
<!ATTLIST img %attrs; fmt NOTATION (gif) #IMPLIED kind (a|b) "c">
<!ATTLIST caption text CDATA #IMPLIED>
`
	result, out := repair(t, src)
	requireClean(t, result.AfterReport)
	if len(result.Fixes) < 5 {
		t.Errorf("expected at least 5 fixes, got %d", len(result.Fixes))
	}
	for _, f := range result.Fixes {
		t.Logf("  %s: %s", f.CheckID, f.Description)
	}

	// Repairing the output again finds nothing to do.
	second, err := Repair(writeTestDTD(t, out), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Fixes) != 0 {
		t.Errorf("second pass applied %v", second.Fixes)
	}
	if strings.Count(out, "<!NOTATION gif") != 1 {
		t.Errorf("gif notation should be declared once:\n%s", out)
	}
}

func TestDoctorMissingInput(t *testing.T) {
	if _, err := Repair(filepath.Join(t.TempDir(), "nope.dtd"), ""); err == nil {
		t.Error("expected an error for a missing input file")
	}
}
