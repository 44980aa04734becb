// Command dtdfuzz generates randomized synthetic DTD files with potential
// grammar and validity failures for testing dtdgrammar.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	flag "github.com/spf13/pflag"
)

// Fault describes a single mutation applied to a generated DTD.
type Fault struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Expect      string `json:"expect,omitempty"` // check ID the fault should produce
}

// DTDSpec describes the parameters used to generate a DTD.
type DTDSpec struct {
	ID          int     `json:"id"`
	Faults      []Fault `json:"faults"`
	Filename    string  `json:"filename"`
	NumElements int     `json:"num_elements"`
}

// Manifest is written next to the generated files.
type Manifest struct {
	RunID string    `json:"run_id"`
	Seed  int64     `json:"seed"`
	DTDs  []DTDSpec `json:"dtds"`
}

// faultFunc is a function that mutates a DTD builder to inject a fault.
type faultFunc struct {
	name        string
	description string
	expect      string
	apply       func(b *dtdBuilder, rng *rand.Rand)
	weight      int // relative probability weight
}

var allFaults []faultFunc

func init() {
	allFaults = []faultFunc{
		// === Builder diagnostics ===
		{
			name:        "forward_reference",
			description: "Declare an attribute list before its element",
			weight:      4,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.prepend(`<!ATTLIST fwd ref IDREF #IMPLIED>`)
				b.add(`<!ELEMENT fwd (#PCDATA)>`)
			},
		},
		{
			name:        "duplicate_element",
			description: "Declare the same element type twice",
			expect:      "DTD-004",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT twice EMPTY>`, `<!ELEMENT twice ANY>`)
			},
		},
		{
			name:        "duplicate_attribute",
			description: "Declare the same attribute twice for one element",
			expect:      "DTD-005",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT dupattr EMPTY>`,
					`<!ATTLIST dupattr size CDATA #IMPLIED>`,
					`<!ATTLIST dupattr size NMTOKEN "1">`)
			},
		},
		{
			name:        "duplicate_entity",
			description: "Declare the same general entity twice",
			expect:      "DTD-006",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ENTITY again "first">`, `<!ENTITY again "second">`)
			},
		},
		{
			name:        "unknown_attribute_type",
			description: "Use an attribute type that is not a DTD keyword",
			expect:      "DTD-001",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				types := []string{"STRING", "NUMBER", "URI", "IDENT"}
				b.add(`<!ELEMENT typed EMPTY>`,
					fmt.Sprintf(`<!ATTLIST typed value %s #IMPLIED>`, types[rng.Intn(len(types))]))
			},
		},
		{
			name:        "unknown_content_model",
			description: "Use a content model that is neither EMPTY, ANY nor a group",
			expect:      "DTD-002",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT odd CDATA>`)
			},
		},
		// === Scanner diagnostics ===
		{
			name:        "undefined_pe",
			description: "Reference a parameter entity that is never declared",
			expect:      "DTD-012",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`%nowhere;`)
			},
		},
		{
			name:        "external_pe",
			description: "Reference an external parameter entity",
			expect:      "DTD-010",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ENTITY % mod SYSTEM "module.ent">`, `%mod;`)
			},
		},
		{
			name:        "malformed_declaration",
			description: "Write a declaration with a syntax error",
			expect:      "DTD-011",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				options := []string{
					`<!ELEMENT >`,
					`<!ATTLIST broken size CDATA>`,
					`<!ENTITY novalue>`,
					`<!NOTATION>`,
				}
				b.add(options[rng.Intn(len(options))])
			},
		},
		// === Validity constraints ===
		{
			name:        "multiple_id",
			description: "Give an element type two ID attributes",
			expect:      "VC-001",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT ids EMPTY>`, `<!ATTLIST ids id ID #IMPLIED key ID #IMPLIED>`)
			},
		},
		{
			name:        "id_with_default",
			description: "Give an ID attribute a default value",
			expect:      "VC-002",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT idd EMPTY>`, `<!ATTLIST idd id ID "x1">`)
			},
		},
		{
			name:        "undeclared_notation",
			description: "List an undeclared notation in a NOTATION attribute",
			expect:      "VC-003",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT obj (#PCDATA)>`, `<!ATTLIST obj type NOTATION (gif|tiff) #IMPLIED>`)
			},
		},
		{
			name:        "multiple_notation",
			description: "Give an element type two NOTATION attributes",
			expect:      "VC-004",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT media (#PCDATA)>`,
					`<!ATTLIST media a NOTATION (gif) #IMPLIED b NOTATION (gif) #IMPLIED>`)
			},
		},
		{
			name:        "notation_on_empty",
			description: "Declare a NOTATION attribute on an EMPTY element",
			expect:      "VC-005",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT img EMPTY>`, `<!ATTLIST img format NOTATION (gif) #IMPLIED>`)
			},
		},
		{
			name:        "enum_default_not_listed",
			description: "Default an enumerated attribute to a value it does not list",
			expect:      "VC-006",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ELEMENT sw EMPTY>`, `<!ATTLIST sw state (on|off) "dim">`)
			},
		},
		{
			name:        "attributes_without_element",
			description: "Declare attributes for an element type that is never declared",
			expect:      "VC-007",
			weight:      3,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ATTLIST ghost name CDATA #IMPLIED>`)
			},
		},
		{
			name:        "unparsed_undeclared_notation",
			description: "Declare an unparsed entity with an undeclared notation",
			expect:      "VC-008",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ENTITY scan SYSTEM "scan.tif" NDATA tiff>`)
			},
		},
		// === Structure ===
		{
			name:        "chunk_boundary",
			description: "Declare enough elements to cross a table chunk",
			weight:      1,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				for i := 0; i < 300; i++ {
					b.add(fmt.Sprintf(`<!ELEMENT bulk%d EMPTY>`, i),
						fmt.Sprintf(`<!ATTLIST bulk%d n CDATA #IMPLIED>`, i))
				}
			},
		},
		{
			name:        "conditional_sections",
			description: "Wrap declarations in INCLUDE and IGNORE sections",
			weight:      2,
			apply: func(b *dtdBuilder, rng *rand.Rand) {
				b.add(`<!ENTITY % on "INCLUDE">`,
					`<![%on;[ <!ELEMENT cond (#PCDATA)> ]]>`,
					`<![IGNORE[ <!ELEMENT cond EMPTY> <![INCLUDE[ <!ATTLIST ghost2 a CDATA #IMPLIED> ]]> ]]>`)
			},
		},
	}
}

// dtdBuilder accumulates the declarations of one DTD.
type dtdBuilder struct {
	head  []string
	decls []string
}

func newBuilder(numElements int, rng *rand.Rand) *dtdBuilder {
	b := &dtdBuilder{}
	b.add(`<!ENTITY % inline "#PCDATA|em">`,
		`<!NOTATION gif PUBLIC "-//CompuServe//NOTATION Graphics Interchange Format 89a//EN">`,
		`<!ELEMENT doc (title, body)>`,
		`<!ELEMENT title (%inline;)*>`,
		`<!ELEMENT em (#PCDATA)>`)

	var children []string
	for i := 0; i < numElements; i++ {
		name := fmt.Sprintf("e%d", i)
		children = append(children, name)
		b.add(fmt.Sprintf(`<!ELEMENT %s (%%inline;)*>`, name))
		b.add(randomAttributes(name, rng)...)
	}
	b.add(fmt.Sprintf(`<!ELEMENT body (%s)*>`, strings.Join(children, "|")))
	return b
}

// randomAttributes returns valid attribute lists for element.
func randomAttributes(element string, rng *rand.Rand) []string {
	defs := []string{
		"id ID #IMPLIED",
		"class NMTOKENS #IMPLIED",
		`lang NMTOKEN "en"`,
		`state (open|closed) "open"`,
		"ref IDREF #IMPLIED",
		`title CDATA #FIXED "fixed"`,
	}
	var out []string
	for _, d := range defs {
		if rng.Intn(3) == 0 {
			out = append(out, fmt.Sprintf("<!ATTLIST %s %s>", element, d))
		}
	}
	return out
}

func (b *dtdBuilder) add(decls ...string) {
	b.decls = append(b.decls, decls...)
}

func (b *dtdBuilder) prepend(decls ...string) {
	b.head = append(b.head, decls...)
}

func (b *dtdBuilder) build() []byte {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	for _, d := range b.head {
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	for _, d := range b.decls {
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func generateDTD(id int, rng *rand.Rand) (*DTDSpec, []byte) {
	numElements := 1 + rng.Intn(12)
	b := newBuilder(numElements, rng)

	// Decide how many faults to inject: 0-4
	// 15% valid (0 faults), 35% 1 fault, 30% 2 faults, 15% 3 faults, 5% 4 faults
	r := rng.Float64()
	var numFaults int
	switch {
	case r < 0.15:
		numFaults = 0
	case r < 0.50:
		numFaults = 1
	case r < 0.80:
		numFaults = 2
	case r < 0.95:
		numFaults = 3
	default:
		numFaults = 4
	}

	spec := &DTDSpec{
		ID:          id,
		NumElements: numElements,
	}

	// Weighted random selection of faults
	usedFaults := map[string]bool{}
	for i := 0; i < numFaults; i++ {
		totalWeight := 0
		for _, f := range allFaults {
			if !usedFaults[f.name] {
				totalWeight += f.weight
			}
		}
		if totalWeight == 0 {
			break
		}

		pick := rng.Intn(totalWeight)
		cumulative := 0
		for _, f := range allFaults {
			if usedFaults[f.name] {
				continue
			}
			cumulative += f.weight
			if pick < cumulative {
				usedFaults[f.name] = true
				f.apply(b, rng)
				spec.Faults = append(spec.Faults, Fault{Name: f.name, Description: f.description, Expect: f.expect})
				break
			}
		}
	}

	spec.Filename = fmt.Sprintf("synth_%03d.dtd", id)
	return spec, b.build()
}

// runID names a generation run; the same seed always yields the same ID.
func runID(seed int64) string {
	return uuid.NewV5(uuid.NamespaceURL, fmt.Sprintf("dtdfuzz:seed:%d", seed)).String()
}

func main() {
	count := flag.IntP("count", "n", 100, "number of DTDs to generate")
	seed := flag.Int64("seed", 42, "random seed")
	outDir := flag.StringP("out", "o", "testdata/synthetic", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	manifest := Manifest{RunID: runID(*seed), Seed: *seed}

	for i := 1; i <= *count; i++ {
		spec, data := generateDTD(i, rng)

		path := filepath.Join(*outDir, spec.Filename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}

		manifest.DTDs = append(manifest.DTDs, *spec)

		faultNames := make([]string, len(spec.Faults))
		for j, f := range spec.Faults {
			faultNames[j] = f.Name
		}
		faultStr := "valid (no faults)"
		if len(faultNames) > 0 {
			faultStr = strings.Join(faultNames, ", ")
		}
		fmt.Printf("[%3d] %s %d elements: %s\n", i, spec.Filename, spec.NumElements, faultStr)
	}

	// Write manifest
	manifestPath := filepath.Join(*outDir, "manifest.json")
	manifestData, _ := json.MarshalIndent(manifest, "", "  ")
	if err := os.WriteFile(manifestPath, manifestData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write manifest: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nGenerated %d DTDs in %s (run %s)\n", *count, *outDir, manifest.RunID)
	fmt.Printf("Manifest: %s\n", manifestPath)
}
