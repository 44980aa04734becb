// Command dtdcompare runs the dtdgrammar binary against a directory of
// dtdfuzz output and compares what it reports with the faults recorded in
// the manifest.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"
)

// --- manifest types (shared with dtdfuzz) ---

type Fault struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Expect      string `json:"expect,omitempty"`
}

type DTDSpec struct {
	ID          int     `json:"id"`
	Faults      []Fault `json:"faults"`
	Filename    string  `json:"filename"`
	NumElements int     `json:"num_elements"`
}

type Manifest struct {
	RunID string    `json:"run_id"`
	Seed  int64     `json:"seed"`
	DTDs  []DTDSpec `json:"dtds"`
}

// --- dtdgrammar JSON output ---

type Result struct {
	Valid        bool      `json:"valid"`
	Messages     []Message `json:"messages"`
	FatalCount   int       `json:"fatal_count"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
}

type Message struct {
	Severity string `json:"severity"`
	CheckID  string `json:"check_id"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// --- discrepancy ---

type Discrepancy struct {
	DTD        string   `json:"dtd"`
	Faults     []string `json:"faults"`
	Type       string   `json:"type"`
	Detail     string   `json:"detail"`
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
	Reported   []string `json:"reported,omitempty"`
}

func runChecker(path, binary string, strict bool) (*Result, string, error) {
	args := []string{path, "--json", "-"}
	if strict {
		args = append(args, "--strict")
	}
	// The exit status encodes validity; only unparseable output is a crash.
	out, err := exec.Command(binary, args...).Output()
	outStr := string(out)

	var result Result
	if jerr := json.Unmarshal(out, &result); jerr != nil {
		return nil, outStr, fmt.Errorf("parse dtdgrammar json: %w (err=%v raw=%.500s)", jerr, err, outStr)
	}
	return &result, outStr, nil
}

func main() {
	synthDir := flag.String("dir", "testdata/synthetic", "directory holding manifest.json")
	binary := flag.String("bin", "./dtdgrammar", "path to the dtdgrammar binary")
	strict := flag.Bool("strict", false, "run the checker in strict mode")
	flag.Parse()

	manifestData, err := os.ReadFile(filepath.Join(*synthDir, "manifest.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		os.Exit(1)
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		fmt.Fprintf(os.Stderr, "parse manifest: %v\n", err)
		os.Exit(1)
	}

	var discrepancies []Discrepancy
	matches := 0
	crashes := 0

	for _, spec := range manifest.DTDs {
		path := filepath.Join(*synthDir, spec.Filename)
		faultNames := make([]string, len(spec.Faults))
		expected := map[string]bool{}
		for i, f := range spec.Faults {
			faultNames[i] = f.Name
			if f.Expect != "" {
				expected[f.Expect] = true
			}
		}
		faultStr := strings.Join(faultNames, ",")
		if faultStr == "" {
			faultStr = "(valid)"
		}

		fmt.Printf("[%3d] %s %s ... ", spec.ID, spec.Filename, faultStr)

		result, raw, err := runChecker(path, *binary, *strict)
		if err != nil {
			fmt.Printf("CRASH\n")
			crashes++
			discrepancies = append(discrepancies, Discrepancy{
				DTD:    spec.Filename,
				Faults: faultNames,
				Type:   "crash",
				Detail: fmt.Sprintf("dtdgrammar failed: %v\n%.1000s", err, raw),
			})
			continue
		}

		reported := map[string]bool{}
		var lines []string
		for _, m := range result.Messages {
			reported[m.CheckID] = true
			if m.Severity != "INFO" {
				lines = append(lines, fmt.Sprintf("%s(%s): %s", m.Severity, m.CheckID, m.Message))
			}
		}

		var missing, unexpected []string
		for id := range expected {
			if !reported[id] {
				missing = append(missing, id)
			}
		}
		for _, m := range result.Messages {
			if m.Severity == "INFO" || expected[m.CheckID] {
				continue
			}
			unexpected = append(unexpected, m.CheckID)
		}
		sort.Strings(missing)
		unexpected = dedupe(unexpected)

		switch {
		case len(missing) > 0:
			discrepancies = append(discrepancies, Discrepancy{
				DTD:      spec.Filename,
				Faults:   faultNames,
				Type:     "false_negative",
				Detail:   "expected checks were not reported",
				Missing:  missing,
				Reported: lines,
			})
			fmt.Printf("MISSED %s\n", strings.Join(missing, ","))
		case len(expected) == 0 && len(unexpected) > 0:
			discrepancies = append(discrepancies, Discrepancy{
				DTD:        spec.Filename,
				Faults:     faultNames,
				Type:       "false_positive",
				Detail:     "clean DTD produced diagnostics",
				Unexpected: unexpected,
				Reported:   lines,
			})
			fmt.Printf("SPURIOUS %s\n", strings.Join(unexpected, ","))
		case len(unexpected) > 0:
			// Faults can cascade; record the extras without counting a mismatch.
			matches++
			discrepancies = append(discrepancies, Discrepancy{
				DTD:        spec.Filename,
				Faults:     faultNames,
				Type:       "check_difference",
				Detail:     "expected checks reported along with others",
				Unexpected: unexpected,
				Reported:   lines,
			})
			fmt.Printf("MATCH (+%s)\n", strings.Join(unexpected, ","))
		default:
			matches++
			fmt.Printf("MATCH valid=%v\n", result.Valid)
		}
	}

	resultsPath := filepath.Join(*synthDir, "comparison_results.json")
	data, _ := json.MarshalIndent(discrepancies, "", "  ")
	if err := os.WriteFile(resultsPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write results: %v\n", err)
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Println("                   SUMMARY")
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("Run:                   %s (seed %d)\n", manifest.RunID, manifest.Seed)
	fmt.Printf("Total DTDs tested:     %d\n", len(manifest.DTDs))
	fmt.Printf("Matches:               %d\n", matches)
	fmt.Printf("Crashes:               %d\n", crashes)
	fmt.Println()

	typeCounts := map[string]int{}
	for _, d := range discrepancies {
		typeCounts[d.Type]++
	}
	fmt.Println("Discrepancy breakdown:")
	for _, t := range []string{"false_negative", "false_positive", "check_difference", "crash"} {
		if c, ok := typeCounts[t]; ok {
			fmt.Printf("  %-20s %d\n", t+":", c)
		}
	}

	printSection("FALSE NEGATIVES (expected checks missing)", discrepancies, "false_negative", func(d Discrepancy) []string {
		return d.Missing
	})
	printSection("FALSE POSITIVES (clean DTDs flagged)", discrepancies, "false_positive", func(d Discrepancy) []string {
		return d.Reported
	})

	for _, d := range discrepancies {
		if d.Type == "crash" {
			fmt.Printf("\n  CRASH: %s: %s\n", d.DTD, d.Detail[:min(200, len(d.Detail))])
		}
	}

	fmt.Printf("\nDetailed results: %s\n", resultsPath)
	if typeCounts["false_negative"]+typeCounts["false_positive"]+crashes > 0 {
		os.Exit(1)
	}
}

func printSection(title string, ds []Discrepancy, typ string, lines func(Discrepancy) []string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("═══════════════════════════════════════════════════")
	for _, d := range ds {
		if d.Type != typ {
			continue
		}
		fmt.Printf("\n  %s (faults: %s)\n", d.DTD, strings.Join(d.Faults, ", "))
		for _, l := range lines(d) {
			fmt.Printf("    - %s\n", l)
		}
	}
}

func dedupe(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}
