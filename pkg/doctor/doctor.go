// Package doctor implements a DTD repair mode ("doctor") that applies
// safe, mechanical fixes for the findings of the grammar checks.
//
// The approach:
//  1. Build the grammar and run the checks in strict mode
//  2. Replay the grammar through a fixer into a new DTD file
//  3. Re-validate the output to confirm the fixes worked
//
// Fixed by construction (the rewritten DTD only holds what the grammar
// kept):
//   - DTD-002: elements with an unrecognised content model are dropped
//   - DTD-004/005/006: ignored duplicate declarations are dropped
//   - DTD-011: malformed declarations are dropped
//   - DTD-012: references to undefined parameter entities disappear
//
// Fixes applied during the replay:
//   - DTD-001: unknown attribute type, declared as CDATA
//   - VC-001: extra ID attributes become CDATA
//   - VC-002: ID attribute defaults become #IMPLIED
//   - VC-003/VC-008: undeclared notations are declared
//   - VC-004/VC-005: misplaced NOTATION attributes become enumerations
//   - VC-006: defaults outside the enumeration are removed
//   - VC-007: attribute lists without an element get an ANY declaration
package doctor

import (
	"fmt"

	"github.com/adammathes/dtdgrammar/pkg/report"
	"github.com/adammathes/dtdgrammar/pkg/validate"
)

// Result holds the outcome of a doctor run.
type Result struct {
	Fixes        []Fix
	BeforeReport *report.Report
	AfterReport  *report.Report
}

// Repair builds the grammar of a DTD, applies fixes, and writes the
// repaired version. If outputPath is empty, it writes to inputPath with a
// ".fixed.dtd" suffix.
func Repair(inputPath, outputPath string) (*Result, error) {
	if outputPath == "" {
		outputPath = inputPath + ".fixed.dtd"
	}
	opts := validate.Options{Strict: true}

	// Step 1: build and validate the original
	g, beforeReport, err := validate.Load(inputPath, opts)
	if err != nil {
		return nil, fmt.Errorf("loading DTD: %w", err)
	}
	beforeReport.Merge(validate.CheckWithOptions(g, opts))

	// If already valid with no warnings, nothing to do
	if beforeReport.IsValid() && beforeReport.WarningCount() == 0 {
		return &Result{
			BeforeReport: beforeReport,
			AfterReport:  beforeReport,
		}, nil
	}

	// Step 2: write the repaired DTD
	allFixes := detectRewriteFixes(beforeReport)
	fixes, err := writeDTD(outputPath, g)
	if err != nil {
		return nil, fmt.Errorf("writing repaired DTD: %w", err)
	}
	allFixes = append(allFixes, fixes...)

	// Step 3: re-validate to confirm
	afterReport, err := validate.ValidateWithOptions(outputPath, opts)
	if err != nil {
		return nil, fmt.Errorf("validating repaired DTD: %w", err)
	}

	return &Result{
		Fixes:        allFixes,
		BeforeReport: beforeReport,
		AfterReport:  afterReport,
	}, nil
}
