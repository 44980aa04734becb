package doctor

import (
	"fmt"
	"slices"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/report"
)

// Fix represents a single applied fix.
type Fix struct {
	CheckID     string
	Description string
	Location    string // where the original finding was reported, if known
}

// rewriteFixes lists the findings that disappear whenever a grammar is
// written back out: the declarations they concern never reach the grammar.
var rewriteFixes = map[string]string{
	"DTD-002": "Removed element declaration with an unrecognised content model",
	"DTD-004": "Removed ignored duplicate element declaration",
	"DTD-005": "Removed ignored duplicate attribute declaration",
	"DTD-006": "Removed ignored duplicate entity declaration",
	"DTD-011": "Removed malformed markup declaration",
	"DTD-012": "Removed reference to an undefined parameter entity",
}

// detectRewriteFixes reports the findings of before that a rewrite fixes
// by construction.
func detectRewriteFixes(before *report.Report) []Fix {
	var fixes []Fix
	for _, m := range before.Messages {
		desc, ok := rewriteFixes[m.CheckID]
		if !ok {
			continue
		}
		fixes = append(fixes, Fix{CheckID: m.CheckID, Description: desc, Location: m.Location})
	}
	return fixes
}

// fixer sits between a grammar replay and a writer and rewrites the
// declarations that fail a check. Events it does not override pass
// straight through to the embedded Handler.
type fixer struct {
	dtd.Handler
	g     *grammar.Grammar
	fixes []Fix

	declared  map[string]bool
	ids       map[string]bool // elements that already have an ID attribute
	notations map[string]bool // elements that already have a NOTATION attribute
	missing   []missingNotation
}

// missingNotation is a notation to declare at the end of the DTD.
type missingNotation struct {
	name    string
	checkID string
}

func newFixer(g *grammar.Grammar, h dtd.Handler) *fixer {
	return &fixer{
		Handler:   h,
		g:         g,
		declared:  make(map[string]bool),
		ids:       make(map[string]bool),
		notations: make(map[string]bool),
	}
}

func (f *fixer) add(checkID, format string, args ...any) {
	f.fixes = append(f.fixes, Fix{CheckID: checkID, Description: fmt.Sprintf(format, args...)})
}

func (f *fixer) ElementDecl(name, contentModel string) {
	f.declared[name] = true
	f.Handler.ElementDecl(name, contentModel)
}

func (f *fixer) AttributeDecl(element, name, typ string, enum []string, defaultType, value, raw dtd.Value) {
	// VC-007: give the attribute list an element declaration
	if !f.declared[element] {
		f.declared[element] = true
		f.Handler.ElementDecl(element, "ANY")
		f.add("VC-007", "Declared element type '%s' with content ANY", element)
	}

	switch typ {
	case grammar.TypeUndeclared.String():
		// DTD-001
		typ = "CDATA"
		f.add("DTD-001", "Declared attribute '%s' of element type '%s' as CDATA", name, element)
	case "ID":
		if f.ids[element] {
			// VC-001
			typ = "CDATA"
			f.add("VC-001", "Changed extra ID attribute '%s' of element type '%s' to CDATA", name, element)
			break
		}
		f.ids[element] = true
		if defaultType.S != "#IMPLIED" && defaultType.S != "#REQUIRED" {
			// VC-002
			defaultType, value, raw = dtd.Some("#IMPLIED"), dtd.None, dtd.None
			f.add("VC-002", "Changed default of ID attribute '%s' of element type '%s' to #IMPLIED", name, element)
		}
	case "NOTATION":
		typ = f.fixNotationAttribute(element, name, enum)
	}

	if (typ == "ENUMERATION" || typ == "NOTATION") && value.Valid && !slices.Contains(enum, value.S) {
		// VC-006
		defaultType, value, raw = dtd.Some("#IMPLIED"), dtd.None, dtd.None
		f.add("VC-006", "Removed default of attribute '%s' of element type '%s' that is not an enumerated value", name, element)
	}

	f.Handler.AttributeDecl(element, name, typ, enum, defaultType, value, raw)
}

// fixNotationAttribute returns the type to declare a NOTATION attribute
// with.
func (f *fixer) fixNotationAttribute(element, name string, enum []string) string {
	if e := f.g.ElementIndex(element); f.g.ContentSpecType(e) == grammar.ContentEmpty {
		// VC-005
		f.add("VC-005", "Changed NOTATION attribute '%s' of EMPTY element type '%s' to an enumeration", name, element)
		return "ENUMERATION"
	}
	if f.notations[element] {
		// VC-004
		f.add("VC-004", "Changed extra NOTATION attribute '%s' of element type '%s' to an enumeration", name, element)
		return "ENUMERATION"
	}
	f.notations[element] = true
	for _, n := range enum {
		f.requireNotation(n, "VC-003")
	}
	return "NOTATION"
}

func (f *fixer) UnparsedEntityDecl(name string, id dtd.ResourceIdentifier, notation string) {
	f.requireNotation(notation, "VC-008")
	f.Handler.UnparsedEntityDecl(name, id, notation)
}

func (f *fixer) requireNotation(name, checkID string) {
	if _, ok := f.g.NotationDecl(name); ok {
		return
	}
	if slices.ContainsFunc(f.missing, func(m missingNotation) bool { return m.name == name }) {
		return
	}
	f.missing = append(f.missing, missingNotation{name: name, checkID: checkID})
}

func (f *fixer) EndDTD() {
	for _, m := range f.missing {
		f.Handler.NotationDecl(m.name, dtd.ResourceIdentifier{SystemID: dtd.Some(m.name)})
		f.add(m.checkID, "Declared missing notation '%s'", m.name)
	}
	f.Handler.EndDTD()
}
