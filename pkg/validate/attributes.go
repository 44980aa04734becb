package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/report"
)

// checkAttributes validates the attribute list of every element type.
func checkAttributes(g *grammar.Grammar, r *report.Report, location string) {
	for e, elem := range g.Elements() {
		var ids, notations []string
		for _, attr := range g.Attributes(e) {
			switch attr.Type {
			case grammar.TypeID:
				ids = append(ids, attr.Name.Raw)
				checkIDDefault(elem, attr, r, location)
			case grammar.TypeNotation:
				notations = append(notations, attr.Name.Raw)
				checkNotationOnEmpty(elem, attr, r, location)
				checkNotationsDeclared(g, elem, attr, r, location)
			}
			checkDefaultInEnumeration(elem, attr, r, location)
		}

		// VC-001
		if len(ids) > 1 {
			r.AddWithLocation(report.Error, "VC-001",
				fmt.Sprintf("Element type '%s' has more than one ID attribute: %s", elem.Name, strings.Join(ids, ", ")),
				location)
		}
		// VC-004
		if len(notations) > 1 {
			r.AddWithLocation(report.Error, "VC-004",
				fmt.Sprintf("Element type '%s' has more than one NOTATION attribute: %s", elem.Name, strings.Join(notations, ", ")),
				location)
		}
	}
}

// VC-002
func checkIDDefault(elem grammar.ElementDecl, attr grammar.AttributeDecl, r *report.Report, location string) {
	if attr.DefaultType == grammar.DefaultImplied || attr.DefaultType == grammar.DefaultRequired {
		return
	}
	r.AddWithLocation(report.Error, "VC-002",
		fmt.Sprintf("ID attribute '%s' of element type '%s' must be declared #IMPLIED or #REQUIRED", attr.Name, elem.Name),
		location)
}

// VC-005
func checkNotationOnEmpty(elem grammar.ElementDecl, attr grammar.AttributeDecl, r *report.Report, location string) {
	if elem.Type != grammar.ContentEmpty {
		return
	}
	r.AddWithLocation(report.Error, "VC-005",
		fmt.Sprintf("NOTATION attribute '%s' must not be declared on the EMPTY element type '%s'", attr.Name, elem.Name),
		location)
}

// VC-003
func checkNotationsDeclared(g *grammar.Grammar, elem grammar.ElementDecl, attr grammar.AttributeDecl, r *report.Report, location string) {
	for _, name := range attr.Enumeration {
		if _, ok := g.NotationDecl(name); ok {
			continue
		}
		r.AddWithLocation(report.Error, "VC-003",
			fmt.Sprintf("Attribute '%s' of element type '%s' names the undeclared notation '%s'", attr.Name, elem.Name, name),
			location)
	}
}

// VC-006
func checkDefaultInEnumeration(elem grammar.ElementDecl, attr grammar.AttributeDecl, r *report.Report, location string) {
	if !attr.HasDefault {
		return
	}
	if attr.Type != grammar.TypeEnumeration && attr.Type != grammar.TypeNotation {
		return
	}
	if slices.Contains(attr.Enumeration, attr.DefaultValue) {
		return
	}
	r.AddWithLocation(report.Error, "VC-006",
		fmt.Sprintf("Default value '%s' of attribute '%s' on element type '%s' is not one of its enumerated values",
			attr.DefaultValue, attr.Name, elem.Name),
		location)
}
