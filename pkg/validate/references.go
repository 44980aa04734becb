package validate

import (
	"fmt"

	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/report"
)

// checkReferences validates names that one declaration uses to refer to
// another.
func checkReferences(g *grammar.Grammar, r *report.Report, location string) {
	// VC-007: attribute lists for element types that were never declared
	checkAttributeOwnersDeclared(g, r, location)

	// VC-008: unparsed entities must name a declared notation
	checkEntityNotations(g, r, location)
}

// VC-007
func checkAttributeOwnersDeclared(g *grammar.Grammar, r *report.Report, location string) {
	for e, elem := range g.Elements() {
		if elem.Declared() || g.FirstAttributeIndex(e) == -1 {
			continue
		}
		r.AddWithLocation(report.Warning, "VC-007",
			fmt.Sprintf("Attributes are declared for element type '%s', which has no element declaration", elem.Name),
			location)
	}
}

// VC-008
func checkEntityNotations(g *grammar.Grammar, r *report.Report, location string) {
	for _, ent := range g.Entities() {
		if ent.Notation == "" {
			continue
		}
		if _, ok := g.NotationDecl(ent.Notation); ok {
			continue
		}
		r.AddWithLocation(report.Error, "VC-008",
			fmt.Sprintf("Unparsed entity '%s' names the undeclared notation '%s'", ent.Name, ent.Notation),
			location)
	}
}
