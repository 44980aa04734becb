package grammar

import (
	"fmt"
	"io"
	"strings"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
)

// Replay delivers the grammar to h as a fresh event sequence: entities,
// then notations, then each element followed by its attributes, all in
// table order. Placeholder elements yield only their attribute
// declarations. Feeding the events to a new Builder reproduces an
// equivalent grammar.
func (g *Grammar) Replay(h dtd.Handler) {
	h.StartDTD(nil)
	for _, e := range g.Entities() {
		id := dtd.ResourceIdentifier{
			SystemID:     dtd.Some(e.SystemID),
			BaseSystemID: e.BaseSystemID,
		}
		if e.PublicID != "" {
			id.PublicID = dtd.Some(e.PublicID)
		}
		switch {
		case !e.ExternalID:
			h.InternalEntityDecl(e.Name, e.Value, "")
		case e.Notation != "":
			h.UnparsedEntityDecl(e.Name, id, e.Notation)
		default:
			h.ExternalEntityDecl(e.Name, id)
		}
	}
	for _, n := range g.notations {
		id := dtd.ResourceIdentifier{BaseSystemID: n.BaseURI}
		if n.PublicID != "" {
			id.PublicID = dtd.Some(n.PublicID)
		}
		if n.SystemID != "" || n.PublicID == "" {
			id.SystemID = dtd.Some(n.SystemID)
		}
		h.NotationDecl(n.Name, id)
	}
	for i, e := range g.Elements() {
		if e.Declared() {
			h.ElementDecl(e.Name.Raw, e.ContentModelText)
		}
		for _, a := range g.Attributes(i) {
			replayAttribute(h, e.Name.Raw, a)
		}
	}
	h.EndDTD()
}

func replayAttribute(h dtd.Handler, element string, a AttributeDecl) {
	defaultType := dtd.None
	if a.DefaultType != DefaultPlain {
		defaultType = dtd.Some(a.DefaultType.String())
	}
	value, raw := dtd.None, dtd.None
	if a.HasDefault {
		value = dtd.Some(a.DefaultValue)
		raw = dtd.Some(a.NonNormalizedDefaultValue)
	}
	h.AttributeDecl(element, a.Name.Raw, a.Type.Keyword(a.List), a.Enumeration, defaultType, value, raw)
}

// WriteDTD writes the grammar as DTD text that parses back into an
// equivalent grammar.
func (g *Grammar) WriteDTD(w io.Writer) error {
	dw := dtd.NewWriter(w)
	g.Replay(dw)
	if err := dw.Err(); err != nil {
		return fmt.Errorf("writing DTD: %w", err)
	}
	return nil
}

// WriteText writes a human-readable dump of the tables to w.
func (g *Grammar) WriteText(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Grammar %s\n", g.desc.SystemID)
	fmt.Fprintf(&sb, "  Elements: %d, Attributes: %d, Entities: %d, Notations: %d\n",
		g.ElementCount(), g.AttributeCount(), g.EntityCount(), len(g.notations))

	for i, e := range g.Elements() {
		fmt.Fprintf(&sb, "[%d] %s %s", i, e.Name.Raw, e.Type)
		if e.ContentModelText != "" && e.Type != ContentEmpty && e.Type != ContentAny {
			fmt.Fprintf(&sb, " %s", e.ContentModelText)
		}
		if e.External {
			sb.WriteString(" (external)")
		}
		sb.WriteByte('\n')
		for j, a := range g.Attributes(i) {
			fmt.Fprintf(&sb, "    @%s [%d] %s", a.Name.Raw, j, a.Type.Keyword(a.List))
			if len(a.Enumeration) > 0 {
				fmt.Fprintf(&sb, " (%s)", strings.Join(a.Enumeration, "|"))
			}
			if a.DefaultType != DefaultPlain {
				fmt.Fprintf(&sb, " %s", a.DefaultType)
			}
			if a.HasDefault {
				fmt.Fprintf(&sb, " %q", a.DefaultValue)
			}
			sb.WriteByte('\n')
		}
	}
	for _, e := range g.Entities() {
		kind := "internal"
		switch {
		case e.Notation != "":
			kind = "unparsed " + e.Notation
		case e.ExternalID:
			kind = "external " + e.SystemID
		}
		fmt.Fprintf(&sb, "ENTITY %s %s\n", e.Name, kind)
	}
	for _, n := range g.notations {
		fmt.Fprintf(&sb, "NOTATION %s public=%q system=%q\n", n.Name, n.PublicID, n.SystemID)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
