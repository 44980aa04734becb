package grammar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
	"github.com/adammathes/dtdgrammar/pkg/normalize"
	"github.com/adammathes/dtdgrammar/pkg/report"
	"github.com/adammathes/dtdgrammar/pkg/symbol"
)

// Options configures a Builder. The zero value is usable.
type Options struct {
	// Description identifies the DTD. SystemID is filled from the
	// locator passed to StartDTD when left empty.
	Description Description

	// Symbols interns declared names. A private table is used when nil.
	Symbols *symbol.Table

	// Report receives diagnostics. Diagnostics are dropped when nil.
	Report report.Sink

	// Logger receives debug records. Pass nil to disable logging.
	Logger *slog.Logger
}

// Builder turns DTD events into a Grammar. It implements dtd.Handler and
// serves exactly one DTD: once EndDTD has been delivered the grammar is
// immutable and further declarations are ignored.
type Builder struct {
	g       *Grammar
	symbols *symbol.Table
	sink    report.Sink
	logger  *slog.Logger
	loc     dtd.Locator

	readingExternal bool
	peStack         []bool
}

var _ dtd.Handler = (*Builder)(nil)

// NewBuilder returns a builder with empty tables.
func NewBuilder(opts Options) *Builder {
	syms := opts.Symbols
	if syms == nil {
		syms = symbol.NewTable()
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With(slog.String("component", "grammar"))
	}
	return &Builder{
		g:       newGrammar(opts.Description),
		symbols: syms,
		sink:    opts.Report,
		logger:  logger,
	}
}

// Grammar returns the grammar under construction. It may be queried at
// any time; it stops changing after EndDTD.
func (b *Builder) Grammar() *Grammar {
	return b.g
}

func (b *Builder) log(msg string, attrs ...slog.Attr) {
	if b.logger == nil {
		return
	}
	b.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (b *Builder) report(sev report.Severity, checkID, msg string) {
	if b.sink == nil {
		return
	}
	b.sink.AddWithLocation(sev, checkID, msg, b.location())
}

func (b *Builder) location() string {
	if b.loc == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", b.loc.SystemID(), b.loc.Line(), b.loc.Column())
}

func (b *Builder) external() bool {
	return b.readingExternal || len(b.peStack) > 0
}

// closed reports whether the DTD has ended, logging the dropped event.
func (b *Builder) closed(event string) bool {
	if !b.g.immutable {
		return false
	}
	b.log("event after end of DTD ignored", slog.String("event", event))
	return true
}

// StartDTD records the locator used for diagnostic locations.
func (b *Builder) StartDTD(loc dtd.Locator) {
	b.loc = loc
	if loc != nil && b.g.desc.SystemID == "" {
		b.g.desc.SystemID = loc.SystemID()
	}
}

// EndDTD freezes the grammar. Without a root name in the description,
// every element name becomes a possible root.
func (b *Builder) EndDTD() {
	if b.g.immutable {
		return
	}
	b.g.immutable = true
	if b.g.desc.RootName == "" {
		roots := make([]string, 0, b.g.elements.len())
		for i := 0; i < b.g.elements.len(); i++ {
			roots = append(roots, b.g.elements.at(i).Name.Raw)
		}
		b.g.desc.PossibleRoots = roots
	}
	b.log("grammar complete",
		slog.Int("elements", b.g.elements.len()),
		slog.Int("attributes", b.g.attributes.len()),
		slog.Int("entities", b.g.entities.len()),
		slog.Int("notations", len(b.g.notations)),
		slog.Int("symbols", b.symbols.Len()))
}

func (b *Builder) TextDecl(version, encoding string) {}

// StartParameterEntity pushes the current external flag. Everything
// declared inside a parameter entity counts as external.
func (b *Builder) StartParameterEntity(name string, id dtd.ResourceIdentifier, encoding string) {
	b.peStack = append(b.peStack, b.readingExternal)
}

func (b *Builder) EndParameterEntity(name string) {
	if n := len(b.peStack); n > 0 {
		b.readingExternal = b.peStack[n-1]
		b.peStack = b.peStack[:n-1]
	}
}

func (b *Builder) StartExternalSubset(id dtd.ResourceIdentifier) {
	b.readingExternal = true
}

func (b *Builder) EndExternalSubset() {
	b.readingExternal = false
}

// newElement appends a placeholder row for name and maps it.
func (b *Builder) newElement(name string) int {
	i, grew := b.g.createElementDecl()
	if grew {
		b.log("element table grown", slog.Int("chunks", len(b.g.elements.chunks)))
	}
	b.g.setElementDecl(i, ElementDecl{Name: newQName(name), Type: ContentUndeclared})
	return i
}

// ElementDecl declares name. A placeholder left by an earlier attribute
// declaration is upgraded in place; a second real declaration is ignored.
func (b *Builder) ElementDecl(name, contentModel string) {
	if b.closed("element") {
		return
	}
	name = b.symbols.Add(name)
	i := b.g.ElementIndex(name)
	switch {
	case i == -1:
		i = b.newElement(name)
	case b.g.elements.at(i).Declared():
		b.report(report.Info, "DTD-004", fmt.Sprintf("element '%s' declared more than once; first declaration kept", name))
		return
	}

	typ := classifyContent(contentModel)
	if typ == ContentUndeclared {
		b.report(report.Warning, "DTD-002", fmt.Sprintf("element '%s' has unrecognised content model '%s'", name, contentModel))
	}
	b.g.setElementDecl(i, ElementDecl{
		Name:             newQName(name),
		Type:             typ,
		ContentModelText: contentModel,
		External:         b.external(),
	})
}

func classifyContent(model string) ContentModel {
	switch {
	case model == "EMPTY":
		return ContentEmpty
	case model == "ANY":
		return ContentAny
	case strings.HasPrefix(model, "("):
		if strings.Contains(model, "#PCDATA") {
			return ContentMixed
		}
		return ContentChildren
	}
	return ContentUndeclared
}

// AttributeDecl declares attributeName on elementName. The element gets a
// placeholder when it has not been seen yet; only the first declaration
// of an attribute for a given element is binding.
func (b *Builder) AttributeDecl(elementName, attributeName, typ string, enumeration []string,
	defaultType, defaultValue, nonNormalizedDefaultValue dtd.Value) {
	if b.closed("attribute") {
		return
	}
	elementName = b.symbols.Add(elementName)
	attributeName = b.symbols.Add(attributeName)

	e := b.g.ElementIndex(elementName)
	if e == -1 {
		e = b.newElement(elementName)
		b.log("forward reference", slog.String("element", elementName), slog.Int("index", e))
	}
	if b.g.AttributeIndex(e, attributeName) != -1 {
		b.report(report.Info, "DTD-005", fmt.Sprintf("attribute '%s' of element '%s' declared more than once; first declaration kept", attributeName, elementName))
		return
	}

	a, grew := b.g.createAttributeDecl()
	if grew {
		b.log("attribute table grown", slog.Int("chunks", len(b.g.attributes.chunks)))
	}

	decl := AttributeDecl{
		Name:        newQName(attributeName),
		DefaultType: classifyDefault(defaultType),
		Enumeration: b.names(enumeration),
		External:    b.external(),
	}
	decl.Type, decl.List = classifyAttribute(typ)
	if decl.Type == TypeUndeclared {
		b.report(report.Warning, "DTD-001", fmt.Sprintf("attribute '%s' of element '%s' has unknown type '%s'", attributeName, elementName, typ))
	}
	if defaultValue.Valid {
		decl.HasDefault = true
		decl.DefaultValue = defaultValue.S
		decl.NonNormalizedDefaultValue = nonNormalizedDefaultValue.S
		if !nonNormalizedDefaultValue.Valid {
			decl.NonNormalizedDefaultValue = defaultValue.S
		}
		if decl.Type != TypeCDATA {
			decl.DefaultValue, _ = normalize.String(decl.DefaultValue)
		}
	}
	b.g.setAttributeDecl(e, a, decl)
}

// names interns list into a slice the grammar owns.
func (b *Builder) names(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = b.symbols.Add(s)
	}
	return out
}

func classifyAttribute(typ string) (AttributeType, bool) {
	switch {
	case typ == "CDATA":
		return TypeCDATA, false
	case typ == "ID":
		return TypeID, false
	case strings.HasPrefix(typ, "IDREF"):
		return TypeIDRef, strings.Contains(typ[1:], "S")
	case typ == "ENTITIES":
		return TypeEntity, true
	case typ == "ENTITY":
		return TypeEntity, false
	case typ == "NMTOKENS":
		return TypeNMToken, true
	case typ == "NMTOKEN":
		return TypeNMToken, false
	case strings.HasPrefix(typ, "NOTATION"):
		return TypeNotation, false
	case strings.HasPrefix(typ, "ENUMERATION"):
		return TypeEnumeration, false
	}
	return TypeUndeclared, false
}

func classifyDefault(v dtd.Value) DefaultType {
	if !v.Valid {
		return DefaultPlain
	}
	switch v.S {
	case "#FIXED":
		return DefaultFixed
	case "#IMPLIED":
		return DefaultImplied
	case "#REQUIRED":
		return DefaultRequired
	}
	return DefaultPlain
}

// entity stores decl unless an entity of the same name exists.
func (b *Builder) entity(decl EntityDecl) {
	decl.Name = b.symbols.Add(decl.Name)
	if b.g.EntityIndex(decl.Name) != -1 {
		b.report(report.Info, "DTD-006", fmt.Sprintf("entity '%s' declared more than once; first declaration kept", decl.Name))
		return
	}
	decl.IsPE = strings.HasPrefix(decl.Name, "%")
	decl.InExternal = b.external()
	b.g.addEntityDecl(decl)
}

func (b *Builder) InternalEntityDecl(name, text, nonNormalizedText string) {
	if b.closed("entity") {
		return
	}
	b.entity(EntityDecl{Name: name, Value: text})
}

func (b *Builder) ExternalEntityDecl(name string, id dtd.ResourceIdentifier) {
	if b.closed("entity") {
		return
	}
	b.entity(EntityDecl{
		Name:         name,
		PublicID:     id.PublicID.S,
		SystemID:     id.SystemID.S,
		BaseSystemID: id.BaseSystemID,
		ExternalID:   true,
	})
}

func (b *Builder) UnparsedEntityDecl(name string, id dtd.ResourceIdentifier, notation string) {
	if b.closed("entity") {
		return
	}
	b.entity(EntityDecl{
		Name:         name,
		PublicID:     id.PublicID.S,
		SystemID:     id.SystemID.S,
		BaseSystemID: id.BaseSystemID,
		Notation:     b.symbols.Add(notation),
		ExternalID:   true,
	})
}

// NotationDecl records a notation. A name seen before keeps its first
// declaration.
func (b *Builder) NotationDecl(name string, id dtd.ResourceIdentifier) {
	if b.closed("notation") {
		return
	}
	name = b.symbols.Add(name)
	if _, ok := b.g.NotationDecl(name); ok {
		return
	}
	b.g.notations = append(b.g.notations, NotationDecl{
		Name:     name,
		PublicID: id.PublicID.S,
		SystemID: id.SystemID.S,
		BaseURI:  id.BaseSystemID,
	})
}

func (b *Builder) Comment(text string)                       {}
func (b *Builder) ProcessingInstruction(target, data string) {}
func (b *Builder) StartConditional(typ dtd.ConditionalType)  {}
func (b *Builder) EndConditional()                           {}
