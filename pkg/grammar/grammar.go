// Package grammar builds and queries the in-memory form of a DTD.
//
// A Grammar keeps element, attribute and entity declarations in chunked,
// append-only tables addressed by integer index. Each element row holds
// the first and last index of its attribute list; attribute rows are
// chained through their Next field, so an element's attributes form a
// linked list threaded through the flat attribute table. Indices handed
// out by the query methods stay valid for the lifetime of the grammar.
//
// A Grammar is filled by a Builder and is read-only once the builder
// has seen EndDTD. It is not safe for concurrent mutation; concurrent
// reads of a finished grammar are fine.
package grammar

import (
	"iter"
	"slices"
)

// Grammar is the index-addressed form of one DTD.
type Grammar struct {
	desc Description

	elements   table[ElementDecl]
	attributes table[AttributeDecl]
	entities   table[EntityDecl]
	notations  []NotationDecl

	elementIndex map[string]int
	entityIndex  map[string]int

	immutable bool
}

func newGrammar(desc Description) *Grammar {
	return &Grammar{
		desc:         desc,
		elementIndex: make(map[string]int),
		entityIndex:  make(map[string]int),
	}
}

// Description returns the description the grammar was built with. Once
// the grammar is complete it includes the possible root elements.
func (g *Grammar) Description() Description {
	d := g.desc
	d.PossibleRoots = slices.Clone(g.desc.PossibleRoots)
	return d
}

// Immutable reports whether the end of the DTD has been seen.
func (g *Grammar) Immutable() bool {
	return g.immutable
}

// ElementCount returns the number of element rows, placeholders included.
func (g *Grammar) ElementCount() int { return g.elements.len() }

// AttributeCount returns the number of attribute rows.
func (g *Grammar) AttributeCount() int { return g.attributes.len() }

// EntityCount returns the number of entity rows.
func (g *Grammar) EntityCount() int { return g.entities.len() }

//
// Element table
//

func (g *Grammar) createElementDecl() (int, bool) {
	return g.elements.add(ElementDecl{
		Type:           ContentUndeclared,
		FirstAttribute: -1,
		LastAttribute:  -1,
	})
}

// setElementDecl overwrites the declared fields of row i and maps its
// name. The attribute list pointers are left alone.
func (g *Grammar) setElementDecl(i int, decl ElementDecl) {
	row, ok := g.elements.get(i)
	if !ok {
		return
	}
	row.Name = decl.Name
	row.Type = decl.Type
	row.List = decl.List
	row.ContentModelText = decl.ContentModelText
	row.External = decl.External
	g.elementIndex[decl.Name.Raw] = i
}

// ElementIndex returns the index of the element named name, or -1.
func (g *Grammar) ElementIndex(name string) int {
	i, ok := g.elementIndex[name]
	if !ok {
		return -1
	}
	return i
}

// ElementDecl returns the element at index i, or false when i is out
// of range.
func (g *Grammar) ElementDecl(i int) (ElementDecl, bool) {
	row, ok := g.elements.get(i)
	if !ok {
		return ElementDecl{}, false
	}
	return *row, true
}

// ContentSpecType returns the content model of element i without
// copying the rest of the row. Out-of-range indices yield
// ContentUndeclared.
func (g *Grammar) ContentSpecType(i int) ContentModel {
	row, ok := g.elements.get(i)
	if !ok {
		return ContentUndeclared
	}
	return row.Type
}

// ElementIsExternal reports whether element i was declared inside the
// external subset or a parameter entity.
func (g *Grammar) ElementIsExternal(i int) bool {
	row, ok := g.elements.get(i)
	return ok && row.External
}

// FirstElementIndex returns 0, or -1 for an empty grammar.
func (g *Grammar) FirstElementIndex() int {
	if g.elements.len() == 0 {
		return -1
	}
	return 0
}

// NextElementIndex returns the index after i, or -1 after the last row.
func (g *Grammar) NextElementIndex(i int) int {
	if i < 0 || i >= g.elements.len()-1 {
		return -1
	}
	return i + 1
}

// Elements yields every element row in index order.
func (g *Grammar) Elements() iter.Seq2[int, ElementDecl] {
	return func(yield func(int, ElementDecl) bool) {
		for i := 0; i < g.elements.len(); i++ {
			if !yield(i, *g.elements.at(i)) {
				return
			}
		}
	}
}

//
// Attribute table
//

func (g *Grammar) createAttributeDecl() (int, bool) {
	return g.attributes.add(AttributeDecl{
		Type:        TypeUndeclared,
		DefaultType: DefaultImplied,
		Next:        -1,
	})
}

// setAttributeDecl overwrites attribute row a and links it at the end of
// element e's attribute list unless it is already on that list.
func (g *Grammar) setAttributeDecl(e, a int, decl AttributeDecl) {
	elem, ok := g.elements.get(e)
	if !ok {
		return
	}
	row, ok := g.attributes.get(a)
	if !ok {
		return
	}
	next := row.Next
	*row = decl
	row.Next = next

	for i := elem.FirstAttribute; i != -1; i = g.attributes.at(i).Next {
		if i == a {
			return
		}
	}
	if elem.FirstAttribute == -1 {
		elem.FirstAttribute = a
	} else {
		g.attributes.at(elem.LastAttribute).Next = a
	}
	elem.LastAttribute = a
}

// FirstAttributeIndex returns the first attribute of element e, or -1.
func (g *Grammar) FirstAttributeIndex(e int) int {
	elem, ok := g.elements.get(e)
	if !ok {
		return -1
	}
	return elem.FirstAttribute
}

// NextAttributeIndex returns the attribute following a on its element's
// list, or -1.
func (g *Grammar) NextAttributeIndex(a int) int {
	row, ok := g.attributes.get(a)
	if !ok {
		return -1
	}
	return row.Next
}

// AttributeDecl returns the attribute at index a, or false when a is out
// of range.
func (g *Grammar) AttributeDecl(a int) (AttributeDecl, bool) {
	row, ok := g.attributes.get(a)
	if !ok {
		return AttributeDecl{}, false
	}
	return row.clone(), true
}

// AttributeIsExternal reports whether attribute a was declared inside
// the external subset or a parameter entity.
func (g *Grammar) AttributeIsExternal(a int) bool {
	row, ok := g.attributes.get(a)
	return ok && row.External
}

// AttributeIndex scans element e's attribute list for name and returns
// its index, or -1.
func (g *Grammar) AttributeIndex(e int, name string) int {
	for a := g.FirstAttributeIndex(e); a != -1; a = g.attributes.at(a).Next {
		if g.attributes.at(a).Name.Raw == name {
			return a
		}
	}
	return -1
}

// Attributes yields element e's attributes in declaration order.
func (g *Grammar) Attributes(e int) iter.Seq2[int, AttributeDecl] {
	return func(yield func(int, AttributeDecl) bool) {
		for a := g.FirstAttributeIndex(e); a != -1; a = g.attributes.at(a).Next {
			if !yield(a, g.attributes.at(a).clone()) {
				return
			}
		}
	}
}

// IsCDATAAttribute reports whether an attribute is to be treated as
// CDATA. Only a declared attribute of another type answers false, so
// undeclared elements and attributes are CDATA.
func (g *Grammar) IsCDATAAttribute(elementName, attributeName string) bool {
	a := g.AttributeIndex(g.ElementIndex(elementName), attributeName)
	if a == -1 {
		return true
	}
	return g.attributes.at(a).Type == TypeCDATA
}

//
// Entities and notations
//

func (g *Grammar) addEntityDecl(decl EntityDecl) int {
	i, _ := g.entities.add(decl)
	g.entityIndex[decl.Name] = i
	return i
}

// EntityIndex returns the index of the entity named name, or -1.
// Parameter entities are looked up with their leading '%'.
func (g *Grammar) EntityIndex(name string) int {
	i, ok := g.entityIndex[name]
	if !ok {
		return -1
	}
	return i
}

// EntityDecl returns the entity at index i, or false when i is out of
// range.
func (g *Grammar) EntityDecl(i int) (EntityDecl, bool) {
	row, ok := g.entities.get(i)
	if !ok {
		return EntityDecl{}, false
	}
	return *row, true
}

// Entities yields every entity row in declaration order.
func (g *Grammar) Entities() iter.Seq2[int, EntityDecl] {
	return func(yield func(int, EntityDecl) bool) {
		for i := 0; i < g.entities.len(); i++ {
			if !yield(i, *g.entities.at(i)) {
				return
			}
		}
	}
}

// IsEntityDeclared reports whether an entity named name exists.
func (g *Grammar) IsEntityDeclared(name string) bool {
	return g.EntityIndex(name) != -1
}

// IsEntityUnparsed reports whether name is an unparsed (NDATA) entity.
func (g *Grammar) IsEntityUnparsed(name string) bool {
	i := g.EntityIndex(name)
	if i == -1 {
		return false
	}
	return g.entities.at(i).Notation != ""
}

// NotationDecls returns the notations in declaration order.
func (g *Grammar) NotationDecls() []NotationDecl {
	return slices.Clone(g.notations)
}

// NotationDecl returns the first notation declared as name.
func (g *Grammar) NotationDecl(name string) (NotationDecl, bool) {
	for _, n := range g.notations {
		if n.Name == name {
			return n, true
		}
	}
	return NotationDecl{}, false
}
