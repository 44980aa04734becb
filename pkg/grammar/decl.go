package grammar

import "slices"

// QName is a declared name. DTDs are not namespace aware, so Local and
// Raw always hold the same string and Prefix and URI stay empty.
type QName struct {
	Prefix string
	Local  string
	Raw    string
	URI    string
}

func newQName(name string) QName {
	return QName{Local: name, Raw: name}
}

func (q QName) String() string { return q.Raw }

// ContentModel classifies an element declaration's content specification.
type ContentModel int16

const (
	ContentUndeclared ContentModel = -1
	ContentAny        ContentModel = 0
	ContentEmpty      ContentModel = 1
	ContentMixed      ContentModel = 2
	ContentChildren   ContentModel = 3
)

func (c ContentModel) String() string {
	switch c {
	case ContentAny:
		return "ANY"
	case ContentEmpty:
		return "EMPTY"
	case ContentMixed:
		return "MIXED"
	case ContentChildren:
		return "CHILDREN"
	default:
		return "UNDECLARED"
	}
}

// AttributeType is the declared type of an attribute. The plural forms
// (IDREFS, ENTITIES, NMTOKENS) are the singular type with List set.
type AttributeType int16

const (
	TypeUndeclared  AttributeType = -1
	TypeCDATA       AttributeType = 0
	TypeEntity      AttributeType = 1
	TypeEnumeration AttributeType = 2
	TypeID          AttributeType = 3
	TypeIDRef       AttributeType = 4
	TypeNMToken     AttributeType = 5
	TypeNotation    AttributeType = 6
)

func (t AttributeType) String() string {
	switch t {
	case TypeCDATA:
		return "CDATA"
	case TypeEntity:
		return "ENTITY"
	case TypeEnumeration:
		return "ENUMERATION"
	case TypeID:
		return "ID"
	case TypeIDRef:
		return "IDREF"
	case TypeNMToken:
		return "NMTOKEN"
	case TypeNotation:
		return "NOTATION"
	default:
		return "UNDECLARED"
	}
}

// Keyword returns the DTD keyword for t, using the plural form when list
// is set.
func (t AttributeType) Keyword(list bool) string {
	if !list {
		return t.String()
	}
	switch t {
	case TypeEntity:
		return "ENTITIES"
	case TypeIDRef:
		return "IDREFS"
	case TypeNMToken:
		return "NMTOKENS"
	}
	return t.String()
}

// DefaultType is the attribute default declaration.
type DefaultType int16

const (
	DefaultImplied  DefaultType = 0
	DefaultFixed    DefaultType = 1
	DefaultRequired DefaultType = 2
	DefaultPlain    DefaultType = 3 // value given without #FIXED
)

func (d DefaultType) String() string {
	switch d {
	case DefaultImplied:
		return "#IMPLIED"
	case DefaultFixed:
		return "#FIXED"
	case DefaultRequired:
		return "#REQUIRED"
	default:
		return "DEFAULT"
	}
}

// ElementDecl is one row of the element table.
type ElementDecl struct {
	Name             QName
	Type             ContentModel
	List             bool
	ContentModelText string

	// FirstAttribute and LastAttribute index the attribute table; -1
	// when the element has no attributes.
	FirstAttribute int
	LastAttribute  int

	External bool
}

// Declared reports whether the element has received a real declaration,
// as opposed to being a placeholder created by a forward reference.
func (e ElementDecl) Declared() bool {
	return e.Type != ContentUndeclared
}

// AttributeDecl is one row of the attribute table.
type AttributeDecl struct {
	Name        QName
	Type        AttributeType
	List        bool
	Enumeration []string
	DefaultType DefaultType

	HasDefault                bool
	DefaultValue              string
	NonNormalizedDefaultValue string

	// Next is the index of the next attribute of the same element, or -1.
	Next int

	External bool
}

// clone copies a row so that callers cannot reach the table's enumeration.
func (a *AttributeDecl) clone() AttributeDecl {
	c := *a
	c.Enumeration = slices.Clone(a.Enumeration)
	return c
}

// NotationDecl is a declared notation.
type NotationDecl struct {
	Name     string
	PublicID string
	SystemID string
	BaseURI  string
}

// EntityDecl is a declared general or parameter entity. Parameter entity
// names keep their leading '%'.
type EntityDecl struct {
	Name         string
	Value        string
	PublicID     string
	SystemID     string
	BaseSystemID string
	Notation     string

	// ExternalID is set for entities declared with SYSTEM or PUBLIC.
	ExternalID bool
	IsPE       bool
	InExternal bool
}

// Description identifies the DTD a grammar was built from.
type Description struct {
	PublicID      string
	SystemID      string
	RootName      string
	PossibleRoots []string

	// ExternalSubset is set when the DTD was read as an external subset,
	// which marks every declaration external.
	ExternalSubset bool
}
