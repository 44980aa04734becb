// Package dtd defines the callback interface through which a DTD is
// delivered declaration by declaration, a scanner that drives it from DTD
// text, and a writer that turns the callbacks back into DTD text.
package dtd

// Value is an optional string. Absent and empty differ for attribute
// defaults and public identifiers.
type Value struct {
	S     string
	Valid bool
}

// Some returns a present Value holding s.
func Some(s string) Value {
	return Value{S: s, Valid: true}
}

// None is the absent Value.
var None = Value{}

// Locator reports where the declaration currently being delivered starts.
type Locator interface {
	SystemID() string
	Line() int
	Column() int
}

// ResourceIdentifier holds the identifiers attached to an external entity
// or notation.
type ResourceIdentifier struct {
	PublicID     Value
	SystemID     Value
	BaseSystemID string
}

// ConditionalType is the kind of a conditional section.
type ConditionalType int

const (
	Include ConditionalType = iota
	Ignore
)

func (c ConditionalType) String() string {
	if c == Ignore {
		return "IGNORE"
	}
	return "INCLUDE"
}

// Handler receives DTD events in document order. Every event other than
// StartDTD and EndDTD occurs between those two calls.
//
// Attribute types are passed as the declared keyword ("CDATA", "IDREFS",
// "NOTATION", ...) or "ENUMERATION" for an enumerated type; in the last
// two cases enumeration holds the listed values. Default types are
// "#FIXED", "#IMPLIED", "#REQUIRED" or absent. Parameter entity names
// carry a leading '%'.
type Handler interface {
	StartDTD(loc Locator)
	TextDecl(version, encoding string)
	StartParameterEntity(name string, id ResourceIdentifier, encoding string)
	EndParameterEntity(name string)
	StartExternalSubset(id ResourceIdentifier)
	EndExternalSubset()
	ElementDecl(name, contentModel string)
	AttributeDecl(elementName, attributeName, typ string, enumeration []string,
		defaultType, defaultValue, nonNormalizedDefaultValue Value)
	InternalEntityDecl(name, text, nonNormalizedText string)
	ExternalEntityDecl(name string, id ResourceIdentifier)
	UnparsedEntityDecl(name string, id ResourceIdentifier, notation string)
	NotationDecl(name string, id ResourceIdentifier)
	Comment(text string)
	ProcessingInstruction(target, data string)
	StartConditional(typ ConditionalType)
	EndConditional()
	EndDTD()
}

// NopHandler implements Handler with methods that do nothing. Embed it
// to implement only the events of interest.
type NopHandler struct{}

func (NopHandler) StartDTD(Locator)                                                    {}
func (NopHandler) TextDecl(string, string)                                             {}
func (NopHandler) StartParameterEntity(string, ResourceIdentifier, string)             {}
func (NopHandler) EndParameterEntity(string)                                           {}
func (NopHandler) StartExternalSubset(ResourceIdentifier)                              {}
func (NopHandler) EndExternalSubset()                                                  {}
func (NopHandler) ElementDecl(string, string)                                          {}
func (NopHandler) AttributeDecl(string, string, string, []string, Value, Value, Value) {}
func (NopHandler) InternalEntityDecl(string, string, string)                           {}
func (NopHandler) ExternalEntityDecl(string, ResourceIdentifier)                       {}
func (NopHandler) UnparsedEntityDecl(string, ResourceIdentifier, string)               {}
func (NopHandler) NotationDecl(string, ResourceIdentifier)                             {}
func (NopHandler) Comment(string)                                                      {}
func (NopHandler) ProcessingInstruction(string, string)                                {}
func (NopHandler) StartConditional(ConditionalType)                                    {}
func (NopHandler) EndConditional()                                                     {}
func (NopHandler) EndDTD()                                                             {}
