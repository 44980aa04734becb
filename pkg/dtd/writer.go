package dtd

import (
	"bufio"
	"io"
	"strings"
)

// Writer is a Handler that prints every event it receives as DTD text.
// Parameter entity boundaries are not printed, so declarations that came
// from an entity appear expanded in place.
//
// Write errors are sticky: after the first failure the remaining events
// are dropped and Err reports the error. Output is flushed on EndDTD.
type Writer struct {
	w   *bufio.Writer
	err error
}

var _ Handler = (*Writer)(nil)

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) print(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = w.w.WriteString(p)
	}
}

func (w *Writer) StartDTD(Locator) {}

func (w *Writer) EndDTD() {
	if w.err == nil {
		w.err = w.w.Flush()
	}
}

func (w *Writer) TextDecl(version, encoding string) {
	w.print("<?xml")
	if version != "" {
		w.print(` version="`, version, `"`)
	}
	if encoding != "" {
		w.print(` encoding="`, encoding, `"`)
	}
	w.print("?>\n")
}

func (w *Writer) StartParameterEntity(string, ResourceIdentifier, string) {}
func (w *Writer) EndParameterEntity(string)                               {}
func (w *Writer) StartExternalSubset(ResourceIdentifier)                  {}
func (w *Writer) EndExternalSubset()                                      {}

func (w *Writer) ElementDecl(name, contentModel string) {
	w.print("<!ELEMENT ", name, " ", contentModel, ">\n")
}

func (w *Writer) AttributeDecl(elementName, attributeName, typ string, enumeration []string,
	defaultType, defaultValue, nonNormalizedDefaultValue Value) {
	w.print("<!ATTLIST ", elementName, " ", attributeName, " ")
	switch typ {
	case "ENUMERATION":
		w.print("(", strings.Join(enumeration, "|"), ")")
	case "NOTATION":
		w.print("NOTATION (", strings.Join(enumeration, "|"), ")")
	default:
		w.print(typ)
	}
	switch {
	case defaultType.Valid && defaultType.S != "#FIXED":
		w.print(" ", defaultType.S)
	case defaultType.Valid:
		w.print(" #FIXED ", quote(attrEscaper.Replace(defaultValue.S)))
	default:
		w.print(" ", quote(attrEscaper.Replace(defaultValue.S)))
	}
	w.print(">\n")
}

func (w *Writer) InternalEntityDecl(name, text, nonNormalizedText string) {
	value := nonNormalizedText
	if value == "" {
		value = escapeEntityValue(text)
	}
	w.print("<!ENTITY ", entityName(name), " ", quote(value), ">\n")
}

func (w *Writer) ExternalEntityDecl(name string, id ResourceIdentifier) {
	w.print("<!ENTITY ", entityName(name), " ")
	w.externalID(id, false)
	w.print(">\n")
}

func (w *Writer) UnparsedEntityDecl(name string, id ResourceIdentifier, notation string) {
	w.print("<!ENTITY ", entityName(name), " ")
	w.externalID(id, false)
	w.print(" NDATA ", notation, ">\n")
}

func (w *Writer) NotationDecl(name string, id ResourceIdentifier) {
	w.print("<!NOTATION ", name, " ")
	w.externalID(id, true)
	w.print(">\n")
}

// externalID prints a SYSTEM or PUBLIC identifier. Notations may omit the
// system literal after a public one.
func (w *Writer) externalID(id ResourceIdentifier, notation bool) {
	if id.PublicID.Valid {
		w.print("PUBLIC ", quote(id.PublicID.S))
		if id.SystemID.Valid || !notation {
			w.print(" ", quote(id.SystemID.S))
		}
		return
	}
	w.print("SYSTEM ", quote(id.SystemID.S))
}

func (w *Writer) Comment(text string) {
	w.print("<!--", text, "-->\n")
}

func (w *Writer) ProcessingInstruction(target, data string) {
	w.print("<?", target)
	if data != "" {
		w.print(" ", data)
	}
	w.print("?>\n")
}

func (w *Writer) StartConditional(typ ConditionalType) {
	w.print("<![", typ.String(), "[\n")
}

func (w *Writer) EndConditional() {
	w.print("]]>\n")
}

// entityName turns "%name" into "% name".
func entityName(name string) string {
	if pe, ok := strings.CutPrefix(name, "%"); ok {
		return "% " + pe
	}
	return name
}

var (
	attrEscaper = strings.NewReplacer(
		"&", "&#38;",
		"<", "&#60;",
		`"`, "&#34;",
		"\t", "&#9;",
		"\n", "&#10;",
		"\r", "&#13;",
	)
)

// escapeEntityValue writes replacement text as an entity value literal.
// General entity references stay as they are, since they are not expanded
// in entity values; any other '&' came from a character reference.
func escapeEntityValue(text string) string {
	if !strings.ContainsAny(text, `%&"`) {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); {
		switch text[i] {
		case '%':
			sb.WriteString("&#37;")
		case '"':
			sb.WriteString("&#34;")
		case '&':
			if _, n := scanReference(text[i:], '&'); n > 0 {
				sb.WriteString(text[i : i+n])
				i += n
				continue
			}
			sb.WriteString("&#38;")
		default:
			sb.WriteByte(text[i])
		}
		i++
	}
	return sb.String()
}

// quote wraps s in double quotes, or in apostrophes when s holds a
// double quote.
func quote(s string) string {
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
