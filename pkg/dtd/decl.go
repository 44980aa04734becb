package dtd

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// declLexer tokenizes the body of one markup declaration after parameter
// entity references outside literals have been replaced.
type declLexer struct {
	s   string
	pos int
}

// space skips white space and reports whether there was any.
func (l *declLexer) space() bool {
	start := l.pos
	for l.pos < len(l.s) && isSpace(l.s[l.pos]) {
		l.pos++
	}
	return l.pos > start
}

func (l *declLexer) done() bool {
	return l.pos >= len(l.s)
}

func (l *declLexer) peek() byte {
	if l.done() {
		return 0
	}
	return l.s[l.pos]
}

func (l *declLexer) consume(c byte) bool {
	if l.peek() != c {
		return false
	}
	l.pos++
	return true
}

// name reads a run of name characters. Names and name tokens are not
// told apart.
func (l *declLexer) name() string {
	start := l.pos
	for l.pos < len(l.s) {
		r, size := utf8.DecodeRuneInString(l.s[l.pos:])
		if !isNameChar(r) {
			break
		}
		l.pos += size
	}
	return l.s[start:l.pos]
}

// keyword consumes kw when it is the next whole name.
func (l *declLexer) keyword(kw string) bool {
	save := l.pos
	if l.name() == kw {
		return true
	}
	l.pos = save
	return false
}

// literal reads a quoted string and returns its content.
func (l *declLexer) literal() (string, bool) {
	q := l.peek()
	if q != '"' && q != '\'' {
		return "", false
	}
	end := strings.IndexByte(l.s[l.pos+1:], q)
	if end < 0 {
		return "", false
	}
	lit := l.s[l.pos+1 : l.pos+1+end]
	l.pos += end + 2
	return lit, true
}

// enumeration reads "(a|b|c)".
func (l *declLexer) enumeration() ([]string, bool) {
	if !l.consume('(') {
		return nil, false
	}
	end := strings.IndexByte(l.s[l.pos:], ')')
	if end < 0 {
		return nil, false
	}
	parts := strings.Split(l.s[l.pos:l.pos+end], "|")
	l.pos += end + 1
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, false
		}
		values = append(values, p)
	}
	return values, true
}

func (l *declLexer) rest() string {
	r := l.s[l.pos:]
	l.pos = len(l.s)
	return r
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == ':' || r >= 0x80 && !unicode.IsSpace(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}

// scanReference matches "<lead>name;" at the start of text and returns the
// name and the length of the reference, or 0 when there is none.
func scanReference(text string, lead byte) (string, int) {
	if len(text) < 3 || text[0] != lead {
		return "", 0
	}
	r, _ := utf8.DecodeRuneInString(text[1:])
	if !isNameStart(r) {
		return "", 0
	}
	l := &declLexer{s: text, pos: 1}
	name := l.name()
	if !l.consume(';') {
		return "", 0
	}
	return name, l.pos
}

// charRef decodes "&#N;" or "&#xH;" at the start of text.
func charRef(text string) (rune, int) {
	if !strings.HasPrefix(text, "&#") {
		return 0, 0
	}
	end := strings.IndexByte(text, ';')
	if end < 0 {
		return 0, 0
	}
	digits, base := text[2:end], 10
	if strings.HasPrefix(digits, "x") {
		digits, base = digits[1:], 16
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil || n == 0 || !utf8.ValidRune(rune(n)) {
		return 0, 0
	}
	return rune(n), end + 1
}

var predefined = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": `"`,
}

// expandPEs replaces parameter entity references outside literals with
// their replacement text padded by one space on each side.
func (s *scanner) expandPEs(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		if c == '"' || c == '\'' {
			j := strings.IndexByte(text[i+1:], c)
			if j < 0 {
				sb.WriteString(text[i:])
				break
			}
			sb.WriteString(text[i : i+j+2])
			i += j + 2
			continue
		}
		if c == '%' {
			if name, n := scanReference(text[i:], '%'); n > 0 {
				sb.WriteByte(' ')
				sb.WriteString(s.peText(name))
				sb.WriteByte(' ')
				i += n
				continue
			}
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// peText returns the replacement text of a parameter entity with the
// references it contains replaced in turn. Unusable references yield "".
func (s *scanner) peText(name string) string {
	ent, ok := s.lookupPE(name)
	if !ok {
		return ""
	}
	key := "%" + name
	s.expanding[key] = true
	defer delete(s.expanding, key)
	return s.expandPEs(ent.value)
}

// entityValue builds the replacement text of an entity value literal:
// parameter entity and character references are replaced, general entity
// references are kept as written.
func (s *scanner) entityValue(lit string) string {
	if !strings.ContainsAny(lit, "%&") {
		return lit
	}
	var sb strings.Builder
	for i := 0; i < len(lit); {
		switch lit[i] {
		case '%':
			if name, n := scanReference(lit[i:], '%'); n > 0 {
				if ent, ok := s.lookupPE(name); ok {
					sb.WriteString(ent.value)
				}
				i += n
				continue
			}
		case '&':
			if r, n := charRef(lit[i:]); n > 0 {
				sb.WriteRune(r)
				i += n
				continue
			}
		}
		sb.WriteByte(lit[i])
		i++
	}
	return sb.String()
}

// attrValue normalizes an attribute value literal: white space characters
// become spaces and character and entity references are replaced. It
// returns the normalized and the raw value.
func (s *scanner) attrValue(lit string) (Value, Value) {
	return Some(s.expandAttr(lit)), Some(lit)
}

func (s *scanner) expandAttr(text string) string {
	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch c {
		case '\t', '\n', '\r':
			sb.WriteByte(' ')
			i++
			continue
		case '<':
			s.malformed("'<' in attribute value %q", text)
		case '&':
			if r, n := charRef(text[i:]); n > 0 {
				sb.WriteRune(r)
				i += n
				continue
			}
			if name, n := scanReference(text[i:], '&'); n > 0 {
				sb.WriteString(s.generalText(name))
				i += n
				continue
			}
			s.malformed("malformed reference in attribute value %q", text)
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// generalText expands a general entity referenced from an attribute value.
func (s *scanner) generalText(name string) string {
	if v, ok := predefined[name]; ok {
		return v
	}
	ent, ok := s.gen[name]
	switch {
	case !ok:
		s.malformed("entity '%s' referenced in attribute value is not declared", name)
		return ""
	case ent.unparsed:
		s.malformed("unparsed entity '%s' referenced in attribute value", name)
		return ""
	case ent.external:
		s.malformed("external entity '%s' referenced in attribute value", name)
		return ""
	case s.expanding[name]:
		s.malformed("entity '%s' refers to itself", name)
		return ""
	}
	s.expanding[name] = true
	defer delete(s.expanding, name)
	return s.expandAttr(ent.value)
}

// define records the first declaration of an entity for later references.
func (s *scanner) define(pe bool, name string, ent entity) {
	table := s.gen
	if pe {
		table = s.pes
	}
	if _, ok := table[name]; !ok {
		table[name] = ent
	}
}

func (s *scanner) elementDecl(body string) {
	l := &declLexer{s: body}
	l.space()
	name := l.name()
	if name == "" || !l.space() {
		s.malformed("malformed element declaration")
		return
	}
	model := strings.Join(strings.Fields(l.rest()), "")
	if model == "" {
		s.malformed("element '%s' has no content model", name)
		return
	}
	s.h.ElementDecl(name, model)
}

func (s *scanner) attlistDecl(body string) {
	l := &declLexer{s: body}
	l.space()
	element := l.name()
	if element == "" {
		s.malformed("attribute-list declaration without an element name")
		return
	}
	for {
		l.space()
		if l.done() {
			return
		}
		if !s.attributeDef(l, element) {
			return
		}
	}
}

// attributeDef reads one attribute definition of an ATTLIST and delivers
// it. It returns false after reporting a syntax error.
func (s *scanner) attributeDef(l *declLexer, element string) bool {
	name := l.name()
	if name == "" || !l.space() {
		s.malformed("malformed attribute definition for element '%s'", element)
		return false
	}

	var typ string
	var enum []string
	ok := true
	if l.peek() == '(' {
		typ = "ENUMERATION"
		enum, ok = l.enumeration()
	} else {
		typ = l.name()
		if typ == "NOTATION" {
			l.space()
			enum, ok = l.enumeration()
		}
	}
	if typ == "" || !ok {
		s.malformed("malformed type for attribute '%s' of element '%s'", name, element)
		return false
	}
	l.space()

	defaultType, value, raw := None, None, None
	if l.consume('#') {
		kw := l.name()
		defaultType = Some("#" + kw)
		switch kw {
		case "REQUIRED", "IMPLIED":
		case "FIXED":
			l.space()
			lit, ok := l.literal()
			if !ok {
				s.malformed("#FIXED attribute '%s' of element '%s' has no value", name, element)
				return false
			}
			value, raw = s.attrValue(lit)
		default:
			s.malformed("unknown default #%s for attribute '%s' of element '%s'", kw, name, element)
			return false
		}
	} else {
		lit, ok := l.literal()
		if !ok {
			s.malformed("attribute '%s' of element '%s' has no default declaration", name, element)
			return false
		}
		value, raw = s.attrValue(lit)
	}

	s.h.AttributeDecl(element, name, typ, enum, defaultType, value, raw)
	return true
}

func (s *scanner) entityDecl(body string) {
	l := &declLexer{s: body}
	l.space()
	pe := false
	if l.peek() == '%' {
		l.pos++
		if !l.space() {
			s.malformed("malformed parameter entity declaration")
			return
		}
		pe = true
	}
	name := l.name()
	if name == "" || !l.space() {
		s.malformed("malformed entity declaration")
		return
	}
	declName := name
	if pe {
		declName = "%" + name
	}

	if q := l.peek(); q == '"' || q == '\'' {
		lit, ok := l.literal()
		if !ok {
			s.malformed("entity '%s' has an unterminated value", declName)
			return
		}
		if !s.atEnd(l, declName) {
			return
		}
		value := s.entityValue(lit)
		s.define(pe, name, entity{value: value})
		s.h.InternalEntityDecl(declName, value, lit)
		return
	}

	id, ok := s.externalID(l, false)
	if !ok {
		s.malformed("entity '%s' has neither a value nor an external identifier", declName)
		return
	}
	l.space()
	if !pe && l.keyword("NDATA") {
		l.space()
		notation := l.name()
		if notation == "" {
			s.malformed("entity '%s' has NDATA without a notation name", declName)
			return
		}
		if !s.atEnd(l, declName) {
			return
		}
		s.define(false, name, entity{external: true, unparsed: true})
		s.h.UnparsedEntityDecl(name, id, notation)
		return
	}
	if !s.atEnd(l, declName) {
		return
	}
	s.define(pe, name, entity{external: true})
	s.h.ExternalEntityDecl(declName, id)
}

func (s *scanner) notationDecl(body string) {
	l := &declLexer{s: body}
	l.space()
	name := l.name()
	if name == "" || !l.space() {
		s.malformed("malformed notation declaration")
		return
	}
	id, ok := s.externalID(l, true)
	if !ok {
		s.malformed("notation '%s' has no external identifier", name)
		return
	}
	if !s.atEnd(l, name) {
		return
	}
	s.h.NotationDecl(name, id)
}

// externalID reads SYSTEM "sys" or PUBLIC "pub" "sys". The system literal
// is optional after a public one when notation is set.
func (s *scanner) externalID(l *declLexer, notation bool) (ResourceIdentifier, bool) {
	id := ResourceIdentifier{BaseSystemID: s.opts.SystemID}
	switch {
	case l.keyword("SYSTEM"):
		l.space()
		sys, ok := l.literal()
		if !ok {
			return id, false
		}
		id.SystemID = Some(sys)
	case l.keyword("PUBLIC"):
		l.space()
		pub, ok := l.literal()
		if !ok {
			return id, false
		}
		id.PublicID = Some(strings.Join(strings.Fields(pub), " "))
		l.space()
		if sys, ok := l.literal(); ok {
			id.SystemID = Some(sys)
		} else if !notation {
			return id, false
		}
	default:
		return id, false
	}
	return id, true
}

// atEnd reports trailing text after a complete declaration.
func (s *scanner) atEnd(l *declLexer, name string) bool {
	l.space()
	if l.done() {
		return true
	}
	s.malformed("unexpected text %q in declaration of '%s'", excerpt(l.rest()), name)
	return false
}
