package dtd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/adammathes/dtdgrammar/pkg/report"
)

// Options configures Parse.
type Options struct {
	// SystemID names the input in diagnostic locations and becomes the
	// base system ID of the entities and notations it declares.
	SystemID string

	// External marks the input as an external subset; its events are
	// bracketed by StartExternalSubset and EndExternalSubset.
	External bool

	// Report receives diagnostics. Diagnostics are dropped when nil.
	Report report.Sink

	// Logger receives debug records. Pass nil to disable logging.
	Logger *slog.Logger
}

// maxEntityDepth bounds nested parameter entity inclusion.
const maxEntityDepth = 32

// ParseFile parses the DTD stored at path. The path is used as the system
// ID unless opts names one.
func ParseFile(path string, h Handler, opts Options) error {
	if opts.SystemID == "" {
		opts.SystemID = path
	}
	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("opening DTD: %w", err)
		emit(opts.Report, report.Fatal, "DTD-013", err.Error(), path)
		return err
	}
	defer f.Close()
	return Parse(f, h, opts)
}

// Parse reads a DTD from r and delivers its declarations to h in document
// order. Malformed markup is reported and skipped; the returned error is
// non-nil only when the input cannot be read or decoded, in which case h
// receives no events.
func Parse(r io.Reader, h Handler, opts Options) error {
	data, err := io.ReadAll(r)
	if err != nil {
		err = fmt.Errorf("reading DTD: %w", err)
		emit(opts.Report, report.Fatal, "DTD-013", err.Error(), opts.SystemID)
		return err
	}
	return ParseBytes(data, h, opts)
}

// ParseBytes is Parse for an in-memory DTD.
func ParseBytes(data []byte, h Handler, opts Options) error {
	text, err := decode(data)
	if err != nil {
		emit(opts.Report, report.Fatal, "DTD-013", err.Error(), opts.SystemID)
		return fmt.Errorf("decoding %s: %w", opts.SystemID, err)
	}
	newScanner(text, h, opts).scan()
	return nil
}

func emit(sink report.Sink, sev report.Severity, checkID, msg, location string) {
	if sink != nil {
		sink.AddWithLocation(sev, checkID, msg, location)
	}
}

// frame is one source of markup: the document itself or the replacement
// text of a parameter entity referenced between declarations.
type frame struct {
	name string
	text string
	pos  int
}

type entity struct {
	value    string
	external bool
	unparsed bool
}

type scanner struct {
	h      Handler
	opts   Options
	logger *slog.Logger

	frames []*frame
	pes    map[string]entity
	gen    map[string]entity

	// expanding holds the entities currently being substituted.
	expanding map[string]bool

	conditionals int

	// line and col locate the current declaration in the document. They
	// are advanced incrementally up to markPos.
	line, col int
	markPos   int
}

func newScanner(text string, h Handler, opts Options) *scanner {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With(slog.String("component", "scanner"))
	}
	return &scanner{
		h:         h,
		opts:      opts,
		logger:    logger,
		frames:    []*frame{{text: text}},
		pes:       make(map[string]entity),
		gen:       make(map[string]entity),
		expanding: make(map[string]bool),
		line:      1,
		col:       1,
	}
}

// SystemID, Line and Column make the scanner the Locator handed to
// StartDTD.
func (s *scanner) SystemID() string { return s.opts.SystemID }
func (s *scanner) Line() int        { return s.line }
func (s *scanner) Column() int      { return s.col }

func (s *scanner) log(msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (s *scanner) report(sev report.Severity, checkID, msg string) {
	emit(s.opts.Report, sev, checkID, msg, fmt.Sprintf("%s:%d:%d", s.opts.SystemID, s.line, s.col))
}

func (s *scanner) malformed(format string, args ...any) {
	s.report(report.Error, "DTD-011", fmt.Sprintf(format, args...))
}

// mark moves the location to the current position of the document frame.
// Positions inside parameter entities are reported at the reference.
func (s *scanner) mark() {
	if len(s.frames) != 1 {
		return
	}
	doc := s.frames[0]
	for _, r := range doc.text[s.markPos:doc.pos] {
		if r == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}
	s.markPos = doc.pos
}

func (s *scanner) scan() {
	s.h.StartDTD(s)
	if s.opts.External {
		s.h.StartExternalSubset(ResourceIdentifier{
			SystemID:     Some(s.opts.SystemID),
			BaseSystemID: s.opts.SystemID,
		})
	}
	s.run()
	if s.opts.External {
		s.h.EndExternalSubset()
	}
	s.h.EndDTD()
	s.log("scan complete",
		slog.String("system_id", s.opts.SystemID),
		slog.Int("parameter_entities", len(s.pes)),
		slog.Int("general_entities", len(s.gen)))
}

func (s *scanner) run() {
	for {
		f := s.skipSpace()
		if f == nil {
			break
		}
		s.mark()
		rest := f.text[f.pos:]
		switch {
		case rest[0] == '%':
			s.topLevelReference(f)
		case strings.HasPrefix(rest, "<!--"):
			s.comment(f)
		case strings.HasPrefix(rest, "<?"):
			s.processingInstruction(f)
		case strings.HasPrefix(rest, "<!["):
			s.conditional(f)
		case strings.HasPrefix(rest, "<!"):
			s.markupDecl(f)
		case strings.HasPrefix(rest, "]]>") && s.conditionals > 0:
			f.pos += len("]]>")
			s.conditionals--
			s.h.EndConditional()
		default:
			s.malformed("unexpected text %q outside markup", excerpt(rest))
			f.pos++
			s.skipTo(f, '<')
		}
	}
	if s.conditionals > 0 {
		s.malformed("%d conditional section(s) not terminated", s.conditionals)
		for ; s.conditionals > 0; s.conditionals-- {
			s.h.EndConditional()
		}
	}
}

// skipSpace skips white space, closing parameter entities whose text is
// used up, and returns the frame holding the next character. It returns
// nil at the end of the document.
func (s *scanner) skipSpace() *frame {
	for {
		f := s.frames[len(s.frames)-1]
		for f.pos < len(f.text) && isSpace(f.text[f.pos]) {
			f.pos++
		}
		if f.pos < len(f.text) {
			return f
		}
		if len(s.frames) == 1 {
			return nil
		}
		s.frames = s.frames[:len(s.frames)-1]
		delete(s.expanding, f.name)
		s.h.EndParameterEntity(f.name)
	}
}

func (s *scanner) skipPast(f *frame, c byte) {
	if i := strings.IndexByte(f.text[f.pos:], c); i >= 0 {
		f.pos += i + 1
		return
	}
	f.pos = len(f.text)
}

// skipTo moves to the next c without consuming it.
func (s *scanner) skipTo(f *frame, c byte) {
	if i := strings.IndexByte(f.text[f.pos:], c); i >= 0 {
		f.pos += i
		return
	}
	f.pos = len(f.text)
}

func excerpt(s string) string {
	if i := strings.IndexAny(s, "\n>"); i >= 0 {
		s = s[:i]
	}
	if len(s) > 20 {
		s = s[:20]
	}
	return s
}

// topLevelReference includes a parameter entity referenced between
// declarations by pushing its replacement text as a new frame.
func (s *scanner) topLevelReference(f *frame) {
	name, n := scanReference(f.text[f.pos:], '%')
	if n == 0 {
		s.malformed("malformed parameter entity reference %q", excerpt(f.text[f.pos:]))
		s.skipPast(f, ';')
		return
	}
	f.pos += n
	ent, ok := s.lookupPE(name)
	if !ok {
		return
	}
	if len(s.frames) > maxEntityDepth {
		s.malformed("parameter entity '%%%s' nested more than %d deep", name, maxEntityDepth)
		return
	}
	key := "%" + name
	s.expanding[key] = true
	s.frames = append(s.frames, &frame{name: key, text: ent.value})
	s.log("parameter entity included", slog.String("name", key), slog.Int("depth", len(s.frames)-1))
	s.h.StartParameterEntity(key, ResourceIdentifier{BaseSystemID: s.opts.SystemID}, "")
}

// lookupPE returns an internal parameter entity that may be substituted,
// reporting undeclared, external and recursive references.
func (s *scanner) lookupPE(name string) (entity, bool) {
	ent, ok := s.pes[name]
	switch {
	case !ok:
		s.report(report.Error, "DTD-012", fmt.Sprintf("parameter entity '%%%s' is not declared", name))
		return entity{}, false
	case ent.external:
		s.report(report.Warning, "DTD-010", fmt.Sprintf("external parameter entity '%%%s' was not loaded", name))
		return entity{}, false
	case s.expanding["%"+name]:
		s.malformed("parameter entity '%%%s' refers to itself", name)
		return entity{}, false
	}
	return ent, true
}

func (s *scanner) comment(f *frame) {
	start := f.pos + len("<!--")
	end := strings.Index(f.text[start:], "-->")
	if end < 0 {
		s.malformed("comment not terminated")
		f.pos = len(f.text)
		return
	}
	s.h.Comment(f.text[start : start+end])
	f.pos = start + end + len("-->")
}

var (
	versionRe  = regexp.MustCompile(`version\s*=\s*["']([^"']*)["']`)
	encodingRe = regexp.MustCompile(`encoding\s*=\s*["']([^"']*)["']`)
)

func (s *scanner) processingInstruction(f *frame) {
	start := f.pos
	end := strings.Index(f.text[start+2:], "?>")
	if end < 0 {
		s.malformed("processing instruction not terminated")
		f.pos = len(f.text)
		return
	}
	content := f.text[start+2 : start+2+end]
	f.pos = start + 2 + end + len("?>")

	target, data, _ := strings.Cut(content, " ")
	if i := strings.IndexAny(target, "\t\n"); i >= 0 {
		target, data = target[:i], content[i+1:]
	}
	data = strings.TrimLeft(data, " \t\n")
	if target == "" {
		s.malformed("processing instruction without a target")
		return
	}
	if !strings.EqualFold(target, "xml") {
		s.h.ProcessingInstruction(target, data)
		return
	}
	if start != 0 || len(s.frames) != 1 {
		s.malformed("text declaration is only allowed at the start of the input")
		return
	}
	var version, enc string
	if m := versionRe.FindStringSubmatch(data); m != nil {
		version = m[1]
	}
	if m := encodingRe.FindStringSubmatch(data); m != nil {
		enc = m[1]
	}
	s.h.TextDecl(version, enc)
}

func (s *scanner) conditional(f *frame) {
	f.pos += len("<![")
	l := &declLexer{s: f.text, pos: f.pos}
	l.space()
	var keyword string
	if l.peek() == '%' {
		name, n := scanReference(l.s[l.pos:], '%')
		if n == 0 {
			s.malformed("malformed conditional section keyword")
			s.skipPast(f, '[')
			return
		}
		l.pos += n
		keyword = strings.TrimSpace(s.peText(name))
	} else {
		keyword = l.name()
	}
	l.space()
	if !l.consume('[') {
		s.malformed("conditional section keyword %q not followed by '['", keyword)
		f.pos = l.pos
		s.skipPast(f, '[')
		return
	}
	f.pos = l.pos

	switch keyword {
	case "INCLUDE":
		s.conditionals++
		s.h.StartConditional(Include)
	case "IGNORE":
		s.h.StartConditional(Ignore)
		s.skipIgnored(f)
		s.h.EndConditional()
	default:
		s.malformed("unknown conditional section keyword %q", keyword)
		s.skipIgnored(f)
	}
}

// skipIgnored moves past the end of an ignored section, honouring nested
// sections.
func (s *scanner) skipIgnored(f *frame) {
	start := f.pos
	depth := 1
	for f.pos < len(f.text) {
		switch rest := f.text[f.pos:]; {
		case strings.HasPrefix(rest, "<!["):
			depth++
			f.pos += len("<![")
		case strings.HasPrefix(rest, "]]>"):
			depth--
			f.pos += len("]]>")
			if depth == 0 {
				s.log("ignored section skipped", slog.Int("bytes", f.pos-start))
				return
			}
		default:
			f.pos++
		}
	}
	s.malformed("ignored section not terminated")
}

// markupDecl reads one <!KEYWORD ...> declaration and dispatches it.
func (s *scanner) markupDecl(f *frame) {
	start := f.pos + len("<!")
	i := start
	for i < len(f.text) && f.text[i] != '>' {
		if q := f.text[i]; q == '"' || q == '\'' {
			j := strings.IndexByte(f.text[i+1:], q)
			if j < 0 {
				i = len(f.text)
				break
			}
			i += j + 1
		}
		i++
	}
	if i >= len(f.text) {
		s.malformed("markup declaration not terminated")
		f.pos = len(f.text)
		return
	}
	body := f.text[start:i]
	f.pos = i + 1

	n := 0
	for n < len(body) && body[n] >= 'A' && body[n] <= 'Z' {
		n++
	}
	keyword, rest := body[:n], s.expandPEs(body[n:])
	if rest != "" && !isSpace(rest[0]) {
		s.malformed("unknown markup declaration <!%s", excerpt(body))
		return
	}
	switch keyword {
	case "ELEMENT":
		s.elementDecl(rest)
	case "ATTLIST":
		s.attlistDecl(rest)
	case "ENTITY":
		s.entityDecl(rest)
	case "NOTATION":
		s.notationDecl(rest)
	default:
		s.malformed("unknown markup declaration <!%s", excerpt(body))
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
