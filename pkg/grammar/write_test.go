package grammar

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
	"github.com/adammathes/dtdgrammar/pkg/report"
)

const sampleDTD = `<!ENTITY % inline "#PCDATA|em">
<!ENTITY copy "&#169;">
<!ENTITY chap PUBLIC "-//ACME//CHAPTER//EN" "chap.xml">
<!ENTITY logo SYSTEM "logo.gif" NDATA gif>
<!NOTATION gif PUBLIC "-//GIF//EN">
<!NOTATION png SYSTEM "image/png">
<!ATTLIST section id ID #REQUIRED>
<!ELEMENT book (title, section+)>
<!ELEMENT title (%inline;)*>
<!ELEMENT section ANY>
<!ELEMENT br EMPTY>
<!ATTLIST book
    lang    NMTOKEN            "en"
    refs    IDREFS             #IMPLIED
    status  (draft|final)      "draft"
    version CDATA              #FIXED "1 &amp; 2"
    img     NOTATION (gif|png) #IMPLIED
    tokens  NMTOKENS           "  a   b  ">
<!ATTLIST figure src ENTITY #REQUIRED>
`

func build(t *testing.T, src string) *Grammar {
	t.Helper()
	r := report.NewReport()
	b := NewBuilder(Options{Report: r})
	if err := dtd.ParseBytes([]byte(src), b, dtd.Options{SystemID: "sample.dtd", Report: r}); err != nil {
		t.Fatal(err)
	}
	if len(r.Messages) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.Messages)
	}
	return b.Grammar()
}

func TestBuildFromText(t *testing.T) {
	g := build(t, sampleDTD)

	if !g.Immutable() {
		t.Error("grammar should be complete")
	}
	if got := g.ElementIndex("section"); got != 0 {
		t.Errorf("section index = %d, want 0 (created by the forward reference)", got)
	}
	if got := g.ContentSpecType(g.ElementIndex("title")); got != ContentMixed {
		t.Errorf("title = %s, want MIXED", got)
	}
	if got := g.ContentSpecType(g.ElementIndex("figure")); got != ContentUndeclared {
		t.Errorf("figure = %s, want UNDECLARED", got)
	}

	book := g.ElementIndex("book")
	tokens, _ := g.AttributeDecl(g.AttributeIndex(book, "tokens"))
	if tokens.DefaultValue != "a b" || tokens.NonNormalizedDefaultValue != "  a   b  " {
		t.Errorf("tokens default = %q / %q", tokens.DefaultValue, tokens.NonNormalizedDefaultValue)
	}
	version, _ := g.AttributeDecl(g.AttributeIndex(book, "version"))
	if version.DefaultType != DefaultFixed || version.DefaultValue != "1 & 2" {
		t.Errorf("version = %+v", version)
	}
	status, _ := g.AttributeDecl(g.AttributeIndex(book, "status"))
	if status.Type != TypeEnumeration || !reflect.DeepEqual(status.Enumeration, []string{"draft", "final"}) {
		t.Errorf("status = %+v", status)
	}
	if g.IsCDATAAttribute("book", "lang") || !g.IsCDATAAttribute("book", "version") {
		t.Error("IsCDATAAttribute disagrees with declared types")
	}

	copyEnt, _ := g.EntityDecl(g.EntityIndex("copy"))
	if copyEnt.Value != "©" {
		t.Errorf("copy = %q", copyEnt.Value)
	}
	if _, ok := g.EntityDecl(g.EntityIndex("%inline")); !ok {
		t.Error("parameter entity not recorded")
	}
	if !g.IsEntityUnparsed("logo") {
		t.Error("logo should be unparsed")
	}
}

// snapshot captures the declared content of a grammar in a comparable form.
func snapshot(g *Grammar) map[string]any {
	type attr struct {
		Name, Type, Default string
		Enum                []string
		HasDefault          bool
		Value               string
	}
	elements := map[string]any{}
	for i, e := range g.Elements() {
		var attrs []attr
		for _, a := range g.Attributes(i) {
			attrs = append(attrs, attr{
				Name:       a.Name.Raw,
				Type:       a.Type.Keyword(a.List),
				Default:    a.DefaultType.String(),
				Enum:       a.Enumeration,
				HasDefault: a.HasDefault,
				Value:      a.DefaultValue,
			})
		}
		elements[e.Name.Raw] = []any{i, e.Type, e.ContentModelText, attrs}
	}
	var entities []EntityDecl
	for _, e := range g.Entities() {
		e.BaseSystemID = ""
		entities = append(entities, e)
	}
	notations := g.NotationDecls()
	for i := range notations {
		notations[i].BaseURI = ""
	}
	return map[string]any{"elements": elements, "entities": entities, "notations": notations}
}

func TestWriteDTDRoundTrip(t *testing.T) {
	g := build(t, sampleDTD)

	var buf bytes.Buffer
	if err := g.WriteDTD(&buf); err != nil {
		t.Fatal(err)
	}
	again := build(t, buf.String())

	want, got := snapshot(g), snapshot(again)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip changed the grammar\nDTD:\n%s\ngot  %v\nwant %v", buf.String(), got, want)
	}
}

func TestWriteDTDRoundTripEntityValues(t *testing.T) {
	src := `<!ENTITY lt-ref "&#38;#60;">
<!ENTITY amp-ref "&#38;amp; &lt;">
<!ENTITY percent "&#37;x; 100&#37;">
<!ENTITY quotes '&#34;a&#34; &#39;b&#39;'>
<!ENTITY bare "a &#38; b">
<!ELEMENT doc ANY>
`
	tests := map[string]string{
		"lt-ref":  "&#60;",
		"amp-ref": "&amp; &lt;",
		"percent": "%x; 100%",
		"quotes":  `"a" 'b'`,
		"bare":    "a & b",
	}

	g := build(t, src)
	var first bytes.Buffer
	if err := g.WriteDTD(&first); err != nil {
		t.Fatal(err)
	}
	again := build(t, first.String())
	var second bytes.Buffer
	if err := again.WriteDTD(&second); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("second generation differs\nfirst:\n%s\nsecond:\n%s", first.String(), second.String())
	}

	for name, want := range tests {
		e, ok := again.EntityDecl(again.EntityIndex(name))
		if !ok {
			t.Errorf("entity %s lost:\n%s", name, first.String())
			continue
		}
		if e.Value != want {
			t.Errorf("entity %s = %q after round trip, want %q", name, e.Value, want)
		}
	}
}

func TestReplayIntoBuilder(t *testing.T) {
	g := build(t, sampleDTD)
	b := NewBuilder(Options{})
	g.Replay(b)
	if !reflect.DeepEqual(snapshot(b.Grammar()), snapshot(g)) {
		t.Error("replayed grammar differs")
	}
	if !b.Grammar().Immutable() {
		t.Error("Replay should end the DTD")
	}
}

func TestWriteText(t *testing.T) {
	g := build(t, sampleDTD)
	var buf bytes.Buffer
	if err := g.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Grammar sample.dtd",
		"Elements: 5, Attributes: 8, Entities: 4, Notations: 2",
		"[1] book CHILDREN (title,section+)",
		"@tokens",
		`NMTOKENS "a b"`,
		"[4] figure UNDECLARED",
		"ENTITY logo unparsed gif",
		`NOTATION gif public="-//GIF//EN" system=""`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
