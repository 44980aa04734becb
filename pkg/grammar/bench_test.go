package grammar

import (
	"fmt"
	"testing"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
)

func benchBuild(n int) *Grammar {
	b := NewBuilder(Options{})
	b.StartDTD(nil)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("e%d", i)
		b.AttributeDecl(name, "id", "ID", nil, dtd.Some("#IMPLIED"), dtd.None, dtd.None)
		b.ElementDecl(name, "(#PCDATA)")
		b.AttributeDecl(name, "class", "NMTOKENS", nil, dtd.None, dtd.Some(" a  b "), dtd.Some(" a  b "))
	}
	b.EndDTD()
	return b.Grammar()
}

func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				benchBuild(n)
			}
		})
	}
}

func BenchmarkIsCDATAAttribute(b *testing.B) {
	g := benchBuild(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.IsCDATAAttribute("e500", "class")
	}
}

func BenchmarkAttributeWalk(b *testing.B) {
	g := benchBuild(1000)
	e := g.ElementIndex("e999")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for a := g.FirstAttributeIndex(e); a != -1; a = g.NextAttributeIndex(a) {
		}
	}
}
