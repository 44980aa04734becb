package doctor

import (
	"os"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
	"github.com/adammathes/dtdgrammar/pkg/grammar"
)

// writeDTD replays g through a fixer into a new DTD file at path and
// returns the fixes applied on the way.
func writeDTD(path string, g *grammar.Grammar) ([]Fix, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w := dtd.NewWriter(f)
	fx := newFixer(g, w)
	g.Replay(fx)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return fx.fixes, f.Close()
}
