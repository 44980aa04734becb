// Package pool caches built grammars so that a DTD shared by many
// documents is parsed once.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru"

	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/report"
)

// DefaultSize is the number of grammars kept when Options.Size is zero.
const DefaultSize = 64

// Key identifies a cached grammar.
type Key struct {
	PublicID string
	SystemID string

	// ExternalSubset separates the two ways one file can be read, since
	// they give different External flags.
	ExternalSubset bool
}

// KeyOf returns the cache key for a grammar description.
func KeyOf(desc grammar.Description) Key {
	return Key{PublicID: desc.PublicID, SystemID: desc.SystemID, ExternalSubset: desc.ExternalSubset}
}

// Options configures a Pool.
type Options struct {
	Size int

	// Logger receives debug records for evictions. Pass nil to disable
	// logging.
	Logger *slog.Logger
}

type entry struct {
	g     *grammar.Grammar
	diags []report.Message
}

// Pool is a fixed-size, least recently used cache of complete grammars
// together with the diagnostics their build produced. It is safe for
// concurrent use.
type Pool struct {
	cache *lru.Cache
}

// New returns an empty pool.
func New(opts Options) (*Pool, error) {
	size := opts.Size
	if size == 0 {
		size = DefaultSize
	}
	logger := opts.Logger
	cache, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		if logger == nil {
			return
		}
		k := key.(Key)
		logger.LogAttrs(context.Background(), slog.LevelDebug, "grammar evicted",
			slog.String("public_id", k.PublicID),
			slog.String("system_id", k.SystemID))
	})
	if err != nil {
		return nil, fmt.Errorf("creating grammar pool: %w", err)
	}
	return &Pool{cache: cache}, nil
}

// Put caches g under its description. Grammars still being built are not
// cached; Put reports whether g was stored.
func (p *Pool) Put(g *grammar.Grammar, diags []report.Message) bool {
	if g == nil || !g.Immutable() {
		return false
	}
	p.cache.Add(KeyOf(g.Description()), entry{g: g, diags: slices.Clone(diags)})
	return true
}

// Get returns the grammar cached for desc and a copy of its build
// diagnostics.
func (p *Pool) Get(desc grammar.Description) (*grammar.Grammar, []report.Message, bool) {
	v, ok := p.cache.Get(KeyOf(desc))
	if !ok {
		return nil, nil, false
	}
	e := v.(entry)
	return e.g, slices.Clone(e.diags), true
}

// Remove drops the grammar cached for desc and reports whether there
// was one.
func (p *Pool) Remove(desc grammar.Description) bool {
	key := KeyOf(desc)
	ok := p.cache.Contains(key)
	p.cache.Remove(key)
	return ok
}

// Len returns the number of cached grammars.
func (p *Pool) Len() int {
	return p.cache.Len()
}

// Purge empties the pool.
func (p *Pool) Purge() {
	p.cache.Purge()
}
