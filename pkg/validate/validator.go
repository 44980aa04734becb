package validate

import (
	"log/slog"

	"github.com/adammathes/dtdgrammar/pkg/dtd"
	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/pool"
	"github.com/adammathes/dtdgrammar/pkg/report"
)

// Options configures validation behavior.
type Options struct {
	// Strict keeps checks that flag legal but usually unintended
	// declarations at their full severity. Without it VC-007 (attributes
	// for an element type that is never declared) is reported as INFO.
	Strict bool

	// External treats the input as an external subset, so that every
	// declaration is flagged as external.
	External bool

	// Pool, when set, is consulted before a DTD is parsed and receives
	// every grammar built.
	Pool *pool.Pool

	// Logger receives debug records from the scanner and the builder.
	Logger *slog.Logger
}

// divergenceChecks are downgraded to INFO unless Options.Strict is set.
var divergenceChecks = map[string]bool{
	"VC-007": true,
}

// Validate builds a grammar from a DTD file, runs all checks on it and
// returns a report.
func Validate(path string) (*report.Report, error) {
	return ValidateWithOptions(path, Options{})
}

// ValidateWithOptions runs validation with the given options. An
// unreadable file is reported as a FATAL message, not as an error.
func ValidateWithOptions(path string, opts Options) (*report.Report, error) {
	// Phase 1: scan and build
	g, r, err := Load(path, opts)
	if err != nil {
		return r, nil
	}

	// Phase 2: declaration checks
	r.Merge(CheckWithOptions(g, opts))
	return r, nil
}

// ValidateBytes is ValidateWithOptions for a DTD held in memory.
func ValidateBytes(data []byte, systemID string, opts Options) *report.Report {
	g, r, err := LoadBytes(data, systemID, opts)
	if err != nil {
		return r
	}
	r.Merge(CheckWithOptions(g, opts))
	return r
}

// Load returns the grammar of the DTD at path together with the
// diagnostics its build produced. The returned error is non-nil only when
// the file could not be read or decoded; the report then holds the FATAL
// message.
func Load(path string, opts Options) (*grammar.Grammar, *report.Report, error) {
	return load(grammar.Description{SystemID: path, ExternalSubset: opts.External}, opts, func(h dtd.Handler, dopts dtd.Options) error {
		return dtd.ParseFile(path, h, dopts)
	})
}

// LoadBytes is Load for a DTD held in memory.
func LoadBytes(data []byte, systemID string, opts Options) (*grammar.Grammar, *report.Report, error) {
	return load(grammar.Description{SystemID: systemID, ExternalSubset: opts.External}, opts, func(h dtd.Handler, dopts dtd.Options) error {
		return dtd.ParseBytes(data, h, dopts)
	})
}

func load(desc grammar.Description, opts Options, parse func(dtd.Handler, dtd.Options) error) (*grammar.Grammar, *report.Report, error) {
	if opts.Pool != nil {
		if g, diags, ok := opts.Pool.Get(desc); ok {
			return g, &report.Report{Messages: diags}, nil
		}
	}

	r := report.NewReport()
	b := grammar.NewBuilder(grammar.Options{
		Description: desc,
		Report:      r,
		Logger:      opts.Logger,
	})
	err := parse(b, dtd.Options{
		SystemID: desc.SystemID,
		External: desc.ExternalSubset,
		Report:   r,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, r, err
	}

	g := b.Grammar()
	if opts.Pool != nil {
		opts.Pool.Put(g, r.Messages)
	}
	return g, r, nil
}

// Check runs every declaration check on a complete grammar.
func Check(g *grammar.Grammar) *report.Report {
	return CheckWithOptions(g, Options{})
}

// CheckWithOptions runs the declaration checks with the given options.
func CheckWithOptions(g *grammar.Grammar, opts Options) *report.Report {
	r := report.NewReport()
	location := g.Description().SystemID

	// Phase 1: attribute declarations per element type
	checkAttributes(g, r, location)

	// Phase 2: references between declarations
	checkReferences(g, r, location)

	if !opts.Strict {
		r.DowngradeToInfo(divergenceChecks)
	}
	return r
}
