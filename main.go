package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/adammathes/dtdgrammar/pkg/doctor"
	"github.com/adammathes/dtdgrammar/pkg/grammar"
	"github.com/adammathes/dtdgrammar/pkg/pool"
	"github.com/adammathes/dtdgrammar/pkg/report"
	"github.com/adammathes/dtdgrammar/pkg/validate"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dtdgrammar <file.dtd>... [--json <output.json | ->] [--dump] [--write <out.dtd | ->] [--strict] [--external] [--verbose] [--repair [-o <out.dtd>]] [--version]")
	fmt.Fprintln(os.Stderr, "       dtdgrammar --repair [--output <out.dtd>] <file.dtd>")
	flag.PrintDefaults()
}

func main() {
	jsonOutput := flag.String("json", "", "write the JSON report to a file, or - for stdout")
	dump := flag.Bool("dump", false, "print the grammar tables to stdout")
	writeOutput := flag.String("write", "", "write the grammar back as DTD text to a file, or - for stdout")
	strict := flag.Bool("strict", false, "keep warnings that are downgraded to INFO by default")
	external := flag.Bool("external", false, "treat input as an external subset")
	verbose := flag.BoolP("verbose", "v", false, "list INFO messages and log debug records to stderr")
	repair := flag.Bool("repair", false, "repair the DTD and write a fixed copy")
	output := flag.StringP("output", "o", "", "output path for --repair (default <file>.fixed.dtd)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("dtdgrammar %s\n", version)
		os.Exit(0)
	}
	paths := flag.Args()
	if len(paths) == 0 {
		usage()
		os.Exit(2)
	}

	if *repair {
		os.Exit(repairAll(paths, *output))
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	p, err := pool.New(pool.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(2)
	}
	opts := validate.Options{
		Strict:   *strict,
		External: *external,
		Pool:     p,
		Logger:   logger,
	}

	all := report.NewReport()
	for _, path := range paths {
		g, r, err := validate.Load(path, opts)
		if err == nil {
			r.Merge(validate.CheckWithOptions(g, opts))
		}

		if len(paths) > 1 {
			fmt.Fprintf(os.Stderr, "%s:\n", path)
		}
		// Text output to stderr
		r.WriteText(os.Stderr, *verbose)
		all.Merge(r)

		if g == nil {
			continue
		}
		if *dump {
			if err := g.WriteText(os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing dump: %v\n", err)
				os.Exit(2)
			}
		}
		if *writeOutput != "" {
			if err := writeDTD(g, *writeOutput); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing DTD: %v\n", err)
				os.Exit(2)
			}
		}
	}

	if *jsonOutput != "" {
		if err := writeJSON(all, *jsonOutput); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(2)
		}
	}

	os.Exit(exitCode(all))
}

// exitCode maps a report to the process status: 0=valid, 1=errors, 2=fatal.
func exitCode(r *report.Report) int {
	if r.FatalCount() > 0 {
		return 2
	}
	if r.ErrorCount() > 0 {
		return 1
	}
	return 0
}

// repairAll repairs each path in turn and returns the worst exit code.
// An explicit output path only makes sense for a single input.
func repairAll(paths []string, output string) int {
	if output != "" && len(paths) > 1 {
		fmt.Fprintln(os.Stderr, "--output can only be used with a single input file")
		return 2
	}
	code := 0
	for _, path := range paths {
		if len(paths) > 1 {
			fmt.Fprintf(os.Stderr, "%s:\n", path)
		}
		code = max(code, runRepair(path, output))
	}
	return code
}

func runRepair(path, output string) int {
	result, err := doctor.Repair(path, output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		return 2
	}
	if len(result.Fixes) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to repair.")
		result.AfterReport.WriteText(os.Stderr, false)
		return exitCode(result.AfterReport)
	}
	for _, f := range result.Fixes {
		fmt.Fprintf(os.Stderr, "FIXED(%s): %s\n", f.CheckID, f.Description)
	}
	fmt.Fprintln(os.Stderr, "After repair:")
	result.AfterReport.WriteText(os.Stderr, false)
	return exitCode(result.AfterReport)
}

func writeDTD(g *grammar.Grammar, path string) error {
	return writeTo(path, g.WriteDTD)
}

func writeJSON(r *report.Report, path string) error {
	return writeTo(path, r.WriteJSON)
}

func writeTo(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}
