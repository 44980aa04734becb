package report

import (
	"fmt"
	"io"
)

// WriteText writes human-readable output to w. INFO messages are only
// listed when verbose is set.
func (r *Report) WriteText(w io.Writer, verbose bool) {
	for _, m := range r.Messages {
		if m.Severity == Info && !verbose {
			continue
		}
		fmt.Fprintln(w, m.String())
	}
	if r.IsValid() && r.WarningCount() == 0 {
		fmt.Fprintln(w, "No errors or warnings detected.")
	} else {
		fmt.Fprintf(w, "Check finished. Errors: %d, Warnings: %d, Fatal: %d\n",
			r.ErrorCount(), r.WarningCount(), r.FatalCount())
	}
}
