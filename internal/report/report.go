// Package report formats verification results for the terminal.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gpuverify"
)

// Result is the outcome of checking one input.
type Result struct {
	Source  string
	Kernels int
	Passed  bool
	Err     error // precondition or load failure; Passed is false
}

// Printer writes results and limit tables. Numbers are grouped according
// to the printer's language.
type Printer struct {
	w io.Writer
	p *message.Printer
}

// New returns a Printer for w using tag for number formatting.
func New(w io.Writer, tag language.Tag) *Printer {
	return &Printer{w: w, p: message.NewPrinter(tag)}
}

// Result writes one line for r.
func (pr *Printer) Result(r Result) {
	switch {
	case r.Err != nil:
		pr.p.Fprintf(pr.w, "ERROR %s: %v\n", r.Source, r.Err)
	case r.Passed:
		pr.p.Fprintf(pr.w, "PASS  %s (%d kernels)\n", r.Source, r.Kernels)
	default:
		pr.p.Fprintf(pr.w, "FAIL  %s (%d kernels)\n", r.Source, r.Kernels)
	}
}

// Summary writes the pass count over all results and reports whether all
// of them passed.
func (pr *Printer) Summary(results []Result) bool {
	passed := 0
	for _, r := range results {
		if r.Passed && r.Err == nil {
			passed++
		}
	}
	pr.p.Fprintf(pr.w, "%d of %d inputs passed\n", passed, len(results))
	return passed == len(results)
}

// Limits writes a two-column table of the resolved limits under a heading.
func (pr *Printer) Limits(heading string, c gpuverify.Constraints) error {
	l := gpuverify.ResolveLimits(c)
	rows := []struct {
		key string
		val int64
	}{
		{gpuverify.KeyMaxThreadPerBlock, l.MaxThreadPerBlock},
		{gpuverify.KeyMaxThreadX, l.MaxThreadX},
		{gpuverify.KeyMaxThreadY, l.MaxThreadY},
		{gpuverify.KeyMaxThreadZ, l.MaxThreadZ},
		{gpuverify.KeyMaxSharedMemoryPerBlock, l.MaxSharedMemoryPerBlock},
		{gpuverify.KeyMaxLocalMemoryPerBlock, l.MaxLocalMemoryPerBlock},
	}

	if _, err := fmt.Fprintln(pr.w, heading); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(pr.w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t\n", row.key, pr.Value(row.val))
	}
	return tw.Flush()
}

// Value formats a limit, printing "unbounded" for gpuverify.Unbounded.
func (pr *Printer) Value(v int64) string {
	if v == gpuverify.Unbounded {
		return "unbounded"
	}
	return pr.p.Sprintf("%d", v)
}
