package eval

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Violations counts the violations across all results.
func Violations(results []CaseResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Violations)
	}
	return n
}

// WriteReport renders one line per case plus a totals footer. Failed stages
// are expected for offline runs and do not fail a case; violations do.
func WriteReport(w io.Writer, results []CaseResult) {
	for _, r := range results {
		marker := "ok  "
		if len(r.Violations) > 0 {
			marker = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-22s status=%-7s elapsed=%s",
			marker, r.Case.Name, r.OverallStatus, r.Elapsed.Round(time.Millisecond))
		if len(r.FailedStages) > 0 {
			fmt.Fprintf(w, " failed_stages=%s", strings.Join(r.FailedStages, ","))
		}
		fmt.Fprintln(w)
		for _, v := range r.Violations {
			fmt.Fprintf(w, "       violation: %s\n", v)
		}
	}
	fmt.Fprintf(w, "%d cases, %d violations\n", len(results), Violations(results))
}
