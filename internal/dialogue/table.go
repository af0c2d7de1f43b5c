package dialogue

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/m3rciful/ledgerbot/internal/ledger"
)

// renderTable lays records out in aligned columns under the ledger header.
func renderTable(records []ledger.Record) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ReplaceAll(ledger.Header, ledger.Separator, "\t"))
	for _, r := range records {
		fmt.Fprintln(tw, strings.ReplaceAll(ledger.FormatRow(r), ledger.Separator, "\t"))
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func tail(records []ledger.Record, n int) []ledger.Record {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
