package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"opengeo/internal/batch"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatNoData(v *float64) string {
	if v == nil {
		return "none"
	}
	return formatFloat(*v)
}

// printBatch lists every item with its status and returns an error when any
// item failed.
func printBatch(w io.Writer, results []batch.Result[string]) error {
	tw := newTable(w)
	if _, err := fmt.Fprintln(tw, "input\tstatus"); err != nil {
		return err
	}
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "failed: " + r.Err.Error()
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r.Item, status); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed := batch.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d items failed", len(failed), len(results))
	}
	return nil
}
