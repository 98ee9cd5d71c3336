package table

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Render writes page as a text table followed by its summary line.
func Render[T any](w io.Writer, v *View[T], page Page[T]) {
	cols := v.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
		if key, dir := v.Sort(); key == c.Key {
			if dir == Asc {
				header[i] += " ^"
			} else {
				header[i] += " v"
			}
		}
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	for _, rec := range page.Rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = v.Cell(c, rec)
		}
		tw.Append(row)
	}
	tw.Render()

	fmt.Fprintln(w, page.Summary())
	if page.TotalPages > 1 {
		fmt.Fprintf(w, "Page %d of %d\n", page.Index+1, page.TotalPages)
	}
}
