package cli

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WritePlainTable writes t as an uncolored ASCII table, for pipes and
// terminals without box-drawing support. Separator rows are skipped.
func WritePlainTable(w io.Writer, t Table) error {
	if t.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n", t.Title); err != nil {
			return err
		}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	table.Header(header...)

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			continue
		}
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}
	return table.Render()
}

// WriteTable writes t in the styled form, or plain when requested.
func WriteTable(w io.Writer, t Table, plain bool) error {
	if plain {
		return WritePlainTable(w, t)
	}
	_, err := io.WriteString(w, RenderTable(t))
	return err
}
