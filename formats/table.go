package formats

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table renders documents as aligned columns for terminals.
var Table = &OutputFormat{
	Name:      "table",
	Extension: ".txt",
	Render: func(w io.Writer, rows []Row) error {
		cols := columns(rows)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

		header := append([]string{"PATH"}, upper(cols)...)
		if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
			return err
		}
		for _, row := range rows {
			cells := make([]string, 0, len(cols)+1)
			cells = append(cells, row.Path)
			for _, col := range cols {
				v, ok := row.Data[col]
				if !ok {
					cells = append(cells, "-")
					continue
				}
				cells = append(cells, formatValue(v))
			}
			if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
				return err
			}
		}
		return tw.Flush()
	},
}

func upper(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.ToUpper(c)
	}
	return out
}

func init() {
	mustRegister(Table)
}
