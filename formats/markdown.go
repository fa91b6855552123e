package formats

import (
	"io"
	"strings"
)

// Markdown renders documents as a GitHub-flavored table: one row per
// document, one column per field seen in any document.
var Markdown = &OutputFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(w io.Writer, rows []Row) error {
		cols := columns(rows)

		var result strings.Builder
		result.WriteString("| _path |")
		for _, col := range cols {
			result.WriteString(" ")
			result.WriteString(escapeCell(col))
			result.WriteString(" |")
		}
		result.WriteString("\n|---|")
		for range cols {
			result.WriteString("---|")
		}
		result.WriteString("\n")

		for _, row := range rows {
			result.WriteString("| ")
			result.WriteString(escapeCell(row.Path))
			result.WriteString(" |")
			for _, col := range cols {
				result.WriteString(" ")
				if v, ok := row.Data[col]; ok {
					result.WriteString(escapeCell(formatValue(v)))
				}
				result.WriteString(" |")
			}
			result.WriteString("\n")
		}
		_, err := io.WriteString(w, result.String())
		return err
	},
}

// escapeCell keeps a value on one table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func init() {
	mustRegister(Markdown)
}
