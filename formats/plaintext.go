package formats

import (
	"fmt"
	"io"
	"strings"
)

// documentSeparator divides documents in plain text output.
const documentSeparator = "---"

// PlainText format implementation
// Rendering: for each document a "_path: <path>" line followed by one
// "key: value" line per field, sorted by key. Documents are separated by
// a line holding ---.
//
// ParseFields reads the same "key: value" lines back into a document.
var PlainText = &OutputFormat{
	Name:      "plaintext",
	Extension: ".txt",
	Render: func(w io.Writer, rows []Row) error {
		var result strings.Builder
		for i, row := range rows {
			if i > 0 {
				result.WriteString(documentSeparator)
				result.WriteString("\n")
			}
			result.WriteString("_path: ")
			result.WriteString(row.Path)
			result.WriteString("\n")
			for _, key := range sortedKeys(row.Data) {
				result.WriteString(key)
				result.WriteString(": ")
				result.WriteString(formatValue(row.Data[key]))
				result.WriteString("\n")
			}
		}
		_, err := io.WriteString(w, result.String())
		return err
	},
}

// ParseFields parses "key: value" lines into document fields. Blank lines
// and lines starting with # are skipped. Values are typed by ParseValue.
func ParseFields(text string) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	for i, line := range strings.Split(text, "\n") {
		if isBlankLine(line) || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		colonIndex := strings.Index(line, ":")
		if colonIndex == -1 {
			return nil, fmt.Errorf("invalid field format at line %d: %q", i+1, line)
		}

		key := strings.TrimSpace(line[:colonIndex])
		value := strings.TrimSpace(line[colonIndex+1:])
		if key == "" {
			return nil, fmt.Errorf("empty field name at line %d", i+1)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate field %q at line %d", key, i+1)
		}
		fields[key] = ParseValue(value)
	}
	return fields, nil
}

func init() {
	mustRegister(PlainText)
}
