package formats

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAML renders documents as a YAML sequence, shaped like the JSON output.
var YAML = &OutputFormat{
	Name:      "yaml",
	Extension: ".yaml",
	Render: func(w io.Writer, rows []Row) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(displayRows(rows)); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	mustRegister(YAML)
}
