package formats

import (
	"encoding/json"
	"io"
)

// JSON renders documents as an indented JSON array. Each object carries
// its path under "_path"; references appear as {"$ref": path}.
var JSON = &OutputFormat{
	Name:      "json",
	Extension: ".json",
	Render: func(w io.Writer, rows []Row) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(displayRows(rows))
	},
}

func init() {
	mustRegister(JSON)
}
