// Package formats renders query results for the docbind CLI and parses
// field values typed on the command line.
package formats

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Row is one document as printed: its full path and stored fields.
type Row struct {
	Path string
	Data map[string]interface{}
}

// OutputFormat defines how a list of documents is written out
type OutputFormat struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".txt", ".md")
	Extension string

	// Render writes rows to w
	Render func(w io.Writer, rows []Row) error
}

// registry holds all available output formats
var registry = make(map[string]*OutputFormat)

// Register adds a new output format to the registry
func Register(format *OutputFormat) error {
	// Validate format name (alphanumeric, dashes, underscores, lowercase)
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}
	if format.Render == nil {
		return fmt.Errorf("format %q has no renderer", format.Name)
	}

	// Normalize extension
	if !strings.HasPrefix(format.Extension, ".") {
		format.Extension = "." + format.Extension
	}

	// Check if format already exists
	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}

	registry[format.Name] = format
	return nil
}

// Get returns an output format by name
func Get(name string) (*OutputFormat, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return format, nil
}

// List returns all registered format names, sorted
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func mustRegister(format *OutputFormat) {
	if err := Register(format); err != nil {
		panic(fmt.Sprintf("failed to register %s format: %v", format.Name, err))
	}
}
