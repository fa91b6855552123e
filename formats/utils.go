package formats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/docbind/types"
)

// isBlankLine checks if a line contains only whitespace
func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

// refPrefix and refSuffix wrap a document path in text output.
const (
	refPrefix = "ref("
	refSuffix = ")"
)

// formatValue converts a value to its single-line text representation
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case time.Time:
		return v.Format(time.RFC3339)
	case types.DocRef:
		return refPrefix + v.Path + refSuffix
	case string:
		return v
	case []interface{}:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := sortedKeys(v)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseValue attempts to parse a string value into appropriate type.
// "ref(<path>)" becomes a document reference.
func ParseValue(s string) interface{} {
	if strings.HasPrefix(s, refPrefix) && strings.HasSuffix(s, refSuffix) {
		path := strings.TrimSuffix(strings.TrimPrefix(s, refPrefix), refSuffix)
		if ref, err := types.ParseDocRef(path); err == nil {
			return ref
		}
	}

	if s == "null" {
		return nil
	}

	// Try to parse as time
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}

	// Try to parse as int
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Try to parse as float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	// Only the literal words are booleans
	if s == "true" || s == "false" {
		return s == "true"
	}

	// Default to string
	return s
}

// displayValue converts stored values into plain data for JSON and YAML
// encoders: references become {"$ref": path} and times RFC 3339 strings.
func displayValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case types.DocRef:
		return map[string]interface{}{"$ref": v.Path}
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = displayValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = displayValue(e)
		}
		return out
	default:
		return v
	}
}

// displayRows turns rows into encoder-ready maps with the path under "_path".
func displayRows(rows []Row) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		doc := displayValue(r.Data).(map[string]interface{})
		doc["_path"] = r.Path
		out[i] = doc
	}
	return out
}

// columns returns the union of field names across rows, sorted.
func columns(rows []Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r.Data {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
