package formats

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/docbind/types"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func sampleRows() []Row {
	return []Row{
		{Path: "books/a", Data: map[string]interface{}{"title": "Dune", "pages": int64(412)}},
		{Path: "books/b", Data: map[string]interface{}{
			"title":  "Emma",
			"author": types.DocRef{Path: "authors/austen"},
		}},
	}
}

func render(t *testing.T, f *OutputFormat, rows []Row) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Render(&buf, rows); err != nil {
		t.Fatalf("%s render: %v", f.Name, err)
	}
	return buf.String()
}

func TestPlainTextRender(t *testing.T) {
	want := "_path: books/a\n" +
		"pages: 412\n" +
		"title: Dune\n" +
		"---\n" +
		"_path: books/b\n" +
		"author: ref(authors/austen)\n" +
		"title: Emma\n"
	if diff := cmp.Diff(want, render(t, PlainText, sampleRows())); diff != "" {
		t.Errorf("plaintext mismatch (-want +got):\n%s", diff)
	}

	if got := render(t, PlainText, nil); got != "" {
		t.Errorf("no rows should render nothing, got %q", got)
	}
}

func TestMarkdownRender(t *testing.T) {
	want := "| _path | author | pages | title |\n" +
		"|---|---|---|---|\n" +
		"| books/a |  | 412 | Dune |\n" +
		"| books/b | ref(authors/austen) |  | Emma |\n"
	if diff := cmp.Diff(want, render(t, Markdown, sampleRows())); diff != "" {
		t.Errorf("markdown mismatch (-want +got):\n%s", diff)
	}

	rows := []Row{{Path: "notes/n", Data: map[string]interface{}{"body": "a|b\nc"}}}
	got := render(t, Markdown, rows)
	if !strings.Contains(got, `| a\|b c |`) {
		t.Errorf("cell not escaped: %q", got)
	}
}

func TestTableRender(t *testing.T) {
	out := render(t, Table, sampleRows())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := [][]string{
		{"PATH", "AUTHOR", "PAGES", "TITLE"},
		{"books/a", "-", "412", "Dune"},
		{"books/b", "ref(authors/austen)", "-", "Emma"},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i, line := range lines {
		if diff := cmp.Diff(want[i], strings.Fields(line)); diff != "" {
			t.Errorf("line %d mismatch (-want +got):\n%s", i, diff)
		}
	}

	// Columns line up
	if strings.Index(lines[0], "PAGES") != strings.Index(lines[1], "412") {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestJSONRender(t *testing.T) {
	rows := sampleRows()
	rows[0].Data["published"] = time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	rows[0].Data["tags"] = []interface{}{"desert", types.DocRef{Path: "tags/t1"}}

	var got []map[string]interface{}
	if err := json.Unmarshal([]byte(render(t, JSON, rows)), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := []map[string]interface{}{
		{
			"_path":     "books/a",
			"pages":     float64(412),
			"title":     "Dune",
			"published": "1965-08-01T00:00:00Z",
			"tags":      []interface{}{"desert", map[string]interface{}{"$ref": "tags/t1"}},
		},
		{
			"_path":  "books/b",
			"author": map[string]interface{}{"$ref": "authors/austen"},
			"title":  "Emma",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}

	// Rendering must not mutate the rows
	if _, ok := rows[0].Data["_path"]; ok {
		t.Error("render added _path to the source row")
	}

	if got := render(t, JSON, nil); strings.TrimSpace(got) != "[]" {
		t.Errorf("no rows should render an empty array, got %q", got)
	}
}

func TestYAMLRender(t *testing.T) {
	var got []map[string]interface{}
	if err := yaml.Unmarshal([]byte(render(t, YAML, sampleRows())), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	want := []map[string]interface{}{
		{"_path": "books/a", "pages": 412, "title": "Dune"},
		{"_path": "books/b", "author": map[string]interface{}{"$ref": "authors/austen"}, "title": "Emma"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("yaml mismatch (-want +got):\n%s", diff)
	}
}
