package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/docbind/types"
	"github.com/google/go-cmp/cmp"
)

// isolate keeps user config files and DOCBIND_* variables out of a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCBIND_CONFIG", "")
}

// runCLI executes one command line and returns what it printed.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cli := NewCLI(strings.NewReader(stdin), &out, &errOut)
	cli.rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cli.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("docbind %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decodeJSON(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var docs []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	return docs
}

func docPaths(t *testing.T, out string) []string {
	t.Helper()
	var paths []string
	for _, doc := range decodeJSON(t, out) {
		paths = append(paths, doc["_path"].(string))
	}
	return paths
}

func seedBooks(t *testing.T, dataFile string) {
	t.Helper()
	mustRun(t, "-p", dataFile, "put", "books/dune",
		"--set", "title=Dune", "--set", "pages=412", "--set", "genre=scifi",
		"--set", "tags=desert", "--set", "author=ref(authors/herbert)")
	mustRun(t, "-p", dataFile, "put", "books/emma",
		"--set", "title=Emma", "--set", "pages=474", "--set", "genre=classic")
	mustRun(t, "-p", dataFile, "put", "books/messiah",
		"--set", "title=Dune Messiah", "--set", "pages=256", "--set", "genre=scifi")
}

func TestPutAndGet(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")

	out := mustRun(t, "-p", dataFile, "-f", "json", "put", "books/dune",
		"--set", "title=Dune", "--set", "pages=412", "--set", "author=ref(authors/herbert)")
	want := []map[string]interface{}{{
		"_path":  "books/dune",
		"title":  "Dune",
		"pages":  float64(412),
		"author": map[string]interface{}{"$ref": "authors/herbert"},
	}}
	if diff := cmp.Diff(want, decodeJSON(t, out)); diff != "" {
		t.Errorf("put output mismatch (-want +got):\n%s", diff)
	}

	// A fresh process sees the persisted document
	out = mustRun(t, "-p", dataFile, "-f", "plaintext", "get", "books/dune")
	wantText := "_path: books/dune\n" +
		"author: ref(authors/herbert)\n" +
		"pages: 412\n" +
		"title: Dune\n"
	if diff := cmp.Diff(wantText, out); diff != "" {
		t.Errorf("get output mismatch (-want +got):\n%s", diff)
	}
}

func TestPutMerge(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")
	mustRun(t, "-p", dataFile, "put", "books/dune", "--set", "title=Dune", "--set", "pages=412")

	out := mustRun(t, "-p", dataFile, "-f", "json", "put", "books/dune", "--merge", "--set", "pages=500")
	got := decodeJSON(t, out)[0]
	if got["title"] != "Dune" || got["pages"] != float64(500) {
		t.Errorf("merge should keep title and update pages, got %v", got)
	}

	out = mustRun(t, "-p", dataFile, "-f", "json", "put", "books/dune", "--set", "pages=1")
	got = decodeJSON(t, out)[0]
	if _, ok := got["title"]; ok {
		t.Errorf("replace should drop title, got %v", got)
	}
}

func TestAdd(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")

	out := mustRun(t, "-p", dataFile, "-f", "json", "add", "authors/herbert/awards",
		"--set", "name=Hugo Award", "--set", "year=1966")
	docs := decodeJSON(t, out)
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	path := docs[0]["_path"].(string)
	if !strings.HasPrefix(path, "authors/herbert/awards/") || len(path) == len("authors/herbert/awards/") {
		t.Errorf("unexpected generated path %q", path)
	}

	out = mustRun(t, "-p", dataFile, "-f", "json", "query", "authors/herbert/awards")
	if diff := cmp.Diff([]string{path}, docPaths(t, out)); diff != "" {
		t.Errorf("query after add mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsFromStdin(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")

	stdin := "title: Persuasion\npages: 249\n"
	out, err := runCLI(t, stdin, "-p", dataFile, "-f", "json", "put", "books/persuasion",
		"--file", "-", "--set", "genre=classic")
	if err != nil {
		t.Fatalf("put from stdin: %v", err)
	}
	want := []map[string]interface{}{{
		"_path": "books/persuasion",
		"title": "Persuasion",
		"pages": float64(249),
		"genre": "classic",
	}}
	if diff := cmp.Diff(want, decodeJSON(t, out)); diff != "" {
		t.Errorf("put output mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")
	seedBooks(t, dataFile)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "no constraints orders by id",
			args: nil,
			want: []string{"books/dune", "books/emma", "books/messiah"},
		},
		{
			name: "equality with descending order",
			args: []string{"--where", "genre:==:scifi", "--order", "pages:desc"},
			want: []string{"books/dune", "books/messiah"},
		},
		{
			name: "in with limit",
			args: []string{"--where", "genre:in:classic,scifi", "--order", "pages", "--limit", "2"},
			want: []string{"books/messiah", "books/dune"},
		},
		{
			name: "range",
			args: []string{"--where", "pages:>=:412"},
			want: []string{"books/dune", "books/emma"},
		},
		{
			name: "array contains on a scalar field",
			args: []string{"--where", "tags:array-contains:desert"},
			want: nil,
		},
		{
			name: "missing field excluded",
			args: []string{"--where", "author:!=:null"},
			want: []string{"books/dune"},
		},
		{
			name: "last",
			args: []string{"--order", "pages", "--last", "1"},
			want: []string{"books/emma"},
		},
		{
			name: "after",
			args: []string{"--order", "pages", "--after", "messiah"},
			want: []string{"books/dune", "books/emma"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-p", dataFile, "-f", "json", "query", "books"}, tt.args...)
			out := mustRun(t, args...)
			if diff := cmp.Diff(tt.want, docPaths(t, out)); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTableOutput(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")
	seedBooks(t, dataFile)

	out := mustRun(t, "-p", dataFile, "query", "books", "--where", "genre:==:classic")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got:\n%s", out)
	}
	if diff := cmp.Diff([]string{"PATH", "GENRE", "PAGES", "TITLE"}, strings.Fields(lines[0])); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"books/emma", "classic", "474", "Emma"}, strings.Fields(lines[1])); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandErrors(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")
	seedBooks(t, dataFile)

	tests := []struct {
		name    string
		args    []string
		msg     string
		wantErr error
	}{
		{
			name:    "missing document",
			args:    []string{"get", "books/nope"},
			msg:     `Failed to get document: document "books/nope" not found`,
			wantErr: types.ErrNotFound,
		},
		{
			name: "collection path for get",
			args: []string{"get", "books"},
			msg:  `invalid document path: "books"`,
		},
		{
			name: "document path for query",
			args: []string{"query", "books/dune"},
			msg:  `invalid collection path: "books/dune"`,
		},
		{
			name: "malformed filter",
			args: []string{"query", "books", "--where", "genre"},
			msg:  "expected field:operator:value",
		},
		{
			name: "unknown operator",
			args: []string{"query", "books", "--where", "genre:like:sci"},
			msg:  "unknown operator like",
		},
		{
			name:    "last without order",
			args:    []string{"query", "books", "--last", "1"},
			msg:     "limit to last requires an order",
			wantErr: types.ErrInvalidQuery,
		},
		{
			name: "limit and last",
			args: []string{"query", "books", "--order", "pages", "--limit", "1", "--last", "1"},
			msg:  "--limit and --last cannot be combined",
		},
		{
			name:    "after missing document",
			args:    []string{"query", "books", "--after", "nope"},
			msg:     `document "books/nope" not found`,
			wantErr: types.ErrNotFound,
		},
		{
			name: "no fields",
			args: []string{"put", "books/x"},
			msg:  "no fields given",
		},
		{
			name: "bad assignment",
			args: []string{"put", "books/x", "--set", "title"},
			msg:  `invalid assignment: "title"`,
		},
		{
			name: "reserved field",
			args: []string{"put", "books/x", "--set", "_id=1"},
			msg:  "reserved",
		},
		{
			name: "unknown format",
			args: []string{"-f", "csv", "get", "books/dune"},
			msg:  `invalid format: "csv"`,
		},
		{
			name: "unknown driver",
			args: []string{"--driver", "sqlite", "get", "books/dune"},
			msg:  `unknown store driver "sqlite"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-p", dataFile}, tt.args...)
			_, err := runCLI(t, "", args...)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.msg)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected error containing %q, got %q", tt.msg, err.Error())
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error matching %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigSources(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		isolate(t)
		dataFile := filepath.Join(t.TempDir(), "env.json")
		t.Setenv("DOCBIND_STORE_PATH", dataFile)

		mustRun(t, "put", "books/dune", "--set", "title=Dune")
		if _, err := os.Stat(dataFile); err != nil {
			t.Fatalf("DOCBIND_STORE_PATH not used: %v", err)
		}
	})

	t.Run("config file", func(t *testing.T) {
		isolate(t)
		dir := t.TempDir()
		dataFile := filepath.Join(dir, "from-config.json")
		configFile := filepath.Join(dir, "docbind.yaml")
		content := "store:\n  driver: json\n  path: " + dataFile + "\nformat: json\n"
		if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("DOCBIND_CONFIG", configFile)

		out := mustRun(t, "put", "books/dune", "--set", "title=Dune")
		if _, err := os.Stat(dataFile); err != nil {
			t.Fatalf("store.path from config not used: %v", err)
		}
		if diff := cmp.Diff([]string{"books/dune"}, docPaths(t, out)); diff != "" {
			t.Errorf("format from config not used (-want +got):\n%s", diff)
		}
	})

	t.Run("flags override config file", func(t *testing.T) {
		isolate(t)
		dir := t.TempDir()
		configFile := filepath.Join(dir, "docbind.yaml")
		content := "store:\n  driver: json\n  path: " + filepath.Join(dir, "config.json") + "\n"
		if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("DOCBIND_CONFIG", configFile)

		mustRun(t, "--driver", "memory", "put", "books/dune", "--set", "title=Dune")
		if _, err := os.Stat(filepath.Join(dir, "config.json")); !os.IsNotExist(err) {
			t.Errorf("memory driver should not write the config path, stat err = %v", err)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		isolate(t)
		t.Setenv("DOCBIND_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := runCLI(t, "", "--driver", "memory", "query", "books")
		if err == nil || !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

func TestSearch(t *testing.T) {
	isolate(t)
	dataFile := filepath.Join(t.TempDir(), "data.json")
	seedBooks(t, dataFile)

	out := mustRun(t, "-p", dataFile, "-f", "json", "search", "books", "dune", "--field", "title", "--highlight")
	docs := decodeJSON(t, out)
	if len(docs) != 2 {
		t.Fatalf("expected 2 results, got %d:\n%s", len(docs), out)
	}
	if docs[0]["_path"] != "books/dune" || docs[1]["_path"] != "books/messiah" {
		t.Errorf("exact title match should rank first, got %v then %v", docs[0]["_path"], docs[1]["_path"])
	}
	if docs[1]["title"] != "**Dune** Messiah" {
		t.Errorf("title not highlighted: %v", docs[1]["title"])
	}

	out = mustRun(t, "-p", dataFile, "-f", "json", "search", "books", "dune", "--where", "pages:<:300")
	if diff := cmp.Diff([]string{"books/messiah"}, docPaths(t, out)); diff != "" {
		t.Errorf("filtered search mismatch (-want +got):\n%s", diff)
	}
}
