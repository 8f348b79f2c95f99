package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/osteele/treeselect/internal/tree"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func flat(items []*tree.Item) string {
	var out []string
	for _, e := range tree.Flatten(items, nil) {
		out = append(out, e.Path)
	}
	return strings.Join(out, " ")
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{
			name: "yaml list",
			file: "items.yml",
			content: `
- key: fruit
  text: Fruit
  children:
    - key: apple
    - key: pear
- key: veg
`,
			want: "fruit fruit/apple fruit/pear veg",
		},
		{
			name: "yaml document",
			file: "items.yaml",
			content: `
items:
  - text: Only text
`,
			want: "Only text",
		},
		{
			name:    "json list",
			file:    "items.json",
			content: `[{"key":"a","children":[{"key":"b"}]},{"key":"c"}]`,
			want:    "a a/b c",
		},
		{
			name:    "json document",
			file:    "items.json",
			content: `{"items":[{"key":"a","collapsed":true,"children":[{"key":"b"}]}]}`,
			want:    "a",
		},
		{
			name:    "outline",
			file:    "items.txt",
			content: "one\n  two\n    three\n\tfour\nfive\n",
			want:    "one one/two one/two/three one/four five",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if flat(got) != tt.want {
				t.Errorf("LoadFile() = %q, want %q", flat(got), tt.want)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dup := writeFile(t, "dup.yml", "- key: a\n- key: a\n")
	if _, err := LoadFile(dup); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate keys: error = %v, want ErrDuplicateKey", err)
	}

	jump := writeFile(t, "jump.txt", "a\n    b\n")
	if _, err := LoadFile(jump); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("over-indented outline: error = %v", err)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: error = %v, want ErrNotExist", err)
	}
}

func TestSQLitePager(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "items.db")
	no := false
	roots := []*tree.Item{
		{Key: "r1", Text: "Root one", Children: []*tree.Item{
			{Key: "c1"},
			{Key: "c2", Children: []*tree.Item{{Key: "g1", Selectable: &no}}},
		}},
		{Key: "r2", Collapsed: true, Children: []*tree.Item{{Key: "c3", Disabled: true}}},
		{Key: "r3"},
	}
	if err := WriteSQLite(ctx, path, roots); err != nil {
		t.Fatalf("WriteSQLite() error = %v", err)
	}

	pager, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { pager.Close() })

	first, err := pager.Page(ctx, 0, 2)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	all := tree.Flatten(first, func(string, *tree.Item) bool { return false })
	var paths []string
	for _, e := range all {
		paths = append(paths, e.Path)
	}
	if got := strings.Join(paths, " "); got != "r1 r1/c1 r1/c2 r1/c2/g1 r2 r2/c3" {
		t.Errorf("first page = %q", got)
	}
	if first[0].Text != "Root one" || !first[1].Collapsed {
		t.Errorf("attributes not restored: %+v %+v", first[0], first[1])
	}
	if g := first[0].Children[1].Children[0]; g.IsSelectable() {
		t.Error("g1 selectable, want not")
	}
	if c := first[1].Children[0]; !c.Disabled {
		t.Error("c3 not disabled")
	}

	second, err := pager.Page(ctx, 2, 2)
	if err != nil || len(second) != 1 || second[0].Key != "r3" {
		t.Errorf("second page = %v, %v", second, err)
	}
}

func TestWatch(t *testing.T) {
	path := writeFile(t, "items.yml", "- key: a\n")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	updates := Watch(path, 10*time.Millisecond).open(ctx)
	next := func() Update {
		t.Helper()
		select {
		case u, ok := <-updates:
			if !ok {
				t.Fatal("watch stream closed")
			}
			return u
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for update")
		}
		return Update{}
	}

	if u := next(); u.Err != nil || keysOf(u.Items) != "a" {
		t.Fatalf("initial update = %s, %v", keysOf(u.Items), u.Err)
	}

	if err := os.WriteFile(path, []byte("- key: a\n- key: b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A write can surface as several events; wait for the final content.
	for {
		u := next()
		if u.Err != nil {
			t.Fatalf("update after write: %v", u.Err)
		}
		if keysOf(u.Items) == "a,b" {
			break
		}
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	for {
		u := next()
		if u.Err == nil {
			continue
		}
		if !errors.Is(u.Err, ErrFileRemoved) && !errors.Is(u.Err, os.ErrNotExist) {
			t.Fatalf("update after remove = %v, want ErrFileRemoved", u.Err)
		}
		break
	}
}
