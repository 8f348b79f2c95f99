package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osteele/treeselect/internal/config"
	"github.com/osteele/treeselect/internal/listbox"
	"github.com/osteele/treeselect/internal/source"
	"github.com/osteele/treeselect/internal/tree"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func newTestApp(t *testing.T, modify func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	if modify != nil {
		modify(cfg)
	}
	a, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func keys(items []*tree.Item) string {
	ks := make([]string, len(items))
	for i, it := range items {
		ks[i] = it.Key
	}
	return strings.Join(ks, ",")
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.List.Mode = "dropdown"

	_, err := NewApp(cfg)
	var cfgErr *listbox.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("NewApp() error = %v, want *listbox.ConfigError", err)
	}
}

func TestLoadFiles_MergesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "- key: one\n- key: two\n")
	b := writeFile(t, dir, "b.json", `[{"key": "three"}]`)
	c := writeFile(t, dir, "c.txt", "four\n  five\n")

	items, err := LoadFiles(context.Background(), []string{a, b, c})
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if got := keys(items); got != "one,two,three,four" {
		t.Errorf("LoadFiles() roots = %q, want %q", got, "one,two,three,four")
	}
	if got := keys(items[3].Children); got != "five" {
		t.Errorf("children = %q, want five", got)
	}
}

func TestLoadFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "- key: one\n")
	dup := writeFile(t, dir, "dup.yaml", "- key: one\n")

	tests := []struct {
		name  string
		paths []string
		want  error
	}{
		{"missing file", []string{a, filepath.Join(dir, "missing.yaml")}, os.ErrNotExist},
		{"duplicate roots", []string{a, dup}, source.ErrDuplicateKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFiles(context.Background(), tt.paths)
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadFiles() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProvider_Kinds(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "items.yaml", "- key: one\n")

	db := filepath.Join(dir, "items.db")
	if err := Export(context.Background(), db, []string{file}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	tests := []struct {
		name   string
		paths  []string
		watch  bool
		want   source.Kind
		closes int
	}{
		{"stdin", nil, false, source.KindDeferred, 0},
		{"dash", []string{"-"}, false, source.KindDeferred, 0},
		{"file", []string{file}, false, source.KindDeferred, 0},
		{"watched file", []string{file}, true, source.KindStream, 0},
		{"database", []string{db}, false, source.KindStream, 1},
		{"several files", []string{file, file}, false, source.KindDeferred, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, func(c *config.Config) { c.Source.Watch = tt.watch })
			p, err := a.Provider(tt.paths)
			if err != nil {
				t.Fatalf("Provider() error = %v", err)
			}
			if p.Kind() != tt.want {
				t.Errorf("Kind() = %v, want %v", p.Kind(), tt.want)
			}
			if len(a.closers) != tt.closes {
				t.Errorf("closers = %d, want %d", len(a.closers), tt.closes)
			}
		})
	}
}

func TestProvider_Stdin(t *testing.T) {
	a := newTestApp(t, nil)
	a.Stdin = strings.NewReader("fruit\n  apple\n  pear\nnuts\n")

	p, err := a.Provider(nil)
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	items, err := source.Items(context.Background(), p)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if got := keys(items); got != "fruit,nuts" {
		t.Errorf("roots = %q, want fruit,nuts", got)
	}
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "items.yaml", `
- key: fruit
  children:
    - key: apple
    - key: pear
- key: nuts
`)
	db := filepath.Join(dir, "items.db")
	if err := Export(context.Background(), db, []string{file}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	a := newTestApp(t, nil)
	p, err := a.Provider([]string{db})
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	items, err := source.Items(context.Background(), p)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if got := keys(items); got != "fruit,nuts" {
		t.Errorf("roots = %q, want fruit,nuts", got)
	}
	if got := keys(items[0].Children); got != "apple,pear" {
		t.Errorf("children = %q, want apple,pear", got)
	}
}

func TestExportRoundTrip_SameKeyUnderTwoParents(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "items.txt", "a\n  readme\nb\n  readme\n")
	db := filepath.Join(dir, "items.db")
	if err := Export(context.Background(), db, []string{file}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	a := newTestApp(t, nil)
	p, err := a.Provider([]string{db})
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	items, err := source.Items(context.Background(), p)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}

	var paths []string
	tree.New(items).Walk(func(path string, _ int, _ *tree.Item) bool {
		paths = append(paths, path)
		return true
	})
	if got := strings.Join(paths, ","); got != "a,a/readme,b,b/readme" {
		t.Errorf("round trip = %q, want a,a/readme,b,b/readme", got)
	}
}

func TestSaveListState_SkipsFailedAndLoadingLists(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "collapse.json")
	a := newTestApp(t, func(c *config.Config) { c.Source.StateFile = statePath })
	saved := []byte(`{"version": 1, "collapsed": {"fruit": true}}`)
	if err := os.WriteFile(statePath, saved, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name string
		load func(t *testing.T, list *listbox.Model)
	}{
		{"loading", func(t *testing.T, list *listbox.Model) {
			// The load command is never run.
			list.SetProvider(source.Deferred(func(context.Context) ([]*tree.Item, error) {
				return nil, nil
			}))
		}},
		{"failed", func(t *testing.T, list *listbox.Model) {
			cmd := list.SetProvider(source.Deferred(func(context.Context) ([]*tree.Item, error) {
				return nil, errors.New("permission denied")
			}))
			list.Update(cmd())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := a.NewList()
			if err != nil {
				t.Fatalf("NewList() error = %v", err)
			}
			t.Cleanup(list.Close)
			tt.load(t, list)
			list.Tree().ToggleAll()

			if err := a.SaveListState(list); err != nil {
				t.Fatalf("SaveListState() error = %v", err)
			}
			got, err := os.ReadFile(statePath)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(got, saved) {
				t.Errorf("state file = %s, want it untouched", got)
			}
		})
	}
}

func TestStatePersistence(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state", "collapse.json")
	a := newTestApp(t, func(c *config.Config) { c.Source.StateFile = statePath })

	items := []*tree.Item{
		{Key: "fruit", Children: []*tree.Item{{Key: "apple"}}},
		{Key: "nuts", Children: []*tree.Item{{Key: "pecan"}}},
	}

	list, err := a.NewList()
	if err != nil {
		t.Fatalf("NewList() error = %v", err)
	}
	list.Tree().SetItems(items)
	list.Tree().ToggleCollapse(0)
	if err := a.SaveState(list.Tree()); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	list.Close()

	restored, err := a.NewList()
	if err != nil {
		t.Fatalf("NewList() error = %v", err)
	}
	t.Cleanup(restored.Close)
	restored.Tree().SetItems(items)
	if got := restored.Tree().Len(); got != 3 {
		t.Errorf("Len() = %d, want 3 (fruit collapsed)", got)
	}
	if !restored.Tree().IsCollapsed("fruit", items[0]) {
		t.Error("fruit should be collapsed after restore")
	}
}

func TestStateDisabled(t *testing.T) {
	a := newTestApp(t, nil)
	tr := tree.New([]*tree.Item{{Key: "a", Children: []*tree.Item{{Key: "b"}}}})
	if err := a.SaveState(tr); err != nil {
		t.Errorf("SaveState() error = %v, want nil", err)
	}
	if err := a.RestoreState(tr); err != nil {
		t.Errorf("RestoreState() error = %v, want nil", err)
	}
}

func TestWriteResult(t *testing.T) {
	type city struct {
		Name string `json:"name"`
	}
	items := []*tree.Item{
		{Key: "par", Text: "Paris", Model: city{Name: "Paris"}},
		{Key: "ber", Text: "Berlin"},
	}

	tests := []struct {
		format string
		want   string
	}{
		{OutputKey, "par\nber\n"},
		{OutputText, "Paris\nBerlin\n"},
		{OutputJSON, `[{"name":"Paris"},{"key":"ber","text":"Berlin"}]` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteResult(&buf, tt.format, items); err != nil {
				t.Fatalf("WriteResult() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("WriteResult() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := WriteResult(&bytes.Buffer{}, "xml", items); !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("WriteResult(xml) error = %v, want ErrInvalidOutput", err)
	}
}
