// Package app wires configuration, item sources and the picker together.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/osteele/treeselect/internal/config"
	"github.com/osteele/treeselect/internal/debug"
	"github.com/osteele/treeselect/internal/listbox"
	"github.com/osteele/treeselect/internal/source"
	"github.com/osteele/treeselect/internal/tree"
	"github.com/osteele/treeselect/internal/ui"
)

// maxParallelLoads bounds concurrent file reads in LoadFiles.
const maxParallelLoads = 8

// Output formats for the accepted selection.
const (
	OutputKey  = "key"
	OutputText = "text"
	OutputJSON = "json"
)

// ErrInvalidOutput is returned for an unknown output format.
var ErrInvalidOutput = errors.New("invalid output format")

// App represents the application state.
type App struct {
	Config  *config.Config
	Options listbox.Options
	Theme   ui.Theme

	// Stdin is read when no item file is given.
	Stdin io.Reader

	closers []io.Closer
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config) (*App, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		Options: opts,
		Theme:   ui.GetTheme(string(cfg.UI.Theme)),
		Stdin:   os.Stdin,
	}, nil
}

// Provider chooses the item source for the given paths:
//   - no path, or "-": an outline read from Stdin
//   - a .db or .sqlite file: paged reads from an items table
//   - one file with watching enabled: reloaded on every change
//   - one file: loaded once
//   - several files: loaded in parallel and concatenated in argument order
func (a *App) Provider(paths []string) (source.Provider, error) {
	switch {
	case len(paths) == 0 || (len(paths) == 1 && paths[0] == "-"):
		stdin := a.Stdin
		return source.Deferred(func(context.Context) ([]*tree.Item, error) {
			items, err := source.ParseOutline(bufio.NewReader(stdin))
			if err != nil {
				return nil, fmt.Errorf("stdin: %w", err)
			}
			return items, source.Normalize(items)
		}), nil

	case len(paths) == 1 && isDatabase(paths[0]):
		pager, err := source.OpenSQLite(paths[0])
		if err != nil {
			return source.Provider{}, err
		}
		a.closers = append(a.closers, pager)
		return source.Paged(pager, a.Config.Source.PageSize), nil

	case len(paths) == 1 && a.Config.Source.Watch:
		return source.Watch(paths[0], source.DefaultWatchDebounce), nil

	case len(paths) == 1:
		return source.File(paths[0]), nil
	}

	return source.Deferred(func(ctx context.Context) ([]*tree.Item, error) {
		return LoadFiles(ctx, paths)
	}), nil
}

func isDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// LoadFiles loads several item files concurrently and concatenates their
// roots in argument order. The first failure cancels the rest.
func LoadFiles(ctx context.Context, paths []string) ([]*tree.Item, error) {
	results := make([][]*tree.Item, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items, err := source.LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []*tree.Item
	for _, items := range results {
		merged = append(merged, items...)
	}
	if err := source.Normalize(merged); err != nil {
		return nil, err
	}
	debug.Log("app: loaded %d roots from %d files", len(merged), len(paths))
	return merged, nil
}

// NewList creates a list with the configured options and restores the saved
// collapse state, if any.
func (a *App) NewList() (*listbox.Model, error) {
	list, err := listbox.New(a.Options)
	if err != nil {
		return nil, err
	}
	if err := a.RestoreState(list.Tree()); err != nil {
		debug.Log("app: ignoring collapse state: %v", err)
	}
	return list, nil
}

// RestoreState applies the collapse state file to t.
func (a *App) RestoreState(t *tree.Tree) error {
	if a.Config.Source.StateFile == "" {
		return nil
	}
	s, err := tree.LoadState(a.Config.Source.StateFile)
	if err != nil {
		return err
	}
	t.ApplyState(s)
	return nil
}

// SaveState writes the collapse state of t to the state file.
func (a *App) SaveState(t *tree.Tree) error {
	if a.Config.Source.StateFile == "" {
		return nil
	}
	return tree.SaveState(a.Config.Source.StateFile, t)
}

// SaveListState saves the collapse state of list unless its source failed or
// is still loading, in which case the state file is left untouched.
func (a *App) SaveListState(list *listbox.Model) error {
	if hint := list.Hint(); hint != "" || list.Loading() {
		debug.Log("app: not saving collapse state (loading=%v, hint=%q)", list.Loading(), hint)
		return nil
	}
	return a.SaveState(list.Tree())
}

// Export loads item files and writes them to a SQLite database.
func Export(ctx context.Context, dbPath string, paths []string) error {
	items, err := LoadFiles(ctx, paths)
	if err != nil {
		return err
	}
	return source.WriteSQLite(ctx, dbPath, items)
}

// WriteResult prints the accepted selection in the given format: one key or
// text per line, or a JSON array of the selected models.
func WriteResult(w io.Writer, format string, items []*tree.Item) error {
	switch format {
	case OutputKey, "":
		for _, it := range items {
			if _, err := fmt.Fprintln(w, it.Key); err != nil {
				return err
			}
		}
		return nil
	case OutputText:
		for _, it := range items {
			if _, err := fmt.Fprintln(w, it.Label()); err != nil {
				return err
			}
		}
		return nil
	case OutputJSON:
		models := make([]any, len(items))
		for i, it := range items {
			if it.Model != nil {
				models[i] = it.Model
			} else {
				models[i] = leaf{Key: it.Key, Text: it.Text}
			}
		}
		data, err := json.Marshal(models)
		if err != nil {
			return fmt.Errorf("marshal selection: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return fmt.Errorf("%w: %q", ErrInvalidOutput, format)
}

// leaf is the JSON form of a selected item without a model.
type leaf struct {
	Key  string `json:"key"`
	Text string `json:"text,omitempty"`
}

// Close releases resources opened by Provider.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
