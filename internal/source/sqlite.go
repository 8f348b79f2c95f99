package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/osteele/treeselect/internal/tree"
)

// Pager is the pull interface of a paged collection. Page returns up to limit
// root items, with their subtrees, starting at root offset. A short page marks
// the end.
type Pager interface {
	Page(ctx context.Context, offset, limit int) ([]*tree.Item, error)
}

// Paged streams a pager as cumulative snapshots, one per fetched page.
func Paged(p Pager, pageSize int) Provider {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Stream(func(ctx context.Context) <-chan Update {
		ch := make(chan Update)
		go func() {
			defer close(ch)
			var all []*tree.Item
			for offset := 0; ; offset += pageSize {
				page, err := p.Page(ctx, offset, pageSize)
				if err != nil {
					send(ctx, ch, Update{Err: err})
					return
				}
				all = append(all[:len(all):len(all)], page...)
				if !send(ctx, ch, Update{Items: all}) || len(page) < pageSize {
					return
				}
			}
		}()
		return ch
	})
}

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 200

func send(ctx context.Context, ch chan<- Update, u Update) bool {
	select {
	case ch <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	path        TEXT PRIMARY KEY,
	parent_path TEXT REFERENCES items(path),
	key         TEXT NOT NULL,
	text        TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL DEFAULT 0,
	selectable  INTEGER,
	disabled    INTEGER NOT NULL DEFAULT 0,
	collapsed   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_path, position);
`

const pageQuery = `
WITH RECURSIVE
	roots AS (
		SELECT path FROM items
		WHERE parent_path IS NULL
		ORDER BY position, path
		LIMIT ? OFFSET ?
	),
	sub(path, parent_path, key, text, position, selectable, disabled, collapsed, depth) AS (
		SELECT i.path, i.parent_path, i.key, i.text, i.position, i.selectable, i.disabled, i.collapsed, 0
		FROM items i JOIN roots r ON i.path = r.path
		UNION ALL
		SELECT c.path, c.parent_path, c.key, c.text, c.position, c.selectable, c.disabled, c.collapsed, s.depth + 1
		FROM items c JOIN sub s ON c.parent_path = s.path
	)
SELECT path, parent_path, key, text, selectable, disabled, collapsed
FROM sub
ORDER BY depth, position, path
`

// SQLitePager reads a collection from an items table. Rows are keyed by
// their tree path, so a key only has to be unique among its siblings.
type SQLitePager struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens a database read-only.
func OpenSQLite(path string) (*SQLitePager, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	return &SQLitePager{db: db, path: path}, nil
}

// Close closes the database.
func (p *SQLitePager) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Page implements Pager.
func (p *SQLitePager) Page(ctx context.Context, offset, limit int) ([]*tree.Item, error) {
	rows, err := p.db.QueryContext(ctx, pageQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.path, err)
	}
	defer rows.Close()

	var roots []*tree.Item
	byPath := make(map[string]*tree.Item)
	for rows.Next() {
		var (
			it         tree.Item
			path       string
			parent     sql.NullString
			selectable sql.NullBool
		)
		if err := rows.Scan(&path, &parent, &it.Key, &it.Text, &selectable, &it.Disabled, &it.Collapsed); err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.path, err)
		}
		if selectable.Valid {
			v := selectable.Bool
			it.Selectable = &v
		}

		node := &it
		byPath[path] = node
		if !parent.Valid {
			roots = append(roots, node)
			continue
		}
		if up, ok := byPath[parent.String]; ok {
			up.Children = append(up.Children, node)
		}
	}
	return roots, rows.Err()
}

// WriteSQLite stores items in a new or existing database, replacing rows
// with the same paths.
func WriteSQLite(ctx context.Context, path string, items []*tree.Item) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO items
		(path, parent_path, key, text, position, selectable, disabled, collapsed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var insert func(items []*tree.Item, parent string) error
	insert = func(items []*tree.Item, parent string) error {
		var parentPath any
		if parent != "" {
			parentPath = parent
		}
		for pos, it := range items {
			if it == nil {
				continue
			}
			var selectable any
			if it.Selectable != nil {
				selectable = *it.Selectable
			}
			path := tree.ChildPath(parent, it.Key)
			if _, err := stmt.ExecContext(ctx, path, parentPath, it.Key, it.Text, pos, selectable, it.Disabled, it.Collapsed); err != nil {
				return fmt.Errorf("insert %q: %w", path, err)
			}
			if err := insert(it.Children, path); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(items, ""); err != nil {
		return err
	}
	return tx.Commit()
}
