package tree

// CollapsedFunc reports whether the children of the item at path are hidden.
type CollapsedFunc func(path string, it *Item) bool

// KeepFunc reports whether an item (and therefore its subtree) stays in the
// flattened sequence.
type KeepFunc func(path string, it *Item) bool

// Flatten returns the depth-first pre-order projection of roots. Children
// follow their parent only when collapsed reports false for the parent; a nil
// collapsed uses Item.Collapsed. The item graph must be acyclic.
func Flatten(roots []*Item, collapsed CollapsedFunc) []Entry {
	if collapsed == nil {
		collapsed = func(_ string, it *Item) bool { return it.Collapsed }
	}
	var out []Entry
	flattenInto(&out, roots, "", 0, collapsed, nil)
	return out
}

func flattenInto(out *[]Entry, items []*Item, parent string, depth int, collapsed CollapsedFunc, keep KeepFunc) {
	for _, it := range items {
		if it == nil {
			continue
		}
		path := ChildPath(parent, it.Key)
		if keep != nil && !keep(path, it) {
			continue
		}
		*out = append(*out, Entry{
			Item:   it,
			Path:   path,
			Depth:  depth,
			Parent: it.HasChildren(),
			Index:  len(*out),
		})
		if it.HasChildren() && !collapsed(path, it) {
			flattenInto(out, it.Children, path, depth+1, collapsed, keep)
		}
	}
}

// Tree owns the collapse overlay and the cached flattened sequence for a
// collection of root items.
type Tree struct {
	roots     []*Item
	overrides map[string]bool
	keep      KeepFunc

	entries  []Entry
	depthMax int
	stale    bool
}

// New creates a Tree over roots.
func New(roots []*Item) *Tree {
	return &Tree{
		roots:     roots,
		overrides: make(map[string]bool),
		stale:     true,
	}
}

// SetItems replaces the root items. Collapse overrides are keyed by path and
// survive a refetch of the same logical items.
func (t *Tree) SetItems(roots []*Item) {
	t.roots = roots
	t.stale = true
}

// Roots returns the root items.
func (t *Tree) Roots() []*Item {
	return t.roots
}

// SetFilter installs a predicate that removes items and their subtrees from
// the flattened sequence. A nil keep shows everything.
func (t *Tree) SetFilter(keep KeepFunc) {
	t.keep = keep
	t.stale = true
}

// Invalidate forces the next read to re-flatten, for callers whose filter
// depends on external state.
func (t *Tree) Invalidate() {
	t.stale = true
}

// Entries returns the flattened sequence, re-flattening if needed.
func (t *Tree) Entries() []Entry {
	if t.stale {
		entries := make([]Entry, 0, len(t.entries))
		flattenInto(&entries, t.roots, "", 0, t.IsCollapsed, t.keep)
		t.entries = entries
		t.depthMax = 0
		for _, e := range t.entries {
			if e.Depth+1 > t.depthMax {
				t.depthMax = e.Depth + 1
			}
		}
		t.stale = false
	}
	return t.entries
}

// Len returns the length of the flattened sequence.
func (t *Tree) Len() int {
	return len(t.Entries())
}

// At returns the entry at flat index i.
func (t *Tree) At(i int) (Entry, bool) {
	entries := t.Entries()
	if i < 0 || i >= len(entries) {
		return Entry{}, false
	}
	return entries[i], true
}

// MaxDepth returns the number of levels in the visible sequence.
func (t *Tree) MaxDepth() int {
	t.Entries()
	return t.depthMax
}

// IsCollapsed reports the effective collapse state of an item. Leaves are
// never collapsed.
func (t *Tree) IsCollapsed(path string, it *Item) bool {
	if !it.HasChildren() {
		return false
	}
	if c, ok := t.overrides[path]; ok {
		return c
	}
	return it.Collapsed
}

// SetCollapsed sets the collapse state of the row at flat index i. It
// returns false if the row is not collapsible or already in that state.
func (t *Tree) SetCollapsed(i int, collapsed bool) bool {
	e, ok := t.At(i)
	if !ok || !e.Parent {
		return false
	}
	if t.IsCollapsed(e.Path, e.Item) == collapsed {
		return false
	}
	t.overrides[e.Path] = collapsed
	t.stale = true
	return true
}

// ToggleCollapse flips the collapse state of the row at flat index i.
func (t *Tree) ToggleCollapse(i int) bool {
	e, ok := t.At(i)
	if !ok || !e.Parent {
		return false
	}
	return t.SetCollapsed(i, !t.IsCollapsed(e.Path, e.Item))
}

// ToggleAll collapses every parent if any parent is expanded, otherwise
// expands every parent. It returns the state that was applied.
func (t *Tree) ToggleAll() bool {
	anyExpanded := false
	t.Walk(func(path string, _ int, it *Item) bool {
		if it.HasChildren() && !t.IsCollapsed(path, it) {
			anyExpanded = true
			return false
		}
		return true
	})
	t.SetAllCollapsed(anyExpanded)
	return anyExpanded
}

// SetAllCollapsed sets every parent to the given state in one traversal.
func (t *Tree) SetAllCollapsed(collapsed bool) {
	t.Walk(func(path string, _ int, it *Item) bool {
		if it.HasChildren() {
			t.overrides[path] = collapsed
		}
		return true
	})
	t.stale = true
}

// Walk visits every item in pre-order regardless of collapse state or
// filter. Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(path string, depth int, it *Item) bool) {
	walk(t.roots, "", 0, fn)
}

func walk(items []*Item, parent string, depth int, fn func(string, int, *Item) bool) bool {
	for _, it := range items {
		if it == nil {
			continue
		}
		path := ChildPath(parent, it.Key)
		if !fn(path, depth, it) {
			return false
		}
		if !walk(it.Children, path, depth+1, fn) {
			return false
		}
	}
	return true
}

// IndexOfKey returns the flat index of the first visible item with key, or -1.
func (t *Tree) IndexOfKey(key string) int {
	for _, e := range t.Entries() {
		if e.Item.Key == key {
			return e.Index
		}
	}
	return -1
}

// IndexOfPath returns the flat index of the visible item at path, or -1.
func (t *Tree) IndexOfPath(path string) int {
	for _, e := range t.Entries() {
		if e.Path == path {
			return e.Index
		}
	}
	return -1
}
