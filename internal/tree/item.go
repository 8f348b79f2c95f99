// Package tree flattens hierarchical item collections into an ordered,
// collapse-aware visible sequence.
package tree

import "strings"

// PathSeparator joins sibling keys into an item path.
const PathSeparator = "/"

// Item is a node in a list collection.
//
// Items are owned by the data source. A Tree never writes to an Item: collapse
// changes made through the Tree are kept in an overlay keyed by item path, so
// an immutable source can be shared between several trees.
type Item struct {
	Key        string  `yaml:"key" json:"key"`
	Text       string  `yaml:"text,omitempty" json:"text,omitempty"`
	Collapsed  bool    `yaml:"collapsed,omitempty" json:"collapsed,omitempty"`
	Selectable *bool   `yaml:"selectable,omitempty" json:"selectable,omitempty"`
	Disabled   bool    `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Children   []*Item `yaml:"children,omitempty" json:"children,omitempty"`

	// Model is the wrapped business object, if any.
	Model any `yaml:"model,omitempty" json:"model,omitempty"`
}

// Label returns the display text, falling back to the key.
func (it *Item) Label() string {
	if it.Text != "" {
		return it.Text
	}
	return it.Key
}

// HasChildren reports whether the item is a parent row.
func (it *Item) HasChildren() bool {
	return len(it.Children) > 0
}

// IsSelectable reports whether the item may be selected or focused.
// Items are selectable unless disabled or explicitly marked otherwise.
func (it *Item) IsSelectable() bool {
	if it.Disabled {
		return false
	}
	return it.Selectable == nil || *it.Selectable
}

// Entry is one row of the flattened sequence.
type Entry struct {
	Item   *Item
	Path   string
	Depth  int
	Parent bool // has children, so it can be collapsed
	Index  int  // position in the flattened sequence
}

// Collapsible reports whether the row can be expanded or collapsed.
func (e Entry) Collapsible() bool {
	return e.Parent
}

// ChildPath returns the path of the child with the given key.
func ChildPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + PathSeparator + key
}

// ParentPath returns the path of the parent, or "" for a root path.
func ParentPath(path string) string {
	i := strings.LastIndex(path, PathSeparator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// FromModels wraps arbitrary business objects as leaf items.
func FromModels[T any](models []T, key func(T) string, text func(T) string) []*Item {
	items := make([]*Item, 0, len(models))
	for _, m := range models {
		it := &Item{Key: key(m), Model: m}
		if text != nil {
			it.Text = text(m)
		}
		items = append(items, it)
	}
	return items
}
