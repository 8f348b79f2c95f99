package tree

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func node(key string, children ...*Item) *Item {
	return &Item{Key: key, Children: children}
}

func paths(entries []Entry) string {
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Item.Key)
	}
	return strings.Join(keys, ",")
}

func TestFlatten_ExpandedAndCollapsed(t *testing.T) {
	a := node("A", node("B"), node("C"))
	roots := []*Item{a, node("D")}
	tr := New(roots)

	if got := paths(tr.Entries()); got != "A,B,C,D" {
		t.Errorf("Entries() = %s, want A,B,C,D", got)
	}

	if !tr.SetCollapsed(0, true) {
		t.Fatal("SetCollapsed(0, true) = false, want true")
	}
	if got := paths(tr.Entries()); got != "A,D" {
		t.Errorf("after collapse Entries() = %s, want A,D", got)
	}
	if a.Collapsed {
		t.Error("SetCollapsed mutated Item.Collapsed")
	}

	tr.SetCollapsed(0, false)
	if got := paths(tr.Entries()); got != "A,B,C,D" {
		t.Errorf("after expand Entries() = %s, want A,B,C,D", got)
	}
}

func TestFlatten_DepthAndIndex(t *testing.T) {
	roots := []*Item{node("A", node("B", node("C"))), node("D")}
	entries := Flatten(roots, nil)

	wantDepth := []int{0, 1, 2, 0}
	wantPath := []string{"A", "A/B", "A/B/C", "D"}
	for i, e := range entries {
		if e.Index != i {
			t.Errorf("entries[%d].Index = %d", i, e.Index)
		}
		if e.Depth != wantDepth[i] {
			t.Errorf("entries[%d].Depth = %d, want %d", i, e.Depth, wantDepth[i])
		}
		if e.Path != wantPath[i] {
			t.Errorf("entries[%d].Path = %q, want %q", i, e.Path, wantPath[i])
		}
	}
	if !entries[0].Parent || entries[3].Parent {
		t.Error("Parent flag mismatch")
	}
}

func TestFlatten_UsesItemCollapsedByDefault(t *testing.T) {
	a := node("A", node("B"))
	a.Collapsed = true
	tr := New([]*Item{a})
	if got := paths(tr.Entries()); got != "A" {
		t.Errorf("Entries() = %s, want A", got)
	}
	tr.ToggleCollapse(0)
	if got := paths(tr.Entries()); got != "A,B" {
		t.Errorf("after toggle Entries() = %s, want A,B", got)
	}
}

func TestSetCollapsed_Leaf(t *testing.T) {
	tr := New([]*Item{node("A")})
	if tr.SetCollapsed(0, true) {
		t.Error("SetCollapsed on leaf = true, want false")
	}
	if tr.ToggleCollapse(5) {
		t.Error("ToggleCollapse out of range = true, want false")
	}
}

func TestToggleAll(t *testing.T) {
	roots := []*Item{
		node("A", node("B", node("C"))),
		node("D", node("E")),
	}
	tr := New(roots)

	if collapsed := tr.ToggleAll(); !collapsed {
		t.Error("ToggleAll() on expanded tree = false, want true")
	}
	if got := paths(tr.Entries()); got != "A,D" {
		t.Errorf("after collapse all = %s, want A,D", got)
	}

	if collapsed := tr.ToggleAll(); collapsed {
		t.Error("ToggleAll() on collapsed tree = true, want false")
	}
	if got := paths(tr.Entries()); got != "A,B,C,D,E" {
		t.Errorf("after expand all = %s, want A,B,C,D,E", got)
	}
}

func TestSetFilter(t *testing.T) {
	roots := []*Item{node("A", node("B"), node("C")), node("D")}
	tr := New(roots)
	tr.SetFilter(func(_ string, it *Item) bool { return it.Key != "B" && it.Key != "D" })

	if got := paths(tr.Entries()); got != "A,C" {
		t.Errorf("filtered Entries() = %s, want A,C", got)
	}

	tr.SetFilter(nil)
	if tr.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tr.Len())
	}
}

func TestOverridesSurviveRefetch(t *testing.T) {
	tr := New([]*Item{node("A", node("B"))})
	tr.SetCollapsed(0, true)

	// Same logical items, new objects.
	tr.SetItems([]*Item{node("A", node("B")), node("C")})
	if got := paths(tr.Entries()); got != "A,C" {
		t.Errorf("Entries() = %s, want A,C", got)
	}
}

func TestIndexOfKeyAndMaxDepth(t *testing.T) {
	tr := New([]*Item{node("A", node("B", node("C"))), node("D")})
	if got := tr.IndexOfKey("D"); got != 3 {
		t.Errorf("IndexOfKey(D) = %d, want 3", got)
	}
	if got := tr.IndexOfKey("missing"); got != -1 {
		t.Errorf("IndexOfKey(missing) = %d, want -1", got)
	}
	if got := tr.IndexOfPath("A/B/C"); got != 2 {
		t.Errorf("IndexOfPath(A/B/C) = %d, want 2", got)
	}
	if got := tr.MaxDepth(); got != 3 {
		t.Errorf("MaxDepth() = %d, want 3", got)
	}
}

func TestItemSelectable(t *testing.T) {
	no := false
	tests := []struct {
		name string
		item Item
		want bool
	}{
		{"default", Item{Key: "a"}, true},
		{"disabled", Item{Key: "a", Disabled: true}, false},
		{"explicitly unselectable", Item{Key: "a", Selectable: &no}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.IsSelectable(); got != tt.want {
				t.Errorf("IsSelectable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromModels(t *testing.T) {
	type user struct{ ID, Name string }
	users := []user{{"1", "Ada"}, {"2", "Grace"}}
	items := FromModels(users, func(u user) string { return u.ID }, func(u user) string { return u.Name })

	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[1].Key != "2" || items[1].Label() != "Grace" {
		t.Errorf("items[1] = %+v", items[1])
	}
	if u, ok := items[0].Model.(user); !ok || u.Name != "Ada" {
		t.Errorf("items[0].Model = %v, want Ada", items[0].Model)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tree.json")

	tr := New([]*Item{node("A", node("B")), node("C", node("D"))})
	tr.SetCollapsed(0, true)
	if err := SaveState(path, tr); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	state, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if len(state.Collapsed) != 1 || !state.Collapsed["A"] {
		t.Errorf("Collapsed = %v, want map[A:true]", state.Collapsed)
	}

	fresh := New([]*Item{node("A", node("B")), node("C", node("D"))})
	fresh.ApplyState(state)
	if got := paths(fresh.Entries()); got != "A,C,D" {
		t.Errorf("Entries() = %s, want A,C,D", got)
	}
}

func TestSaveState_KeepsUnknownPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")

	tr := New([]*Item{node("a", node("b"))})
	tr.SetCollapsed(0, true)
	if err := SaveState(path, tr); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	// A run whose items never arrived saves again.
	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	empty := New(nil)
	empty.ApplyState(loaded)
	if err := SaveState(path, empty); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	state, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if !state.Collapsed["a"] {
		t.Errorf("Collapsed = %v, want a:true preserved", state.Collapsed)
	}
}

func TestLoadState_Missing(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if len(state.Collapsed) != 0 {
		t.Errorf("Collapsed = %v, want empty", state.Collapsed)
	}
}

// genTree draws an acyclic forest with unique sibling keys.
func genTree(t *rapid.T, label string, depth int) []*Item {
	n := rapid.IntRange(0, 4).Draw(t, label+"n")
	items := make([]*Item, n)
	for i := range items {
		key := fmt.Sprintf("%s%d", label, i)
		it := &Item{Key: key, Collapsed: rapid.Bool().Draw(t, key+"c")}
		if depth < 3 {
			it.Children = genTree(t, key+".", depth+1)
		}
		items[i] = it
	}
	return items
}

// preorder is the reference projection: a plain pre-order walk that skips
// subtrees below collapsed nodes.
func preorder(items []*Item, collapsed func(*Item) bool, out *[]string) {
	for _, it := range items {
		*out = append(*out, it.Key)
		if !collapsed(it) {
			preorder(it.Children, collapsed, out)
		}
	}
}

func TestFlatten_MatchesPreorder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roots := genTree(t, "n", 0)
		var want []string
		preorder(roots, func(it *Item) bool { return it.Collapsed }, &want)

		tr := New(roots)
		var got []string
		for _, e := range tr.Entries() {
			got = append(got, e.Item.Key)
		}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("Entries() = %v, want %v", got, want)
		}
	})
}

func TestCollapseExpand_RestoresSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		roots := genTree(t, "n", 0)
		tr := New(roots)
		if tr.Len() == 0 {
			return
		}
		before := paths(tr.Entries())
		i := rapid.IntRange(0, tr.Len()-1).Draw(t, "index")
		e, _ := tr.At(i)
		if !e.Parent {
			return
		}
		was := tr.IsCollapsed(e.Path, e.Item)
		tr.SetCollapsed(i, !was)
		tr.SetCollapsed(i, was)
		if after := paths(tr.Entries()); after != before {
			t.Fatalf("sequence after collapse/expand = %s, want %s", after, before)
		}
	})
}
