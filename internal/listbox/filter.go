package listbox

import (
	"github.com/sahilm/fuzzy"

	"github.com/osteele/treeselect/internal/tree"
)

// matchPaths returns the paths of items whose label fuzzy-matches query,
// together with the paths of all their ancestors so that matches stay
// reachable in the hierarchy.
func matchPaths(t *tree.Tree, query string) map[string]bool {
	var paths, labels []string
	t.Walk(func(path string, _ int, it *tree.Item) bool {
		paths = append(paths, path)
		labels = append(labels, it.Label())
		return true
	})

	keep := make(map[string]bool)
	for _, m := range fuzzy.Find(query, labels) {
		for p := paths[m.Index]; p != "" && !keep[p]; p = tree.ParentPath(p) {
			keep[p] = true
		}
	}
	return keep
}
