package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// StateVersion is the current schema version of persisted collapse state.
const StateVersion = 1

// State is the persisted form of a Tree's collapse overlay.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "collapsed": {
//	    "fruits": false,
//	    "fruits/citrus": true
//	  }
//	}
//
// Only explicit changes are stored; paths not in the map use Item.Collapsed.
type State struct {
	Version   int             `json:"version"`
	Collapsed map[string]bool `json:"collapsed"`
}

// State returns the overrides that differ from the items' own collapse flag.
// Overrides for paths not in the current items are kept as they are, so a
// run that never loaded the data does not erase them.
func (t *Tree) State() *State {
	s := &State{Version: StateVersion, Collapsed: make(map[string]bool)}
	known := make(map[string]bool, len(t.overrides))
	t.Walk(func(path string, _ int, it *Item) bool {
		c, ok := t.overrides[path]
		if !ok {
			return true
		}
		known[path] = true
		if it.HasChildren() && c != it.Collapsed {
			s.Collapsed[path] = c
		}
		return true
	})
	for path, c := range t.overrides {
		if !known[path] {
			s.Collapsed[path] = c
		}
	}
	return s
}

// ApplyState restores overrides from s. Unknown paths are kept so that state
// loaded before the data arrives still applies once it does.
func (t *Tree) ApplyState(s *State) {
	if s == nil {
		return
	}
	for path, collapsed := range s.Collapsed {
		t.overrides[path] = collapsed
	}
	t.stale = true
}

// SaveState writes the tree's collapse state to path.
func SaveState(path string, t *Tree) error {
	data, err := json.MarshalIndent(t.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tree state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write tree state: %w", err)
	}
	return nil
}

// LoadState reads collapse state from path. A missing file yields an empty
// state; a corrupt one yields an error so the caller can fall back to defaults.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Version: StateVersion, Collapsed: map[string]bool{}}, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid tree state file: %w", err)
	}
	if s.Version > StateVersion {
		return nil, fmt.Errorf("tree state version %d is newer than supported %d", s.Version, StateVersion)
	}
	if s.Collapsed == nil {
		s.Collapsed = map[string]bool{}
	}
	return &s, nil
}
