package source

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
	"gopkg.in/yaml.v3"

	"github.com/osteele/treeselect/internal/tree"
)

// ErrDuplicateKey is returned when two siblings share a key.
var ErrDuplicateKey = errors.New("duplicate sibling key")

// document is the object form of an item file. A bare list is accepted too.
type document struct {
	Items []*tree.Item `yaml:"items" json:"items"`
}

// LoadFile reads an item file. The format follows the extension: .yml and
// .yaml are YAML, .json is JSON, anything else is an indented outline.
func LoadFile(path string) ([]*tree.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []*tree.Item
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		items, err = parseYAML(data)
	case ".json":
		items, err = parseJSON(data)
	default:
		items, err = ParseOutline(strings.NewReader(string(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := Normalize(items); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return items, nil
}

// File provides the contents of an item file as a deferred load.
func File(path string) Provider {
	return Deferred(func(context.Context) ([]*tree.Item, error) {
		return LoadFile(path)
	})
}

func parseYAML(data []byte) ([]*tree.Item, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var items []*tree.Item
		err := node.Content[0].Decode(&items)
		return items, err
	}
	var doc document
	err := node.Content[0].Decode(&doc)
	return doc.Items, err
}

func parseJSON(data []byte) ([]*tree.Item, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []*tree.Item
		err := json.Unmarshal(data, &items)
		return items, err
	}
	var doc document
	err := json.Unmarshal(data, &doc)
	return doc.Items, err
}

// ParseOutline reads one item per non-blank line. Indentation (a tab or two
// spaces per level) nests an item under the closest shallower line above it.
// Keys are the trimmed line text.
func ParseOutline(r io.Reader) ([]*tree.Item, error) {
	var roots []*tree.Item
	var stack []*tree.Item

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")
		text := strings.TrimLeft(line, " \t")
		if text == "" {
			continue
		}
		indent := line[:len(line)-len(text)]
		depth := strings.Count(indent, "\t") + strings.Count(indent, " ")/2
		if depth > len(stack) {
			return nil, fmt.Errorf("line %d: indented more than one level", lineNo)
		}

		it := &tree.Item{Key: text}
		stack = stack[:depth]
		if depth == 0 {
			roots = append(roots, it)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, it)
		}
		stack = append(stack, it)
	}
	return roots, sc.Err()
}

// Normalize fills missing keys from the item text and rejects duplicate keys
// among siblings.
func Normalize(items []*tree.Item) error {
	return normalize(items, "")
}

func normalize(items []*tree.Item, parent string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Key == "" {
			it.Key = it.Text
		}
		if seen[it.Key] {
			return fmt.Errorf("%w %q under %q", ErrDuplicateKey, it.Key, parent)
		}
		seen[it.Key] = true
		if err := normalize(it.Children, tree.ChildPath(parent, it.Key)); err != nil {
			return err
		}
	}
	return nil
}
