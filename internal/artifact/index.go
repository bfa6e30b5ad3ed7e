// Package artifact provides a prefix-indexed view over a PLADS holding
// directory (norm_p_r, anom_p_k, anomInst_p_k files), replacing the
// original "probe k=1..K until the first gap" approach spec.md §9 flags as
// fragile with a directory listing filtered by prefix.
package artifact

import (
	"fmt"
	"os"
	"sort"
	"strings"

	radix "github.com/Emeline-1/radix"
)

// Index is a snapshot of one directory's entries held as a radix tree
// (grounded on the teacher's overlay-detection walk in
// overlays_processing.go) — both the prefix listing and the purge below walk
// the tree itself rather than a flat name list.
type Index struct {
	Dir  string
	tree *radix.Tree
}

// Build lists dir and indexes its entries into a radix tree.
func Build(dir string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("artifact: reading %q: %w", dir, err)
	}

	ix := &Index{Dir: dir, tree: radix.New()}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ix.tree.Insert(e.Name(), struct{}{})
	}
	return ix, nil
}

// WithPrefix returns every indexed file name starting with prefix, sorted.
// The listing comes from a post-order walk of the radix tree, visiting each
// node once, rather than a linear scan of a flat name slice.
func (ix *Index) WithPrefix(prefix string) []string {
	var out []string
	seen := make(map[string]bool)
	visit := func(n *radix.LeafNode) {
		if n == nil || seen[n.Key] {
			return
		}
		seen[n.Key] = true
		if strings.HasPrefix(n.Key, prefix) {
			out = append(out, n.Key)
		}
	}
	ix.tree.Walk_post(func(parent *radix.LeafNode, children []*radix.LeafNode) {
		visit(parent)
		for _, c := range children {
			visit(c)
		}
	})
	sort.Strings(out)
	return out
}

// Purge removes every file in Dir whose name starts with prefix — used
// when a partition slides out of the window and its norm_p_*/anom_p_*
// artifacts must be deleted before any new file reuses the same ordinal
// (spec.md §3 invariants).
func (ix *Index) Purge(prefix string) error {
	for _, name := range ix.WithPrefix(prefix) {
		if err := os.Remove(ix.Dir + "/" + name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("artifact: purge %q: %w", name, err)
		}
	}
	return nil
}

// GroupCount reports how many common-prefix groups the radix tree formed
// across the indexed names — a cheap structural diagnostic logged once per
// purge pass, walking the tree the same post-order way
// overlays_processing.go walks it for overlay detection.
func (ix *Index) GroupCount() int {
	groups := 0
	ix.tree.Walk_post(func(parent *radix.LeafNode, children []*radix.LeafNode) {
		if len(children) > 0 {
			groups++
		}
	})
	return groups
}
