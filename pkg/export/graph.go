// Package export builds bounded dependency graphs over the macro callee
// relation and renders them as DOT, Mermaid, or D3 JSON documents. The
// traversal is shared; each renderer is a pure formatting step over the
// same abstract graph.
package export

import (
	"fmt"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/policy"
)

// Node is one macro in the dependency graph. External nodes are call
// references with no loaded definition; they appear but are never expanded.
type Node struct {
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"`
	Category string `json:"category,omitempty"`
	Depth    int    `json:"depth"`
	External bool   `json:"external,omitempty"`
}

// Edge is one caller→callee relation.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the abstract dependency graph produced by Build.
type Graph struct {
	Root  string `json:"root"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build performs a breadth-first traversal of the callee relation starting
// at root, stopping after maxDepth hops or when no new macros are
// discovered.
func Build(ix *policy.Index, root string, maxDepth int) (*Graph, error) {
	def, _, err := ix.Lookup(root)
	if err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		return nil, fmt.Errorf("%w: depth must be at least 1", apperrors.ErrInvalidInput)
	}

	g := &Graph{Root: root}
	visited := map[string]bool{root: true}
	g.Nodes = append(g.Nodes, Node{
		Name:     root,
		Kind:     string(def.Kind),
		Category: def.Category,
	})

	frontier := []string{root}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, name := range frontier {
			for _, callee := range ix.Callees(name) {
				g.Edges = append(g.Edges, Edge{From: name, To: callee})
				if visited[callee] {
					continue
				}
				visited[callee] = true
				cd, _, _ := ix.Lookup(callee)
				g.Nodes = append(g.Nodes, Node{
					Name:     callee,
					Kind:     string(cd.Kind),
					Category: cd.Category,
					Depth:    depth,
				})
				next = append(next, callee)
			}
			for _, dangling := range ix.DanglingCallees(name) {
				g.Edges = append(g.Edges, Edge{From: name, To: dangling})
				if visited[dangling] {
					continue
				}
				visited[dangling] = true
				g.Nodes = append(g.Nodes, Node{Name: dangling, Depth: depth, External: true})
			}
		}
		frontier = next
	}
	return g, nil
}
