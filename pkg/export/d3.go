package export

import (
	"encoding/json"
	"os"
)

// D3Node represents a node in a D3 force-directed graph.
type D3Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"`
	Group    string `json:"group,omitempty"` // category, for visualization grouping
	External bool   `json:"external,omitempty"`
}

// D3Link represents a link/edge in a D3 force-directed graph.
type D3Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// D3Graph is the full graph structure for D3.js consumers.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// ToD3 converts the abstract graph into the D3 wire format.
func ToD3(g *Graph) *D3Graph {
	out := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}}
	for _, n := range g.Nodes {
		group := n.Category
		if group == "" {
			group = "unknown"
		}
		out.Nodes = append(out.Nodes, D3Node{
			ID:       n.Name,
			Name:     n.Name,
			Kind:     n.Kind,
			Group:    group,
			External: n.External,
		})
	}
	for _, e := range g.Edges {
		out.Links = append(out.Links, D3Link{Source: e.From, Target: e.To, Relation: "calls"})
	}
	return out
}

// SaveD3Graph writes the graph to a JSON file.
func SaveD3Graph(graph *D3Graph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(graph)
}
