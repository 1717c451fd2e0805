package export

import (
	"fmt"
	"strings"
)

// RenderMermaid renders the graph as a Mermaid flowchart.
func RenderMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, n := range g.Nodes {
		id := mermaidID(n.Name)
		if n.External {
			fmt.Fprintf(&b, "\t%s[/%s/]\n", id, n.Name)
		} else {
			fmt.Fprintf(&b, "\t%s[%s]\n", id, n.Name)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "\t%s --> %s\n", mermaidID(e.From), mermaidID(e.To))
	}
	return b.String()
}

// mermaidID sanitizes a macro name into a Mermaid-safe node identifier.
func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
