package export

import (
	"fmt"
	"strings"
)

// RenderDOT renders the graph as a Graphviz document. External references
// are drawn dashed.
func RenderDOT(g *Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", g.Root)
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=box, fontname=\"monospace\"];\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", dotLabel(n))}
		if n.Name == g.Root {
			attrs = append(attrs, "style=bold")
		}
		if n.External {
			attrs = append(attrs, "style=dashed", "color=gray")
		}
		fmt.Fprintf(&b, "\t%q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "\t%q -> %q;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}

func dotLabel(n Node) string {
	if n.Kind == "" {
		return n.Name
	}
	return fmt.Sprintf("%s\\n[%s]", n.Name, n.Kind)
}
