package cli

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/duynguyendang/semacro/pkg/expand"
)

// ANSI codes for terminal output. Disabled by --no-color or when stdout is
// not a terminal.
const (
	ansiBold   = "\033[1m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiDim    = "\033[2m"
	ansiReset  = "\033[0m"
)

var useColor = true

func initColor(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		useColor = false
	}
}

func colored(text string, codes ...string) string {
	if !useColor || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// renderTree renders an expansion tree with box-drawing connectors.
func renderTree(root *expand.Node) string {
	var b strings.Builder
	b.WriteString(colored(root.Text, ansiBold, ansiCyan))
	b.WriteByte('\n')
	renderChildren(&b, root, "")
	return strings.TrimSuffix(b.String(), "\n")
}

func renderChildren(b *strings.Builder, node *expand.Node, prefix string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(nodeLabel(child))
		b.WriteByte('\n')
		renderChildren(b, child, childPrefix)
	}
}

func nodeLabel(n *expand.Node) string {
	switch {
	case n.Truncated:
		return n.Text + colored(" ... (max depth reached)", ansiDim)
	case n.Unresolved, n.Leaf:
		return n.Text
	default:
		return colored(n.Text, ansiBold, ansiYellow)
	}
}
