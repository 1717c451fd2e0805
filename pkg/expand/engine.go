package expand

import (
	"strings"

	"github.com/duynguyendang/semacro/pkg/m4"
	"github.com/duynguyendang/semacro/pkg/policy"
)

// DefaultMaxDepth bounds recursive expansion unless overridden per query.
const DefaultMaxDepth = 10

// defineInlinePasses bounds chained define resolution (a define whose body
// names another define).
const defineInlinePasses = 5

// Node is one point in an expansion tree: either a resolved call with
// children in body order, or a terminal leaf. A tree is built fresh per
// query and owned by that query.
type Node struct {
	Call       m4.Call
	Text       string // rendered call or leaf text
	Rule       *Rule  // set on structured rule leaves
	Children   []*Node
	Depth      int
	Leaf       bool
	Truncated  bool // depth limit or cycle stopped expansion here
	Unresolved bool // call target absent from the index
}

// Engine expands macro calls against a read-only definition index. The
// zero MaxDepth means DefaultMaxDepth.
type Engine struct {
	Index    *policy.Index
	MaxDepth int
}

// NewEngine returns an Engine over the given index.
func NewEngine(ix *policy.Index) *Engine {
	return &Engine{Index: ix, MaxDepth: DefaultMaxDepth}
}

func (e *Engine) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}
	return DefaultMaxDepth
}

// Expand recursively expands a call into a tree. Expansion is deterministic:
// identical (call, index, depth) inputs produce identical trees. Termination
// is guaranteed by the depth cap; an active-path set additionally
// short-circuits true cycles immediately, independent of the configured
// depth.
func (e *Engine) Expand(call m4.Call) *Node {
	return e.expand(call, 0, make(map[string]bool))
}

func (e *Engine) expand(call m4.Call, depth int, active map[string]bool) *Node {
	node := &Node{Call: call, Text: call.String(), Depth: depth}

	def, _, err := e.Index.Lookup(call.Name)
	if err != nil {
		node.Leaf = true
		node.Unresolved = true
		return node
	}

	if active[call.Name] {
		node.Truncated = true
		return node
	}
	active[call.Name] = true
	defer delete(active, call.Name)

	body := m4.Substitute(def.Body, call.Args)
	body = stripRequireBlocks(body)

	for _, line := range strings.Split(body, "\n") {
		cl := ClassifyLine(line, e.Index)
		switch cl.Kind {
		case LineBlank, LineComment, LineDeclaration:
			continue

		case LineCall:
			node.Children = append(node.Children, e.expandChild(cl.Call, depth, active))

		case LineAVRule, LineTransition:
			node.Children = append(node.Children, e.ruleLeaf(cl.Text, depth+1))

		case LineText:
			if leaf := e.textLeaf(cl.Text, depth+1); leaf != nil {
				node.Children = append(node.Children, leaf)
			}
		}
	}
	return node
}

// expandChild resolves one nested call: literal defines are inlined (they
// are pure text substitution, not a granting statement), the depth cap emits
// a truncated marker, and everything else recurses.
func (e *Engine) expandChild(call m4.Call, depth int, active map[string]bool) *Node {
	if def, _, err := e.Index.Lookup(call.Name); err == nil && def.IsLiteralDefine() {
		text := e.resolveDefines(strings.TrimSpace(def.Body))
		return &Node{Call: call, Text: text, Depth: depth + 1, Leaf: true}
	}

	if depth+1 > e.maxDepth() {
		return &Node{
			Call:      call,
			Text:      call.String(),
			Depth:     depth + 1,
			Truncated: true,
		}
	}
	return e.expand(call, depth+1, active)
}

// ruleLeaf resolves permission-set defines in a rule line and parses it
// into a structured rule. Lines that do not parse stay as raw text leaves.
func (e *Engine) ruleLeaf(text string, depth int) *Node {
	resolved := e.resolveDefines(text)
	leaf := &Node{Text: resolved, Depth: depth, Leaf: true}
	if rule, ok := ParseRule(resolved); ok {
		leaf.Rule = &rule
	}
	return leaf
}

// textLeaf keeps statement-like plain lines; m4 wrapper remnants (opening
// optional_policy lines, stray closing quotes) are dropped.
func (e *Engine) textLeaf(text string, depth int) *Node {
	trimmed := strings.Trim(text, "`') \t")
	if trimmed == "" || !strings.HasSuffix(trimmed, ";") {
		return nil
	}
	return &Node{Text: e.resolveDefines(trimmed), Depth: depth, Leaf: true}
}

// resolveDefines inlines literal defines (permission sets and similar) into
// a leaf line, iterating to handle chained defines, then flattens nested
// permission braces.
func (e *Engine) resolveDefines(text string) string {
	for pass := 0; pass < defineInlinePasses; pass++ {
		replaced, changed := e.inlineOnePass(text)
		text = replaced
		if !changed {
			break
		}
	}
	return flattenBraces(text)
}

func (e *Engine) inlineOnePass(text string) (string, bool) {
	changed := false
	var out strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		if c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			out.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(text) && isWordByte(text[j]) {
			j++
		}
		word := text[i:j]
		if def, _, err := e.Index.Lookup(word); err == nil && def.IsLiteralDefine() {
			out.WriteString(strings.TrimSpace(def.Body))
			changed = true
		} else {
			out.WriteString(word)
		}
		i = j
	}
	return out.String(), changed
}

// flattenBraces rewrites nested permission sets { a { b c } d } as
// { a b c d } and collapses runs of spaces.
func flattenBraces(text string) string {
	for strings.Contains(text, "{") {
		flattened, changed := flattenOneLevel(text)
		text = flattened
		if !changed {
			break
		}
	}
	return collapseSpaces(text)
}

func flattenOneLevel(text string) (string, bool) {
	// Find an inner brace pair nested inside another.
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			if depth == 2 {
				end := strings.IndexByte(text[i:], '}')
				if end == -1 {
					return text, false
				}
				inner := text[i+1 : i+end]
				return text[:i] + " " + inner + " " + text[i+end+1:], true
			}
		case '}':
			depth--
		}
	}
	return text, false
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Flatten collects structured rule leaves depth-first in body order,
// skipping truncated and unresolved markers.
func Flatten(root *Node) []Rule {
	var rules []Rule
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Truncated || n.Unresolved {
			return
		}
		if n.Leaf && n.Rule != nil {
			rules = append(rules, *n.Rule)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return rules
}

// Rules expands a call and returns its flattened, merged rule list.
func (e *Engine) Rules(call m4.Call) []Rule {
	return Merge(Flatten(e.Expand(call)))
}
