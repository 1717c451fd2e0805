package expand

import (
	"strings"
)

// ModuleExpansion is the result of expanding every macro call found in a
// policy module (.te) file.
type ModuleExpansion struct {
	Trees []*Node // one tree per top-level macro call, in file order
	Rules []Rule  // merged flat rules (direct statements + expansions)
}

// ExpandModule expands a .te module: direct rule statements are kept (with
// defines resolved), declarations and comments are skipped, and every macro
// call is expanded. Unknown calls are ignored, mirroring lookup semantics
// for unresolved names.
func (e *Engine) ExpandModule(content string) *ModuleExpansion {
	out := &ModuleExpansion{}
	var rules []Rule

	body := stripRequireBlocks(content)
	for _, line := range strings.Split(body, "\n") {
		cl := ClassifyLine(line, e.Index)
		switch cl.Kind {
		case LineBlank, LineComment, LineDeclaration:
			continue

		case LineAVRule, LineTransition:
			if leaf := e.ruleLeaf(cl.Text, 0); leaf.Rule != nil {
				rules = append(rules, *leaf.Rule)
			}

		case LineCall:
			if !e.Index.Contains(cl.Call.Name) {
				continue
			}
			tree := e.Expand(cl.Call)
			out.Trees = append(out.Trees, tree)
			rules = append(rules, Flatten(tree)...)
		}
	}

	out.Rules = Merge(rules)
	return out
}
