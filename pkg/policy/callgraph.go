package policy

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
)

// ReservedWords are identifiers that look like calls in a macro body but are
// policy statements or m4 builtins, never macro invocations.
var ReservedWords = map[string]bool{
	"allow": true, "dontaudit": true, "auditallow": true, "neverallow": true,
	"type_transition": true, "type_change": true, "type_member": true,
	"role_transition": true, "range_transition": true,
	"gen_require": true, "optional_policy": true, "tunable_policy": true,
	"require": true, "type": true, "role": true, "attribute": true, "bool": true,
	"ifdef": true, "ifndef": true, "refpolicywarn": true, "gen_tunable": true,
	"policy_module": true, "interface": true, "template": true, "define": true,
}

// CallerRef identifies one macro that invokes another.
type CallerRef struct {
	Name       string
	SourceFile string
	Line       int
}

// callGraph holds callee and caller edges between macro names. Edges only
// connect names present in the index; references to unknown names are kept
// as dangling callees and never traversed.
type callGraph struct {
	callees  map[string][]string
	dangling map[string][]string
	callers  map[string][]CallerRef
}

// buildCallGraph lexically extracts candidate call names (identifier tokens
// immediately followed by a paren) from every definition body and records
// the direct caller/callee edges.
func buildCallGraph(ix *Index) *callGraph {
	g := &callGraph{
		callees:  make(map[string][]string),
		dangling: make(map[string][]string),
		callers:  make(map[string][]CallerRef),
	}

	for _, def := range ix.ordered {
		seen := make(map[string]bool)
		for _, callee := range extractCallNames(def.Body) {
			if callee == def.Name || seen[callee] {
				continue
			}
			seen[callee] = true
			if ix.Contains(callee) {
				g.callees[def.Name] = append(g.callees[def.Name], callee)
				g.callers[callee] = append(g.callers[callee], CallerRef{
					Name:       def.Name,
					SourceFile: def.SourceFile,
					Line:       def.Line,
				})
			} else {
				g.dangling[def.Name] = append(g.dangling[def.Name], callee)
			}
		}
	}
	return g
}

// extractCallNames returns identifiers immediately followed by '(' in body
// order, skipping comment lines and reserved statement keywords.
func extractCallNames(body string) []string {
	var names []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for i := 0; i < len(line); i++ {
			if !isIdentStart(line[i]) {
				continue
			}
			j := i + 1
			for j < len(line) && isIdentByte(line[j]) {
				j++
			}
			name := line[i:j]
			if j < len(line) && line[j] == '(' && !ReservedWords[name] {
				names = append(names, name)
			}
			i = j
		}
	}
	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// Callers returns every macro whose body directly invokes name, sorted by
// caller name. The macro itself must exist in the index.
func (ix *Index) Callers(name string) ([]CallerRef, error) {
	if !ix.Contains(name) {
		return nil, fmt.Errorf("macro %q: %w", name, apperrors.ErrNotFound)
	}
	refs := append([]CallerRef(nil), ix.graph.callers[name]...)
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Callees returns the in-index macros directly invoked by name, in body
// order.
func (ix *Index) Callees(name string) []string {
	return ix.graph.callees[name]
}

// DanglingCallees returns call references in name's body that resolve to no
// loaded definition. They are reported but never traversed.
func (ix *Index) DanglingCallees(name string) []string {
	return ix.graph.dangling[name]
}
