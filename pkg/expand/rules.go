package expand

import (
	"strings"
)

// RuleKind tags the primitive statement variants.
type RuleKind string

const (
	RuleAllow           RuleKind = "allow"
	RuleDontaudit       RuleKind = "dontaudit"
	RuleAuditallow      RuleKind = "auditallow"
	RuleNeverallow      RuleKind = "neverallow"
	RuleTypeTransition  RuleKind = "type_transition"
	RuleTypeChange      RuleKind = "type_change"
	RuleTypeMember      RuleKind = "type_member"
	RuleRoleTransition  RuleKind = "role_transition"
	RuleRangeTransition RuleKind = "range_transition"
)

// IsAV reports whether the kind carries a permission set.
func (k RuleKind) IsAV() bool {
	switch k {
	case RuleAllow, RuleDontaudit, RuleAuditallow, RuleNeverallow:
		return true
	}
	return false
}

// Rule is a structured primitive statement. AV kinds use Perms; transition
// kinds use NewType and the optional Filename of a named transition.
type Rule struct {
	Kind     RuleKind
	Source   string
	Target   string
	Class    string
	Perms    []string // AV kinds only, first-seen order
	NewType  string   // transition kinds only
	Filename string   // named type_transition only
}

// String renders the rule in policy source form.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	b.WriteByte(' ')
	b.WriteString(r.Source)
	b.WriteByte(' ')
	b.WriteString(r.Target)
	b.WriteByte(':')
	b.WriteString(r.Class)
	b.WriteByte(' ')
	if r.Kind.IsAV() {
		if len(r.Perms) == 1 {
			b.WriteString(r.Perms[0])
		} else {
			b.WriteString("{ ")
			b.WriteString(strings.Join(r.Perms, " "))
			b.WriteString(" }")
		}
	} else {
		b.WriteString(r.NewType)
		if r.Filename != "" {
			b.WriteString(" \"")
			b.WriteString(r.Filename)
			b.WriteString("\"")
		}
	}
	b.WriteByte(';')
	return b.String()
}

// ParseRule parses a primitive statement line into a structured rule. The
// line is expected to already have defines resolved and braces flattened.
// Returns false for lines that are not recognizable rules.
func ParseRule(line string) (Rule, bool) {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
	fields := splitRuleFields(line)
	if len(fields) < 2 {
		return Rule{}, false
	}

	kind := RuleKind(fields[0])
	switch {
	case kind.IsAV():
		return parseAVRule(kind, fields[1:])
	case kind == RuleTypeTransition, kind == RuleTypeChange, kind == RuleTypeMember,
		kind == RuleRoleTransition, kind == RuleRangeTransition:
		return parseTransitionRule(kind, fields[1:])
	}
	return Rule{}, false
}

// parseAVRule parses "source target:class perm" or "... { perm perm }".
func parseAVRule(kind RuleKind, fields []string) (Rule, bool) {
	if len(fields) < 3 {
		return Rule{}, false
	}
	target, class, ok := strings.Cut(fields[1], ":")
	if !ok {
		return Rule{}, false
	}

	perms := parsePermSet(fields[2:])
	if len(perms) == 0 {
		return Rule{}, false
	}
	return Rule{
		Kind:   kind,
		Source: fields[0],
		Target: target,
		Class:  class,
		Perms:  perms,
	}, true
}

// parseTransitionRule parses "source target:class new_type" with an
// optional quoted filename.
func parseTransitionRule(kind RuleKind, fields []string) (Rule, bool) {
	if len(fields) < 3 {
		return Rule{}, false
	}
	target, class, ok := strings.Cut(fields[1], ":")
	if !ok {
		return Rule{}, false
	}
	r := Rule{
		Kind:    kind,
		Source:  fields[0],
		Target:  target,
		Class:   class,
		NewType: fields[2],
	}
	if len(fields) >= 4 {
		r.Filename = strings.Trim(fields[3], `"`)
	}
	return r, true
}

// parsePermSet flattens "{ a b c }" or a bare permission word list into an
// ordered, duplicate-free permission slice.
func parsePermSet(fields []string) []string {
	var perms []string
	seen := make(map[string]bool)
	for _, f := range fields {
		f = strings.Trim(f, "{}")
		if f == "" {
			continue
		}
		if !seen[f] {
			seen[f] = true
			perms = append(perms, f)
		}
	}
	return perms
}

// splitRuleFields splits on whitespace but keeps a quoted filename or a
// braced permission set together as trailing fields.
func splitRuleFields(line string) []string {
	var fields []string
	i := 0
	for i < len(line) {
		switch {
		case line[i] == ' ' || line[i] == '\t':
			i++
		case line[i] == '"':
			j := strings.IndexByte(line[i+1:], '"')
			if j == -1 {
				fields = append(fields, line[i:])
				return fields
			}
			fields = append(fields, line[i:i+j+2])
			i += j + 2
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			fields = append(fields, line[i:j])
			i = j
		}
	}
	return fields
}

// mergeKey identifies AV rules eligible for permission union.
type mergeKey struct {
	kind                  RuleKind
	source, target, class string
}

// transKey identifies a transition rule by full structural equality.
type transKey struct {
	kind                                     RuleKind
	source, target, class, newType, filename string
}

// Merge walks rules in order and unions AV permission sets that share
// (kind, source, target, class) into the first-seen rule, preserving its
// position. Transition rules are deduplicated by full structural equality.
// Merging is idempotent: merging an already-merged list returns it
// unchanged.
func Merge(rules []Rule) []Rule {
	var out []Rule
	avAt := make(map[mergeKey]int)
	seenTransition := make(map[transKey]bool)

	for _, r := range rules {
		if r.Kind.IsAV() {
			key := mergeKey{r.Kind, r.Source, r.Target, r.Class}
			if at, ok := avAt[key]; ok {
				out[at].Perms = unionPerms(out[at].Perms, r.Perms)
				continue
			}
			merged := r
			merged.Perms = append([]string(nil), r.Perms...)
			avAt[key] = len(out)
			out = append(out, merged)
			continue
		}

		key := transKey{r.Kind, r.Source, r.Target, r.Class, r.NewType, r.Filename}
		if seenTransition[key] {
			continue
		}
		seenTransition[key] = true
		out = append(out, r)
	}
	return out
}

func unionPerms(dst, add []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, p := range dst {
		seen[p] = true
	}
	for _, p := range add {
		if !seen[p] {
			seen[p] = true
			dst = append(dst, p)
		}
	}
	return dst
}
