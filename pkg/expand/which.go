package expand

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/duynguyendang/semacro/pkg/m4"
	"github.com/duynguyendang/semacro/pkg/policy"
)

// searchDepth bounds expansion during rule search; candidates are expanded
// many times with trial arguments, so the bound is tighter than the default.
const searchDepth = 5

// searchCacheSize bounds the memoized expansion cache for one search.
const searchCacheSize = 4096

// classGuesses are object classes tried for transition searches when the
// macro takes a class parameter.
var classGuesses = []string{"file", "dir", "sock_file", "lnk_file"}

// Query describes a rule search: which macros would grant source the given
// permissions on target (AV mode), or create NewType under target
// (transition mode).
type Query struct {
	Source     string
	Target     string
	Perms      []string // AV mode: every permission must be granted
	NewType    string   // transition mode
	Class      string   // optional object class filter
	Filename   string   // optional named-transition filter
	Transition bool
}

// Match is one macro whose expansion produces a matching rule.
type Match struct {
	Def     *policy.MacroDef
	CallSig string // the trial invocation that produced the match
}

// Search iterates the index, expands each candidate with trial arguments,
// and reports macros whose merged rule set satisfies the query. Expansion
// results are memoized per (name, args) so repeated trials across
// candidates stay linear.
func Search(ix *policy.Index, q Query) []Match {
	eng := &Engine{Index: ix, MaxDepth: searchDepth}
	cache, _ := lru.New[string, []Rule](searchCacheSize)

	expand := func(call m4.Call) []Rule {
		key := call.Name + "\x00" + strings.Join(call.Args, "\x1f")
		if rules, ok := cache.Get(key); ok {
			return rules
		}
		rules := eng.Rules(call)
		cache.Add(key, rules)
		return rules
	}

	var matches []Match
	seen := make(map[string]bool)

	for _, def := range ix.All() {
		if seen[def.Name] {
			continue
		}
		if !isCandidate(def, q) {
			continue
		}

		arity := m4.MaxArg(def.Body)
		for _, args := range trialArgs(q, arity) {
			rules := expand(m4.Call{Name: def.Name, Args: args})
			if len(rules) == 0 {
				continue
			}
			if ruleSetMatches(rules, q) {
				seen[def.Name] = true
				matches = append(matches, Match{Def: def, CallSig: callSig(def.Name, args)})
			}
			break // trials are fallbacks, not alternatives: first producing rules decides
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Def.Name < matches[j].Def.Name })
	return matches
}

// isCandidate cheaply prefilters definitions before the expensive
// expansion: the target (or new type) must appear in the body or name.
func isCandidate(def *policy.MacroDef, q Query) bool {
	if def.IsLiteralDefine() {
		return false
	}
	terms := []string{q.Target}
	if q.Transition {
		terms = append(terms, q.NewType)
	}
	for _, term := range terms {
		if strings.Contains(def.Body, term) || strings.Contains(def.Name, term) {
			return true
		}
	}
	return false
}

// trialArgs builds candidate argument lists. Macros place the interesting
// types at different positions, so transition searches try several
// arrangements; AV searches use the conventional (source, target, perm)
// ordering padded to arity.
func trialArgs(q Query, arity int) [][]string {
	pad := func(args []string) []string {
		for len(args) < arity {
			args = append(args, "")
		}
		return args
	}

	if !q.Transition {
		args := []string{q.Source}
		if arity >= 2 {
			args = append(args, q.Target)
		}
		if arity >= 3 {
			args = append(args, strings.Join(q.Perms, " "))
		}
		return [][]string{pad(args)}
	}

	// An explicit class filter replaces the guess list: the first trial that
	// produces rules decides, so guessing a class the query rejects would
	// mask the match.
	guesses := classGuesses
	if q.Class != "" {
		guesses = []string{q.Class}
	}

	var trials [][]string
	switch {
	case arity <= 1:
		trials = append(trials, pad([]string{q.Source}))
	case arity == 2:
		trials = append(trials, pad([]string{q.Source, q.NewType}))
		trials = append(trials, pad([]string{q.Source, q.Target}))
	case arity == 3:
		for _, cls := range guesses {
			trials = append(trials, pad([]string{q.Source, q.NewType, cls}))
		}
		trials = append(trials, pad([]string{q.Source, q.Target, q.NewType}))
	default:
		for _, cls := range guesses {
			trials = append(trials, pad([]string{q.Source, q.NewType, cls}))
			trials = append(trials, pad([]string{q.Source, q.Target, q.NewType, cls}))
		}
		trials = append(trials, pad([]string{q.Source, q.NewType}))
		trials = append(trials, pad([]string{q.Source, q.Target, q.NewType}))
	}
	return trials
}

// ruleSetMatches reports whether any rule in the merged set satisfies the
// query.
func ruleSetMatches(rules []Rule, q Query) bool {
	for _, r := range rules {
		if q.Transition {
			if r.Kind != RuleTypeTransition {
				continue
			}
			if r.Source != q.Source || r.Target != q.Target || r.NewType != q.NewType {
				continue
			}
			if q.Class != "" && r.Class != q.Class {
				continue
			}
			if q.Filename != "" && r.Filename != q.Filename {
				continue
			}
			return true
		}

		if r.Kind != RuleAllow || r.Source != q.Source || r.Target != q.Target {
			continue
		}
		if q.Class != "" && r.Class != q.Class {
			continue
		}
		if permsSubset(q.Perms, r.Perms) {
			return true
		}
	}
	return false
}

func permsSubset(want, have []string) bool {
	set := make(map[string]bool, len(have))
	for _, p := range have {
		set[p] = true
	}
	for _, p := range want {
		if !set[p] {
			return false
		}
	}
	return true
}

func callSig(name string, args []string) string {
	var kept []string
	for _, a := range args {
		if a != "" {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return name
	}
	return name + "(" + strings.Join(kept, ", ") + ")"
}
