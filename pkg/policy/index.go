package policy

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/agext/levenshtein"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/m4"
)

// Index is the definition catalog built once per load. Lookups are served
// from maps; ordered holds definitions in deterministic load order
// (lexicographic path, then line), which fixes the duplicate tie-break.
type Index struct {
	byName  map[string][]*MacroDef
	ordered []*MacroDef
	graph   *callGraph
}

// Lookup returns the first-loaded definition for name, plus the number of
// duplicate definitions that share it. A miss is a wrapped ErrNotFound.
func (ix *Index) Lookup(name string) (*MacroDef, int, error) {
	defs := ix.byName[name]
	if len(defs) == 0 {
		return nil, 0, fmt.Errorf("macro %q: %w", name, apperrors.ErrNotFound)
	}
	return defs[0], len(defs) - 1, nil
}

// Contains reports whether any definition with the given name exists.
func (ix *Index) Contains(name string) bool {
	return len(ix.byName[name]) > 0
}

// Len returns the number of loaded definitions, duplicates included.
func (ix *Index) Len() int {
	return len(ix.ordered)
}

// All returns every definition in load order. Callers must not mutate the
// returned slice or the definitions.
func (ix *Index) All() []*MacroDef {
	return ix.ordered
}

// Find returns definitions whose name matches the given regular expression,
// sorted by name. The pattern is case-sensitive; a malformed pattern is a
// wrapped ErrInvalidPattern, never a panic.
func (ix *Index) Find(pattern string) ([]*MacroDef, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPattern, err)
	}

	var matches []*MacroDef
	for _, def := range ix.ordered {
		if re.MatchString(def.Name) {
			matches = append(matches, def)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

// List returns definitions filtered by category, sorted by name. An empty
// category or "all" returns everything.
func (ix *Index) List(category string) []*MacroDef {
	var out []*MacroDef
	for _, def := range ix.ordered {
		if category != "" && category != "all" && def.Category != category {
			continue
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Suggest returns up to max macro names similar to the given one, for
// "did you mean" hints after a failed lookup.
func (ix *Index) Suggest(name string, max int) []string {
	type scored struct {
		name  string
		score float64
	}
	var candidates []scored
	for candidate := range ix.byName {
		if candidate == name {
			continue
		}
		score := levenshtein.Similarity(name, candidate, nil)
		if score >= 0.72 {
			candidates = append(candidates, scored{candidate, score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}

// Stats summarizes the loaded corpus, used for completeness warnings.
type Stats struct {
	Definitions int
	Defines     int
	Interfaces  int
	Templates   int
	HasKernel   bool
	HasSupport  bool
}

// Stats returns corpus statistics.
func (ix *Index) Stats() Stats {
	var s Stats
	s.Definitions = len(ix.ordered)
	for _, def := range ix.ordered {
		switch def.Kind {
		case m4.KindDefine:
			s.Defines++
		case m4.KindInterface:
			s.Interfaces++
		case m4.KindTemplate:
			s.Templates++
		}
		switch def.Category {
		case "kernel":
			s.HasKernel = true
		case "support":
			s.HasSupport = true
		}
	}
	return s
}
