// Package expand implements recursive macro expansion: substituted bodies
// are classified line by line, nested calls are resolved against the
// definition index, and the resulting tree can be flattened into a
// deduplicated, permission-merged rule list.
package expand

import (
	"strings"

	"github.com/duynguyendang/semacro/pkg/m4"
	"github.com/duynguyendang/semacro/pkg/policy"
)

// LineKind classifies one line of a substituted macro body.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineCall        // nested macro call, or a bare macro name
	LineAVRule      // allow / dontaudit / auditallow / neverallow
	LineTransition  // type_transition and friends
	LineDeclaration // type/attribute/role declarations, require blocks
	LineText        // anything else (m4 wrappers, stray quotes, ...)
)

var avKeywords = map[string]bool{
	"allow": true, "dontaudit": true, "auditallow": true, "neverallow": true,
}

var transitionKeywords = map[string]bool{
	"type_transition": true, "type_change": true, "type_member": true,
	"role_transition": true, "range_transition": true,
}

var declarationKeywords = map[string]bool{
	"type": true, "attribute": true, "typeattribute": true, "typealias": true,
	"bool": true, "role": true, "require": true, "gen_require": true,
	"gen_tunable": true, "policy_module": true,
}

// Classified is the result of classifying a single line.
type Classified struct {
	Kind LineKind
	Text string  // trimmed line text
	Call m4.Call // populated for LineCall
}

// ClassifyLine classifies one line of a macro body. The index is consulted
// only to decide whether a bare identifier line is a macro reference.
func ClassifyLine(line string, ix *policy.Index) Classified {
	text := strings.TrimSpace(line)
	switch {
	case text == "":
		return Classified{Kind: LineBlank}
	case strings.HasPrefix(text, "#"):
		return Classified{Kind: LineComment, Text: text}
	}

	word := leadingIdent(text)
	switch {
	case avKeywords[word]:
		return Classified{Kind: LineAVRule, Text: text}
	case transitionKeywords[word]:
		return Classified{Kind: LineTransition, Text: text}
	case declarationKeywords[word]:
		return Classified{Kind: LineDeclaration, Text: text}
	}

	// A known identifier followed by '(' is a nested call. The reserved
	// m4 wrappers (optional_policy, tunable_policy, ifdef...) fall through
	// to LineText; the calls inside their quoted bodies are still seen as
	// ordinary lines.
	if word != "" && len(text) > len(word) && text[len(word)] == '(' && !policy.ReservedWords[word] {
		if call, ok := parseInlineCall(text, word); ok {
			return Classified{Kind: LineCall, Text: text, Call: call}
		}
	}

	// A bare macro name propagates the caller's no-argument behavior:
	// unsupplied parameters surface as empty text further down.
	if word == text && ix != nil && ix.Contains(word) {
		return Classified{Kind: LineCall, Text: text, Call: m4.Call{Name: word}}
	}

	return Classified{Kind: LineText, Text: text}
}

// parseInlineCall extracts name(args...) from the start of a line, ignoring
// any trailing text after the closing paren.
func parseInlineCall(text, name string) (m4.Call, bool) {
	depth := 0
	inQuote := false
	for i := len(name); i < len(text); i++ {
		switch text[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
				if depth == 0 {
					args, err := m4.SplitArgs(text[len(name)+1 : i])
					if err != nil {
						return m4.Call{}, false
					}
					return m4.Call{Name: name, Args: args}, true
				}
			}
		}
	}
	return m4.Call{}, false
}

func leadingIdent(s string) string {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return s[:i]
}

// stripRequireBlocks removes gen_require(`...') and require blocks from a
// body before expansion. They declare types used by the body but grant
// nothing.
func stripRequireBlocks(body string) string {
	for {
		idx := indexRequire(body)
		if idx == -1 {
			return body
		}
		open := strings.Index(body[idx:], "(`")
		if open == -1 {
			return body
		}
		start := idx + open + 2
		end := m4.CloseQuote(body, start)
		if end == -1 {
			// Unbalanced require block; leave the body as-is rather than
			// guessing where it ends.
			return body
		}
		// Swallow the closing paren and a trailing newline if present.
		rest := body[end+1:]
		rest = strings.TrimPrefix(rest, ")")
		rest = strings.TrimPrefix(rest, "\n")
		body = body[:idx] + rest
	}
}

func indexRequire(body string) int {
	for i := 0; i+11 <= len(body); i++ {
		if !strings.HasPrefix(body[i:], "gen_require") {
			continue
		}
		if i > 0 && isWordByte(body[i-1]) {
			continue
		}
		return i
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
