// Package m4 implements the subset of the M4 macro language used by SELinux
// reference policy sources: backtick/apostrophe quoted definition bodies,
// call syntax, and positional argument substitution. It is not a general M4
// interpreter.
package m4

import (
	"fmt"
	"strings"
)

// Kind identifies which keyword introduced a macro definition.
type Kind string

const (
	KindInterface Kind = "interface"
	KindTemplate  Kind = "template"
	KindDefine    Kind = "define"
)

// Definition is a raw macro definition extracted from one source file.
// The body is quote-balanced; definitions whose quoting never closes are
// reported as a ParseError instead.
type Definition struct {
	Name string
	Kind Kind
	Body string
	Line int // 1-based line of the definition keyword
}

// ParseError describes a malformed definition. The surrounding file keeps
// loading; the offending definition is simply skipped.
type ParseError struct {
	Line int
	Msg  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// scanMode is the state of the quote tracker.
type scanMode int

const (
	modeCode   scanMode = iota // outside any quoted span
	modeQuoted                 // inside a backtick-quoted span
)

// quoteTracker is the explicit state machine behind body scanning: a nesting
// depth plus the current mode. An opening backtick increments the depth, a
// closing apostrophe decrements it.
type quoteTracker struct {
	depth int
	mode  scanMode
}

func (q *quoteTracker) step(ch byte) {
	switch ch {
	case '`':
		q.depth++
		q.mode = modeQuoted
	case '\'':
		if q.depth > 0 {
			q.depth--
		}
		if q.depth == 0 {
			q.mode = modeCode
		}
	}
}

// CloseQuote returns the index of the apostrophe that closes the quoted span
// which is already open (depth 1) at position start, or -1 if the quoting
// never returns to balance before end of text.
func CloseQuote(text string, start int) int {
	q := quoteTracker{depth: 1, mode: modeQuoted}
	for i := start; i < len(text); i++ {
		q.step(text[i])
		if q.depth == 0 {
			return i
		}
	}
	return -1
}

// ScanDefinitions extracts every interface, template, and define definition
// from raw file text. Malformed definitions are returned as ParseErrors; the
// scan continues with the remaining text.
func ScanDefinitions(text string) ([]Definition, []ParseError) {
	var defs []Definition
	var errs []ParseError

	line := 1
	i := 0
	for i < len(text) {
		if text[i] == '\n' {
			line++
			i++
			continue
		}
		// Definition keywords are only recognized at the start of a line.
		if i > 0 && text[i-1] != '\n' {
			i++
			continue
		}

		kind, hdrLen := matchKeyword(text[i:])
		if kind == "" {
			i++
			continue
		}

		name, bodyStart, ok := matchHeader(text, i+hdrLen)
		if !ok {
			i += hdrLen
			continue
		}

		bodyEnd := CloseQuote(text, bodyStart)
		if bodyEnd == -1 {
			errs = append(errs, ParseError{
				Line: line,
				Msg:  fmt.Sprintf("unbalanced quote in %s(`%s', ...)", kind, name),
			})
			// Nothing after an unterminated body can be trusted.
			break
		}

		defs = append(defs, Definition{
			Name: name,
			Kind: kind,
			Body: trimBody(text[bodyStart:bodyEnd]),
			Line: line,
		})

		line += strings.Count(text[i:bodyEnd], "\n")
		i = bodyEnd + 1
	}

	return defs, errs
}

// matchKeyword reports which definition keyword, if any, begins s, and how
// many bytes it spans. The keyword must be immediately followed by '('.
func matchKeyword(s string) (Kind, int) {
	for _, k := range []Kind{KindInterface, KindTemplate, KindDefine} {
		kw := string(k)
		if strings.HasPrefix(s, kw) && len(s) > len(kw) && s[len(kw)] == '(' {
			return k, len(kw)
		}
	}
	return "", 0
}

// matchHeader parses "(`name', `" starting at the opening paren, returning
// the macro name and the index where the body's quoted text begins.
func matchHeader(text string, i int) (string, int, bool) {
	if i >= len(text) || text[i] != '(' {
		return "", 0, false
	}
	i = skipSpace(text, i+1)
	if i >= len(text) || text[i] != '`' {
		return "", 0, false
	}
	nameStart := i + 1
	nameEnd := strings.IndexByte(text[nameStart:], '\'')
	if nameEnd <= 0 {
		return "", 0, false
	}
	name := text[nameStart : nameStart+nameEnd]
	if strings.ContainsAny(name, "\n`") {
		return "", 0, false
	}

	i = skipSpace(text, nameStart+nameEnd+1)
	if i >= len(text) || text[i] != ',' {
		return "", 0, false
	}
	i = skipSpace(text, i+1)
	if i >= len(text) || text[i] != '`' {
		return "", 0, false
	}
	return name, i + 1, true
}

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n') {
		i++
	}
	return i
}

// trimBody strips a single leading and trailing newline, matching how
// definition bodies are conventionally written on their own lines.
func trimBody(body string) string {
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")
	return body
}
