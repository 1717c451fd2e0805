package m4

import (
	"fmt"
	"strings"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
)

// Call is a parsed macro invocation. Arguments preserve their exact text,
// including nested quoted literals; a bare name has an empty argument list.
type Call struct {
	Name string
	Args []string
}

// String renders the call back to source form.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(c.Args, ", "))
}

// ParseCall parses a call string such as `name(arg1, arg2, "a, literal")`.
// A bare macro name yields an empty argument list. Unbalanced parentheses or
// quotes fail with a wrapped ErrParse.
func ParseCall(text string) (Call, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Call{}, fmt.Errorf("%w: empty call", apperrors.ErrParse)
	}

	open := strings.IndexByte(text, '(')
	if open == -1 {
		if !isIdent(text) {
			return Call{}, fmt.Errorf("%w: %q is not a macro name or call", apperrors.ErrParse, text)
		}
		return Call{Name: text}, nil
	}

	name := strings.TrimSpace(text[:open])
	if !isIdent(name) {
		return Call{}, fmt.Errorf("%w: %q is not a macro name", apperrors.ErrParse, name)
	}
	if !strings.HasSuffix(text, ")") {
		return Call{}, fmt.Errorf("%w: unbalanced parentheses in %q", apperrors.ErrParse, text)
	}

	args, err := SplitArgs(text[open+1 : len(text)-1])
	if err != nil {
		return Call{}, err
	}
	return Call{Name: name, Args: args}, nil
}

// SplitArgs splits an argument list on commas at paren depth 0 and outside
// double-quoted literals. Each argument is whitespace-trimmed. An empty
// input yields no arguments.
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var args []string
	var current strings.Builder
	depth := 0
	inQuote := false

	for _, r := range s {
		switch r {
		case '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case '(':
			if !inQuote {
				depth++
			}
			current.WriteRune(r)
		case ')':
			if !inQuote {
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("%w: unbalanced parentheses in arguments %q", apperrors.ErrParse, s)
				}
			}
			current.WriteRune(r)
		case ',':
			if !inQuote && depth == 0 {
				args = append(args, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: unterminated quoted literal in arguments %q", apperrors.ErrParse, s)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses in arguments %q", apperrors.ErrParse, s)
	}
	args = append(args, strings.TrimSpace(current.String()))
	return args, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
