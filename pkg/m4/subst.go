package m4

import "strings"

// Substitute replaces positional tokens $1..$9 in body with the matching
// argument, or the empty string when the index exceeds the supplied count;
// M4 silently produces empty text for unset parameters. $* expands to the
// full argument list, comma-joined. $0, a trailing $, and $ followed by
// anything else pass through untouched.
//
// Substitution is a single pass: produced text is never re-scanned for
// further $N tokens.
func Substitute(body string, args []string) string {
	if !strings.ContainsRune(body, '$') {
		return body
	}

	var out strings.Builder
	out.Grow(len(body))

	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '$' || i+1 >= len(body) {
			out.WriteByte(ch)
			continue
		}
		next := body[i+1]
		switch {
		case next >= '1' && next <= '9':
			idx := int(next - '0')
			if idx <= len(args) {
				out.WriteString(args[idx-1])
			}
			i++
		case next == '*':
			out.WriteString(strings.Join(args, ","))
			i++
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}

// MaxArg returns the highest positional parameter referenced in body, used
// to estimate a macro's arity.
func MaxArg(body string) int {
	max := 0
	for i := 0; i+1 < len(body); i++ {
		if body[i] == '$' {
			next := body[i+1]
			if next >= '1' && next <= '9' {
				if n := int(next - '0'); n > max {
					max = n
				}
			}
		}
	}
	return max
}
