// Package policy builds and queries the read-only macro definition index
// for a reference policy include tree. The index is constructed once per
// load and is safe to share across any number of queries.
package policy

import (
	"fmt"
	"strings"

	"github.com/duynguyendang/semacro/pkg/m4"
)

// MacroDef is one parsed macro definition. Immutable after load.
type MacroDef struct {
	Name       string
	Kind       m4.Kind
	Body       string
	SourceFile string // path relative to the include root
	Line       int
	Category   string // leading path segment, e.g. "kernel", "services"
}

// Location returns the file:line position for disambiguation output.
func (d *MacroDef) Location() string {
	return fmt.Sprintf("%s:%d", d.SourceFile, d.Line)
}

// DisplayBody renders the definition in its original source form.
func (d *MacroDef) DisplayBody() string {
	return fmt.Sprintf("%s(`%s',`\n%s\n')", d.Kind, d.Name, d.Body)
}

// IsLiteralDefine reports whether the definition is a pure text substitution
// (a define with no positional parameters, typically a permission set).
// These are inlined at the call site rather than expanded as tree nodes.
func (d *MacroDef) IsLiteralDefine() bool {
	return d.Kind == m4.KindDefine && !strings.ContainsRune(d.Body, '$')
}

// Categories lists the recognized policy module groups.
var Categories = []string{
	"kernel", "system", "admin", "apps", "roles",
	"services", "contrib", "distributed", "support",
}

// categoryOf derives the category from the leading directory segment of a
// relative source path.
func categoryOf(relPath string) string {
	seg, _, found := strings.Cut(relPath, "/")
	if !found {
		return ""
	}
	return seg
}
