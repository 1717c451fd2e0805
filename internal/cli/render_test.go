package cli

import (
	"strings"
	"testing"

	"github.com/duynguyendang/semacro/pkg/expand"
	"github.com/duynguyendang/semacro/pkg/m4"
)

func TestRenderTree(t *testing.T) {
	useColor = false

	root := &expand.Node{
		Call: m4.Call{Name: "outer", Args: []string{"a"}},
		Text: "outer(a)",
		Children: []*expand.Node{
			{Text: "allow a b:dir search;", Depth: 1, Leaf: true},
			{
				Call:  m4.Call{Name: "inner", Args: []string{"a"}},
				Text:  "inner(a)",
				Depth: 1,
				Children: []*expand.Node{
					{Text: "allow a c:file read;", Depth: 2, Leaf: true},
				},
			},
		},
	}

	got := renderTree(root)
	want := strings.Join([]string{
		"outer(a)",
		"├── allow a b:dir search;",
		"└── inner(a)",
		"    └── allow a c:file read;",
	}, "\n")
	if got != want {
		t.Errorf("renderTree =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderTreeTruncated(t *testing.T) {
	useColor = false

	root := &expand.Node{
		Text: "outer(a)",
		Children: []*expand.Node{
			{Text: "deep(a)", Depth: 1, Truncated: true},
		},
	}
	got := renderTree(root)
	if !strings.Contains(got, "deep(a) ... (max depth reached)") {
		t.Errorf("missing truncation marker:\n%s", got)
	}
}

func TestColoredDisabled(t *testing.T) {
	useColor = false
	if got := colored("text", ansiBold); got != "text" {
		t.Errorf("colored = %q", got)
	}

	useColor = true
	defer func() { useColor = false }()
	if got := colored("text", ansiBold); got != ansiBold+"text"+ansiReset {
		t.Errorf("colored = %q", got)
	}
}
