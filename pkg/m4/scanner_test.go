package m4

import (
	"strings"
	"testing"
)

const sampleFile = `## <summary>Test interfaces.</summary>

interface(` + "`files_search_var'" + `,` + "`" + `
	gen_require(` + "`" + `
		type var_t;
	')

	allow $1 var_t:dir search_dir_perms;
')

template(` + "`files_base_template'" + `,` + "`" + `
	type $1_t;
	allow $1_t self:process signal;
')

define(` + "`search_dir_perms'" + `,` + "`{ getattr search open }'" + `)
`

func TestScanDefinitions(t *testing.T) {
	defs, errs := ScanDefinitions(sampleFile)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}

	want := []struct {
		name string
		kind Kind
		line int
	}{
		{"files_search_var", KindInterface, 3},
		{"files_base_template", KindTemplate, 11},
		{"search_dir_perms", KindDefine, 16},
	}
	for i, w := range want {
		if defs[i].Name != w.name {
			t.Errorf("def %d: name = %q, want %q", i, defs[i].Name, w.name)
		}
		if defs[i].Kind != w.kind {
			t.Errorf("def %d: kind = %q, want %q", i, defs[i].Kind, w.kind)
		}
		if defs[i].Line != w.line {
			t.Errorf("def %d: line = %d, want %d", i, defs[i].Line, w.line)
		}
	}

	// The nested gen_require quote pair stays inside the body.
	if !strings.Contains(defs[0].Body, "gen_require(`") {
		t.Errorf("body lost nested quoted block: %q", defs[0].Body)
	}
	if !strings.Contains(defs[0].Body, "allow $1 var_t:dir search_dir_perms;") {
		t.Errorf("body missing rule line: %q", defs[0].Body)
	}
	if defs[2].Body != "{ getattr search open }" {
		t.Errorf("define body = %q", defs[2].Body)
	}
}

func TestScanDefinitionsUnbalanced(t *testing.T) {
	text := "interface(`good',`\nallow $1 self:file read;\n')\n" +
		"interface(`broken',`\nallow $1 self:file write;\n" // never closed

	defs, errs := ScanDefinitions(text)
	if len(defs) != 1 || defs[0].Name != "good" {
		t.Fatalf("expected only the balanced definition, got %v", defs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "broken") {
		t.Errorf("error should name the definition: %v", errs[0])
	}
}

func TestScanDefinitionsMidLineIgnored(t *testing.T) {
	// Definition keywords are only recognized at line start.
	text := "# see interface(`not_a_def',`...')\n" +
		"interface(`real',`\nallow $1 self:dir search;\n')\n"
	defs, errs := ScanDefinitions(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(defs) != 1 || defs[0].Name != "real" {
		t.Fatalf("got %v", defs)
	}
}

func TestCloseQuote(t *testing.T) {
	tests := []struct {
		text  string
		start int
		want  int
	}{
		{"abc'", 0, 3},
		{"a`b'c'", 0, 5},   // nested pair is skipped
		{"no close", 0, -1},
		{"`x'", 1, 2},
	}
	for _, tt := range tests {
		if got := CloseQuote(tt.text, tt.start); got != tt.want {
			t.Errorf("CloseQuote(%q, %d) = %d, want %d", tt.text, tt.start, got, tt.want)
		}
	}
}
