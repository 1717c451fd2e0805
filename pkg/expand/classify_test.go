package expand

import (
	"strings"
	"testing"
)

func TestClassifyLine(t *testing.T) {
	ix := loadExpandIndex(t)

	tests := []struct {
		line string
		want LineKind
	}{
		{"", LineBlank},
		{"   \t", LineBlank},
		{"# refpolicy comment", LineComment},
		{"allow $1 var_t:dir search_dir_perms;", LineAVRule},
		{"dontaudit ntpd_t shadow_t:file read;", LineAVRule},
		{"neverallow ~ntpd_t ntpd_exec_t:file entrypoint;", LineAVRule},
		{"type_transition ntpd_t var_run_t:file ntpd_var_run_t;", LineTransition},
		{"range_transition initrc_t ntpd_exec_t:process s0;", LineTransition},
		{"type var_run_t;", LineDeclaration},
		{"gen_require(`", LineDeclaration},
		{"attribute file_type;", LineDeclaration},
		{"filetrans_pattern($1, var_run_t, $3, $2, $4)", LineCall},
		{"files_search_var(ntpd_t)", LineCall},
		{"optional_policy(`", LineText},
		{"')", LineText},
	}
	for _, tt := range tests {
		if got := ClassifyLine(tt.line, ix).Kind; got != tt.want {
			t.Errorf("ClassifyLine(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestClassifyLineBareMacroName(t *testing.T) {
	ix := loadExpandIndex(t)

	cl := ClassifyLine("files_search_var", ix)
	if cl.Kind != LineCall || cl.Call.Name != "files_search_var" || len(cl.Call.Args) != 0 {
		t.Errorf("bare known name: %+v", cl)
	}

	// A bare unknown identifier is plain text, and without an index nothing
	// is a bare call.
	if got := ClassifyLine("not_a_macro", ix).Kind; got != LineText {
		t.Errorf("bare unknown name = %d, want LineText", got)
	}
	if got := ClassifyLine("files_search_var", nil).Kind; got != LineText {
		t.Errorf("nil index = %d, want LineText", got)
	}
}

func TestClassifyLineCallArgs(t *testing.T) {
	cl := ClassifyLine("filetrans_pattern(ntpd_t, var_run_t, file, ntpd_var_run_t, )", nil)
	if cl.Kind != LineCall {
		t.Fatalf("kind = %d", cl.Kind)
	}
	want := []string{"ntpd_t", "var_run_t", "file", "ntpd_var_run_t", ""}
	if len(cl.Call.Args) != len(want) {
		t.Fatalf("args = %#v", cl.Call.Args)
	}
	for i, a := range want {
		if cl.Call.Args[i] != a {
			t.Errorf("arg %d = %q, want %q", i, cl.Call.Args[i], a)
		}
	}
}

func TestStripRequireBlocks(t *testing.T) {
	body := "gen_require(`\n\ttype var_t, var_run_t;\n')\n\nallow $1 var_t:dir search;\n"
	got := stripRequireBlocks(body)
	if strings.Contains(got, "gen_require") || strings.Contains(got, "var_run_t;") {
		t.Errorf("require block survived: %q", got)
	}
	if !strings.Contains(got, "allow $1 var_t:dir search;") {
		t.Errorf("rule line lost: %q", got)
	}

	// Unbalanced blocks are left alone rather than guessed at.
	broken := "gen_require(`\ntype var_t;\nallow x y:z w;"
	if got := stripRequireBlocks(broken); got != broken {
		t.Errorf("unbalanced block was modified: %q", got)
	}
}
