package policy

import (
	"errors"
	"testing"
	"testing/fstest"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/m4"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"kernel/files.if": {Data: []byte(
			"interface(`files_pid_filetrans',`\n" +
				"\tgen_require(`\n" +
				"\t\ttype var_t, var_run_t;\n" +
				"\t')\n" +
				"\n" +
				"\tallow $1 var_t:dir search_dir_perms;\n" +
				"\tfiletrans_pattern($1, var_run_t, $3, $2, $4)\n" +
				"')\n" +
				"\n" +
				"interface(`files_search_var',`\n" +
				"\tgen_require(`\n" +
				"\t\ttype var_t;\n" +
				"\t')\n" +
				"\n" +
				"\tallow $1 var_t:dir search_dir_perms;\n" +
				"')\n")},
		"support/file_patterns.spt": {Data: []byte(
			"define(`filetrans_pattern',`\n" +
				"\tallow $1 $2:dir rw_dir_perms;\n" +
				"\ttype_transition $1 $2:$3 $4 $5;\n" +
				"')\n")},
		"support/obj_perms.spt": {Data: []byte(
			"define(`search_dir_perms',`{ getattr search open }')\n" +
				"define(`list_dir_perms',`{ search_dir_perms read lock ioctl }')\n" +
				"define(`rw_dir_perms',`{ list_dir_perms add_name remove_name write }')\n")},
		"system/dup.if": {Data: []byte(
			"interface(`files_search_var',`\n" +
				"\tallow $1 var_t:dir search;\n" +
				"')\n")},
		"services/ntp.if": {Data: []byte(
			"interface(`ntp_pid_filetrans',`\n" +
				"\tfiles_pid_filetrans($1, ntpd_var_run_t, file)\n" +
				"')\n")},
	}
}

func loadTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Load(testFS())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ix
}

func TestLookup(t *testing.T) {
	ix := loadTestIndex(t)

	def, dups, err := ix.Lookup("files_pid_filetrans")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if def.Kind != m4.KindInterface || def.SourceFile != "kernel/files.if" || def.Category != "kernel" {
		t.Errorf("unexpected def: %+v", def)
	}
	if dups != 0 {
		t.Errorf("dups = %d, want 0", dups)
	}

	_, _, err = ix.Lookup("no_such_macro")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestLookupDuplicateTieBreak(t *testing.T) {
	ix := loadTestIndex(t)

	// files_search_var is defined in kernel/files.if and system/dup.if;
	// lexicographic path order makes the kernel one win.
	def, dups, err := ix.Lookup("files_search_var")
	if err != nil {
		t.Fatal(err)
	}
	if def.SourceFile != "kernel/files.if" {
		t.Errorf("first match from %s, want kernel/files.if", def.SourceFile)
	}
	if dups != 1 {
		t.Errorf("dups = %d, want 1", dups)
	}
}

func TestFind(t *testing.T) {
	ix := loadTestIndex(t)

	matches, err := ix.Find("pid_filetrans$")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, def := range matches {
		names = append(names, def.Name)
	}
	want := []string{"files_pid_filetrans", "ntp_pid_filetrans"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("Find = %v, want %v", names, want)
	}

	// Case-sensitive.
	matches, err = ix.Find("PID_FILETRANS")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("case-insensitive match: %v", matches)
	}
}

func TestFindInvalidPattern(t *testing.T) {
	ix := loadTestIndex(t)
	_, err := ix.Find("[unclosed")
	if !errors.Is(err, apperrors.ErrInvalidPattern) {
		t.Errorf("want ErrInvalidPattern, got %v", err)
	}
}

func TestList(t *testing.T) {
	ix := loadTestIndex(t)

	all := ix.List("all")
	if len(all) != ix.Len() {
		t.Errorf("List(all) = %d entries, want %d", len(all), ix.Len())
	}

	kernel := ix.List("kernel")
	for _, def := range kernel {
		if def.Category != "kernel" {
			t.Errorf("List(kernel) returned %s from %s", def.Name, def.Category)
		}
	}
	if len(kernel) != 2 {
		t.Errorf("List(kernel) = %d entries, want 2", len(kernel))
	}

	if got := ix.List("nonexistent"); len(got) != 0 {
		t.Errorf("List(nonexistent) = %v", got)
	}
}

func TestCallers(t *testing.T) {
	ix := loadTestIndex(t)

	refs, err := ix.Callers("filetrans_pattern")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Name != "files_pid_filetrans" {
		t.Errorf("Callers(filetrans_pattern) = %+v", refs)
	}

	refs, err = ix.Callers("files_pid_filetrans")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Name != "ntp_pid_filetrans" {
		t.Errorf("Callers(files_pid_filetrans) = %+v", refs)
	}

	if _, err := ix.Callers("no_such_macro"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestLoadSkipsMalformedFile(t *testing.T) {
	fsys := testFS()
	fsys["admin/broken.if"] = &fstest.MapFile{Data: []byte(
		"interface(`broken_macro',`\nallow $1 self:file read;\n")}

	ix, err := Load(fsys)
	if err != nil {
		t.Fatalf("a malformed file must not abort the load: %v", err)
	}
	if ix.Contains("broken_macro") {
		t.Error("malformed definition should have been skipped")
	}
	if !ix.Contains("files_pid_filetrans") {
		t.Error("other files should still load")
	}
}

func TestLoadEmptyTree(t *testing.T) {
	_, err := Load(fstest.MapFS{"readme.md": {Data: []byte("nothing")}})
	if !errors.Is(err, apperrors.ErrConfig) {
		t.Errorf("want ErrConfig, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	ix := loadTestIndex(t)
	near := ix.Suggest("files_pid_filetran", 3)
	if len(near) == 0 || near[0] != "files_pid_filetrans" {
		t.Errorf("Suggest = %v", near)
	}
}

func TestStats(t *testing.T) {
	ix := loadTestIndex(t)
	stats := ix.Stats()
	if stats.Defines != 4 || stats.Interfaces != 4 {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.HasKernel || !stats.HasSupport {
		t.Errorf("stats = %+v", stats)
	}
}
