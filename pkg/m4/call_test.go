package m4

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
)

func TestParseCall(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantArgs []string
	}{
		{"files_pid_filetrans", "files_pid_filetrans", nil},
		{"  files_pid_filetrans  ", "files_pid_filetrans", nil},
		{"foo()", "foo", nil},
		{"foo(a)", "foo", []string{"a"}},
		{"files_pid_filetrans(ntpd_t, ntpd_var_run_t, file)", "files_pid_filetrans",
			[]string{"ntpd_t", "ntpd_var_run_t", "file"}},
		{`foo(a, "literal, with comma", b)`, "foo",
			[]string{"a", `"literal, with comma"`, "b"}},
		{"foo(bar(x, y), z)", "foo", []string{"bar(x, y)", "z"}},
		{"foo(a, , c)", "foo", []string{"a", "", "c"}},
	}
	for _, tt := range tests {
		call, err := ParseCall(tt.in)
		if err != nil {
			t.Errorf("ParseCall(%q) error: %v", tt.in, err)
			continue
		}
		if call.Name != tt.wantName {
			t.Errorf("ParseCall(%q).Name = %q, want %q", tt.in, call.Name, tt.wantName)
		}
		if !reflect.DeepEqual(call.Args, tt.wantArgs) {
			t.Errorf("ParseCall(%q).Args = %#v, want %#v", tt.in, call.Args, tt.wantArgs)
		}
	}
}

func TestParseCallErrors(t *testing.T) {
	bad := []string{
		"",
		"foo(a, b",
		"foo(a))",
		`foo("unterminated)`,
		"foo bar(x)",
		"not a name!",
	}
	for _, in := range bad {
		if _, err := ParseCall(in); !errors.Is(err, apperrors.ErrParse) {
			t.Errorf("ParseCall(%q) = %v, want ErrParse", in, err)
		}
	}
}

func TestParseCallRoundTrip(t *testing.T) {
	call, err := ParseCall("foo(a, b)")
	if err != nil {
		t.Fatal(err)
	}
	if got := call.String(); got != "foo(a, b)" {
		t.Errorf("String() = %q", got)
	}
	if got := (Call{Name: "bare"}).String(); got != "bare" {
		t.Errorf("String() = %q", got)
	}
}
