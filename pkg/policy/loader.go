package policy

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/m4"
)

// Load walks an include tree and builds the definition index. Interface and
// template definitions live in .if files, define literals in .spt files;
// everything else is ignored.
//
// Per-file and per-definition failures are logged and absorbed so one bad
// file cannot block the rest of the corpus. Only a completely unreadable or
// empty tree is an error (wrapped ErrConfig).
func Load(fsys fs.FS) (*Index, error) {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".if") || strings.HasSuffix(path, ".spt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking include tree: %v", apperrors.ErrConfig, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no .if or .spt files in include tree", apperrors.ErrConfig)
	}

	// fs.WalkDir visits lexically, which pins the duplicate-name tie-break
	// to lexicographic path order.
	ix := &Index{byName: make(map[string][]*MacroDef)}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			slog.Warn("skipping unreadable policy file", "path", path, "err", err)
			continue
		}
		defs, parseErrs := m4.ScanDefinitions(string(data))
		for _, pe := range parseErrs {
			slog.Warn("skipping malformed definition", "path", path, "line", pe.Line, "err", pe.Msg)
		}
		for _, def := range defs {
			md := &MacroDef{
				Name:       def.Name,
				Kind:       def.Kind,
				Body:       def.Body,
				SourceFile: path,
				Line:       def.Line,
				Category:   categoryOf(path),
			}
			ix.byName[md.Name] = append(ix.byName[md.Name], md)
			ix.ordered = append(ix.ordered, md)
		}
	}

	if len(ix.ordered) == 0 {
		return nil, fmt.Errorf("%w: no macro definitions found", apperrors.ErrConfig)
	}

	ix.graph = buildCallGraph(ix)
	return ix, nil
}

// LoadDir is a convenience wrapper over Load for an on-disk include root.
func LoadDir(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: include path %q: %v", apperrors.ErrConfig, path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: include path %q is not a directory", apperrors.ErrConfig, path)
	}
	return Load(os.DirFS(path))
}
