package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/expand"
	"github.com/duynguyendang/semacro/pkg/export"
	"github.com/duynguyendang/semacro/pkg/m4"
)

func handleError(c *gin.Context, err error) {
	appErr := apperrors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message, "detail": err.Error()})
}

// macroSummary is the list/search wire representation.
type macroSummary struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Category   string `json:"category,omitempty"`
	SourceFile string `json:"source_file"`
	Line       int    `json:"line"`
}

// handleMacros lists macros, filtered by ?category= or searched by ?pattern=.
func (s *Server) handleMacros(c *gin.Context) {
	pattern := c.Query("pattern")
	category := c.Query("category")

	defs := s.index.List(category)
	if pattern != "" {
		var err error
		defs, err = s.index.Find(pattern)
		if err != nil {
			handleError(c, err)
			return
		}
	}

	out := make([]macroSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, macroSummary{
			Name:       def.Name,
			Kind:       string(def.Kind),
			Category:   def.Category,
			SourceFile: def.SourceFile,
			Line:       def.Line,
		})
	}
	c.JSON(http.StatusOK, gin.H{"macros": out, "count": len(out)})
}

// handleLookup returns one macro definition, with ?args= substituted when
// given.
func (s *Server) handleLookup(c *gin.Context) {
	name := c.Param("name")
	def, dups, err := s.index.Lookup(name)
	if err != nil {
		handleError(c, err)
		return
	}

	body := def.Body
	if argsParam := c.Query("args"); argsParam != "" {
		args, err := m4.SplitArgs(argsParam)
		if err != nil {
			handleError(c, err)
			return
		}
		body = m4.Substitute(def.Body, args)
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        def.Name,
		"kind":        string(def.Kind),
		"category":    def.Category,
		"source_file": def.SourceFile,
		"line":        def.Line,
		"body":        body,
		"duplicates":  dups,
	})
}

// expandRequest is the expansion request body. Call is a full invocation
// string such as "files_pid_filetrans(ntpd_t, ntpd_var_run_t, file)".
type expandRequest struct {
	Call  string `json:"call"`
	Depth int    `json:"depth"`
	Tree  bool   `json:"tree"`
}

// handleExpand expands one call and returns merged flat rules, or the full
// tree when tree is set.
func (s *Server) handleExpand(c *gin.Context) {
	var req expandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Call) == "" {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Missing call", nil))
		return
	}

	call, err := m4.ParseCall(req.Call)
	if err != nil {
		handleError(c, err)
		return
	}
	if !s.index.Contains(call.Name) {
		handleError(c, apperrors.ErrNotFound)
		return
	}

	eng := &expand.Engine{Index: s.index, MaxDepth: req.Depth}
	if req.Tree {
		c.JSON(http.StatusOK, gin.H{"tree": treeJSON(eng.Expand(call))})
		return
	}

	rules := eng.Rules(call)
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.String()
	}
	c.JSON(http.StatusOK, gin.H{"rules": out, "count": len(out)})
}

// treeNode is the JSON shape of an expansion node.
type treeNode struct {
	Text       string     `json:"text"`
	Depth      int        `json:"depth"`
	Leaf       bool       `json:"leaf,omitempty"`
	Truncated  bool       `json:"truncated,omitempty"`
	Unresolved bool       `json:"unresolved,omitempty"`
	Children   []treeNode `json:"children,omitempty"`
}

func treeJSON(n *expand.Node) treeNode {
	out := treeNode{
		Text:       n.Text,
		Depth:      n.Depth,
		Leaf:       n.Leaf,
		Truncated:  n.Truncated,
		Unresolved: n.Unresolved,
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, treeJSON(child))
	}
	return out
}

// handleCallers returns the direct callers of a macro.
func (s *Server) handleCallers(c *gin.Context) {
	refs, err := s.index.Callers(c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"callers": refs, "count": len(refs)})
}

// whichRequest mirrors the CLI which command.
type whichRequest struct {
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	Perms      []string `json:"perms,omitempty"`
	NewType    string   `json:"new_type,omitempty"`
	Class      string   `json:"class,omitempty"`
	Filename   string   `json:"filename,omitempty"`
	Transition bool     `json:"transition,omitempty"`
}

// handleWhich searches for macros producing a matching rule.
func (s *Server) handleWhich(c *gin.Context) {
	var req whichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if req.Source == "" || req.Target == "" {
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Missing source or target", nil))
		return
	}

	matches := expand.Search(s.index, expand.Query{
		Source:     req.Source,
		Target:     req.Target,
		Perms:      req.Perms,
		NewType:    req.NewType,
		Class:      req.Class,
		Filename:   req.Filename,
		Transition: req.Transition,
	})

	type matchOut struct {
		Name     string `json:"name"`
		CallSig  string `json:"call"`
		Location string `json:"location"`
	}
	out := make([]matchOut, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchOut{Name: m.Def.Name, CallSig: m.CallSig, Location: m.Def.Location()})
	}
	c.JSON(http.StatusOK, gin.H{"matches": out, "count": len(out)})
}

// handleDeps returns the dependency graph in the requested format
// (?format=dot|mermaid|d3, default d3 JSON).
func (s *Server) handleDeps(c *gin.Context) {
	depth := 3
	if d := c.Query("depth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Invalid depth", err))
			return
		}
		depth = n
	}

	graph, err := export.Build(s.index, c.Param("name"), depth)
	if err != nil {
		handleError(c, err)
		return
	}

	switch c.DefaultQuery("format", "d3") {
	case "dot":
		c.String(http.StatusOK, export.RenderDOT(graph))
	case "mermaid":
		c.String(http.StatusOK, export.RenderMermaid(graph))
	case "d3":
		c.JSON(http.StatusOK, export.ToD3(graph))
	default:
		handleError(c, apperrors.NewAppError(http.StatusBadRequest, "Unknown format", nil))
	}
}
