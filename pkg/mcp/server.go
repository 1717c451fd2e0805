// Package mcp exposes the macro index to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/duynguyendang/semacro/pkg/expand"
	"github.com/duynguyendang/semacro/pkg/m4"
	"github.com/duynguyendang/semacro/pkg/policy"
)

// MCPServer wraps the macro index to expose it via MCP.
type MCPServer struct {
	index *policy.Index
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, ix *policy.Index) error {
	s := server.NewMCPServer(
		"semacro",
		"0.2.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	ms := &MCPServer{index: ix}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			"semacro://index/summary",
			"Index Summary",
			mcp.WithResourceDescription("Summary statistics of the loaded macro index"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleIndexSummary,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"lookup_macro",
			mcp.WithDescription("Look up a macro definition by exact name."),
			mcp.WithString("name", mcp.Required(), mcp.Description("The macro name")),
		),
		ms.handleLookup,
	)

	s.AddTool(
		mcp.NewTool(
			"find_macros",
			mcp.WithDescription("Search macro names with a regular expression."),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("Case-sensitive regex pattern")),
			mcp.WithNumber("limit", mcp.Description("Max number of results (default 20)")),
		),
		ms.handleFind,
	)

	s.AddTool(
		mcp.NewTool(
			"expand_macro",
			mcp.WithDescription("Recursively expand a macro call into flat, merged policy rules."),
			mcp.WithString("call", mcp.Required(),
				mcp.Description(`Macro invocation, e.g. "files_pid_filetrans(ntpd_t, ntpd_var_run_t, file)"`)),
			mcp.WithNumber("depth", mcp.Description("Max expansion depth (default 10)")),
		),
		ms.handleExpand,
	)

	s.AddTool(
		mcp.NewTool(
			"which_macro",
			mcp.WithDescription("Find macros that would grant an access or create a type transition."),
			mcp.WithString("source", mcp.Required(), mcp.Description("Source domain type")),
			mcp.WithString("target", mcp.Required(), mcp.Description("Target type (parent type in transition mode)")),
			mcp.WithString("perms", mcp.Description("Space-separated permissions (AV mode)")),
			mcp.WithString("new_type", mcp.Description("Created type (transition mode)")),
			mcp.WithString("class", mcp.Description("Object class filter, e.g. file or dir")),
			mcp.WithBoolean("transition", mcp.Description("Search type_transition rules instead of allow rules")),
		),
		ms.handleWhich,
	)

	s.AddTool(
		mcp.NewTool(
			"macro_callers",
			mcp.WithDescription("Find which macros directly call the given macro."),
			mcp.WithString("name", mcp.Required(), mcp.Description("The macro name")),
		),
		ms.handleCallers,
	)

	slog.Info("Starting MCP server on Stdio", "definitions", ix.Len())
	return server.ServeStdio(s)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleIndexSummary(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats := ms.index.Stats()
	summary := map[string]interface{}{
		"definitions": stats.Definitions,
		"interfaces":  stats.Interfaces,
		"templates":   stats.Templates,
		"defines":     stats.Defines,
	}

	jsonBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleLookup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, ok := args["name"].(string)
	if !ok {
		return mcp.NewToolResultError("name argument required"), nil
	}

	def, dups, err := ms.index.Lookup(name)
	if err != nil {
		hint := ""
		if near := ms.index.Suggest(name, 5); len(near) > 0 {
			hint = " (did you mean: " + strings.Join(near, ", ") + ")"
		}
		return mcp.NewToolResultError(fmt.Sprintf("macro %q not found%s", name, hint)), nil
	}

	header := fmt.Sprintf("# %s (%d duplicate definitions)\n", def.Location(), dups)
	if dups == 0 {
		header = fmt.Sprintf("# %s\n", def.Location())
	}
	return mcp.NewToolResultText(header + def.DisplayBody()), nil
}

func (ms *MCPServer) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	pattern, ok := args["pattern"].(string)
	if !ok {
		return mcp.NewToolResultError("pattern argument required"), nil
	}
	limit := 20
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	matches, err := ms.index.Find(pattern)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	var lines []string
	for _, def := range matches {
		lines = append(lines, fmt.Sprintf("[%c] %s  %s", def.Kind[0], def.Name, def.Location()))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("No macros matched."), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleExpand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	callStr, ok := args["call"].(string)
	if !ok {
		return mcp.NewToolResultError("call argument required"), nil
	}
	depth := 0
	if d, ok := args["depth"].(float64); ok {
		depth = int(d)
	}

	call, err := m4.ParseCall(callStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("bad call: %v", err)), nil
	}
	if !ms.index.Contains(call.Name) {
		return mcp.NewToolResultError(fmt.Sprintf("macro %q not found", call.Name)), nil
	}

	eng := &expand.Engine{Index: ms.index, MaxDepth: depth}
	rules := eng.Rules(call)
	if len(rules) == 0 {
		return mcp.NewToolResultText("Expansion produced no primitive rules."), nil
	}

	var lines []string
	for _, r := range rules {
		lines = append(lines, r.String())
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleWhich(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	source, _ := args["source"].(string)
	target, _ := args["target"].(string)
	if source == "" || target == "" {
		return mcp.NewToolResultError("source and target arguments required"), nil
	}

	q := expand.Query{Source: source, Target: target}
	if perms, ok := args["perms"].(string); ok {
		q.Perms = strings.Fields(perms)
	}
	q.NewType, _ = args["new_type"].(string)
	q.Class, _ = args["class"].(string)
	q.Transition, _ = args["transition"].(bool)

	matches := expand.Search(ms.index, q)
	if len(matches) == 0 {
		return mcp.NewToolResultText("No matching macros found."), nil
	}

	var lines []string
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("%s  %s", m.CallSig, m.Def.Location()))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleCallers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, ok := args["name"].(string)
	if !ok {
		return mcp.NewToolResultError("name argument required"), nil
	}

	refs, err := ms.index.Callers(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("macro %q not found", name)), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("No callers found."), nil
	}

	var lines []string
	for _, ref := range refs {
		lines = append(lines, fmt.Sprintf("%s  %s:%d", ref.Name, ref.SourceFile, ref.Line))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
