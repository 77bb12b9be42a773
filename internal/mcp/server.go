// Package mcp exposes the assistant as MCP tools so editor agents can
// chat, save notes, and pull reports through the same decision core.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jfarrand/noted/internal/api"
)

// Server wraps the assistant and exposes it as MCP tools.
type Server struct {
	svc api.Service
}

// NewServer creates the MCP server wrapper.
func NewServer(svc api.Service) *Server {
	return &Server{svc: svc}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("noted", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.chatTool())
	srv.AddTool(s.organizeNoteTool())
	srv.AddTool(s.extractTasksTool())
	srv.AddTool(s.summarizeMeetingTool())
	srv.AddTool(s.weeklyReportTool())
	srv.AddTool(s.pendingTasksTool())
	srv.AddTool(s.listProfilesTool())
	srv.AddTool(s.switchProfileTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// noted_chat
func (s *Server) chatTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_chat",
		mcp.WithDescription("Send a message to the note assistant. It decides whether to reply, ask for confirmation, or save to the vault. Writes only happen with an explicit write verb (save, log, record, ...) or by confirming a pending action."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The message text")),
		mcp.WithString("date", mcp.Description("Optional YYYY-MM-DD date override")),
	)
	return tool, s.handleChat
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}
	resp, err := s.svc.Chat(ctx, message, request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return marshalResult(resp)
}

// noted_organize_note
func (s *Server) organizeNoteTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_organize_note",
		mcp.WithDescription("Clean up raw text and save it as a structured markdown note in the active profile's vault. Calling this tool is the explicit write permission."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The raw note text")),
		mcp.WithString("category", mcp.Description("Note category, e.g. Learning or Ideas")),
		mcp.WithString("date", mcp.Description("Optional YYYY-MM-DD date override")),
	)
	return tool, s.handleOrganizeNote
}

func (s *Server) handleOrganizeNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	res, err := s.svc.OrganizeNote(ctx, text, request.GetString("category", ""), request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("organize note failed: %v", err)), nil
	}
	return marshalResult(res)
}

// noted_extract_tasks
func (s *Server) extractTasksTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_extract_tasks",
		mcp.WithDescription("Extract actionable tasks from text and append them to the day's task list as checkboxes."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text to extract tasks from")),
		mcp.WithString("date", mcp.Description("Optional YYYY-MM-DD date override")),
	)
	return tool, s.handleExtractTasks
}

func (s *Server) handleExtractTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	res, err := s.svc.ExtractTasks(ctx, text, request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extract tasks failed: %v", err)), nil
	}
	return marshalResult(res)
}

// noted_summarize_meeting
func (s *Server) summarizeMeetingTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_summarize_meeting",
		mcp.WithDescription("Summarize raw meeting notes into a structured recap; action items are chained into the task list."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The raw meeting notes")),
		mcp.WithString("date", mcp.Description("Optional YYYY-MM-DD date override")),
	)
	return tool, s.handleSummarizeMeeting
}

func (s *Server) handleSummarizeMeeting(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	res, err := s.svc.SummarizeMeeting(ctx, text, request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarize meeting failed: %v", err)), nil
	}
	return marshalResult(res)
}

// noted_weekly_report
func (s *Server) weeklyReportTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_weekly_report",
		mcp.WithDescription("Generate the formal weekly report for the week containing the given date."),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD inside the target week; defaults to today")),
	)
	return tool, s.handleWeeklyReport
}

func (s *Server) handleWeeklyReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.WeeklyReport(ctx, request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("weekly report failed: %v", err)), nil
	}
	return marshalResult(res)
}

// noted_pending_tasks
func (s *Server) pendingTasksTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_pending_tasks",
		mcp.WithDescription("List the unchecked task items for the week containing the given date. Read-only."),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD inside the target week; defaults to today")),
	)
	return tool, s.handlePendingTasks
}

func (s *Server) handlePendingTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.svc.PendingTasks(ctx, request.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pending tasks failed: %v", err)), nil
	}
	return marshalResult(tasks)
}

// noted_list_profiles
func (s *Server) listProfilesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_list_profiles",
		mcp.WithDescription("List all profiles. Each profile scopes its own vault, sessions, and pending actions."),
	)
	return tool, s.handleListProfiles
}

func (s *Server) handleListProfiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profiles, err := s.svc.Profiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list profiles: %v", err)), nil
	}

	type profileOut struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		VaultRoot string `json:"vault_root"`
		Active    bool   `json:"active"`
	}
	out := make([]profileOut, len(profiles))
	for i, p := range profiles {
		out[i] = profileOut{ID: p.ID, Name: p.DisplayName, VaultRoot: p.VaultRoot, Active: p.Active}
	}
	return marshalResult(out)
}

// noted_switch_profile
func (s *Server) switchProfileTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("noted_switch_profile",
		mcp.WithDescription("Activate another profile. Pending confirmations of the previous profile are discarded."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Profile ID to activate")),
	)
	return tool, s.handleSwitchProfile
}

func (s *Server) handleSwitchProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	p, err := s.svc.SwitchProfile(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("switch profile failed: %v", err)), nil
	}
	return marshalResult(p)
}
