package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"archivist/internal/application"
	"archivist/internal/application/commands"
	"archivist/internal/domain"
)

// RegisterWriteTools adds all mutating console tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, c *application.Console) {
	s.AddTool(addActionTool(), addActionHandler(c))
	s.AddTool(updateActionTool(), updateActionHandler(c))
	s.AddTool(completeActionTool(), completeActionHandler(c))
	s.AddTool(deleteActionTool(), deleteActionHandler(c))
	s.AddTool(reorderActionsTool(), reorderActionsHandler(c))
	s.AddTool(markSeenTool(), markSeenHandler(c))
	s.AddTool(setTriageStatusTool(), setTriageStatusHandler(c))
	s.AddTool(draftReplyTool(), draftReplyHandler(c))
	s.AddTool(refreshTriageTool(), refreshTriageHandler(c))
}

// --- add_action ---

func addActionTool() mcp.Tool {
	return mcp.NewTool("add_action",
		mcp.WithDescription("Add an action at the end of the queue."),
		mcp.WithString("text",
			mcp.Description("What needs doing"),
			mcp.Required(),
		),
		mcp.WithString("type",
			mcp.Description("action (default) or pointer; pointers need a target"),
			mcp.Enum(string(domain.KindAction), string(domain.KindPointer)),
		),
		mcp.WithString("target",
			mcp.Description("What a pointer refers to, e.g. email:thread:<id>"),
		),
		mcp.WithString("context",
			mcp.Description("Free-text notes"),
		),
	)
}

func addActionHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var target *string
		if t := req.GetString("target", ""); t != "" {
			target = &t
		}
		cmd := commands.NewCreateActionCommand(c.Actions,
			req.GetString("text", ""),
			domain.ActionKind(req.GetString("type", string(domain.KindAction))),
			target,
			req.GetString("context", ""),
		)
		a, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Added %s: %s", a.ID, a.Text)), nil
	}
}

// --- update_action ---

func updateActionTool() mcp.Tool {
	return mcp.NewTool("update_action",
		mcp.WithDescription("Change an action's text or context. Omitted fields are left as they are."),
		mcp.WithString("id",
			mcp.Description("Action ID"),
			mcp.Required(),
		),
		mcp.WithString("text",
			mcp.Description("New text"),
		),
		mcp.WithString("context",
			mcp.Description("New context"),
		),
	)
}

func updateActionHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		var patch domain.ActionPatch
		if _, ok := args["text"]; ok {
			patch.Text = domain.StringPtr(req.GetString("text", ""))
		}
		if _, ok := args["context"]; ok {
			patch.Context = domain.StringPtr(req.GetString("context", ""))
		}

		a, err := commands.NewUpdateActionCommand(c.Actions, req.GetString("id", ""), patch).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText("Updated " + formatAction(a)), nil
	}
}

// --- complete_action ---

func completeActionTool() mcp.Tool {
	return mcp.NewTool("complete_action",
		mcp.WithDescription("Mark an action done, or reopen a completed one."),
		mcp.WithString("id",
			mcp.Description("Action ID"),
			mcp.Required(),
		),
		mcp.WithBoolean("reopen",
			mcp.Description("Clear the completion instead of setting it"),
		),
	)
}

func completeActionHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewCompleteActionCommand(c.Actions, req.GetString("id", ""), req.GetBool("reopen", false), nil)
		a, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatAction(a)), nil
	}
}

// --- delete_action ---

func deleteActionTool() mcp.Tool {
	return mcp.NewTool("delete_action",
		mcp.WithDescription("Remove an action from the queue."),
		mcp.WithString("id",
			mcp.Description("Action ID"),
			mcp.Required(),
		),
	)
}

func deleteActionHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a, err := commands.NewDeleteActionCommand(c.Actions, req.GetString("id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Removed %s: %s", a.ID, a.Text)), nil
	}
}

// --- reorder_actions ---

func reorderActionsTool() mcp.Tool {
	return mcp.NewTool("reorder_actions",
		mcp.WithDescription("Move the listed actions to the front of the queue in the given order. Unlisted actions keep their relative order after them."),
		mcp.WithArray("order",
			mcp.Description("Action IDs, highest priority first"),
			mcp.WithStringItems(),
			mcp.Required(),
		),
	)
}

func reorderActionsHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		order := req.GetStringSlice("order", nil)
		actions, err := commands.NewReorderActionsCommand(c.Actions, order).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatList(actions, formatAction)
	}
}

// --- mark_seen ---

func markSeenTool() mcp.Tool {
	return mcp.NewTool("mark_seen",
		mcp.WithDescription("Acknowledge every current action so unseen_actions starts empty."),
	)
}

func markSeenHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		at, err := commands.NewMarkSeenCommand(c.Seen, nil).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText("Marked seen at " + at.Format("2006-01-02T15:04:05Z07:00")), nil
	}
}

// --- set_triage_status ---

func setTriageStatusTool() mcp.Tool {
	return mcp.NewTool("set_triage_status",
		mcp.WithDescription("Move a triage item to a new status."),
		mcp.WithString("id",
			mcp.Description("Triage item ID"),
			mcp.Required(),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Required(),
			mcp.Enum(statusNames()...),
		),
	)
}

func setTriageStatusHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewUpdateTriageStatusCommand(c.Triage, req.GetString("id", ""), req.GetString("status", ""))
		item, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatTriage(item)), nil
	}
}

// --- draft_reply ---

func draftReplyTool() mcp.Tool {
	return mcp.NewTool("draft_reply",
		mcp.WithDescription("Draft a reply to a triage item using the thread and the sender's relationship notes. Does not change the item."),
		mcp.WithString("id",
			mcp.Description("Triage item ID"),
			mcp.Required(),
		),
	)
}

func draftReplyHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewDraftReplyCommand(c.Triage, c.Mail, c.Contacts, c.Generator, req.GetString("id", ""))
		res, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Draft), nil
	}
}

// --- refresh_triage ---

func refreshTriageTool() mcp.Tool {
	return mcp.NewTool("refresh_triage",
		mcp.WithDescription("Regenerate the triage file in the background."),
	)
}

func refreshTriageHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		run, err := commands.NewRefreshTriageCommand(c.Runner).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Started (pid %d), log at %s", run.PID, run.LogPath)), nil
	}
}

func statusNames() []string {
	names := make([]string, len(domain.TriageStatuses))
	for i, st := range domain.TriageStatuses {
		names[i] = string(st)
	}
	return names
}

