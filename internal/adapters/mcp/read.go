package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"archivist/internal/application"
	"archivist/internal/application/commands"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

// RegisterReadTools adds all read-only console tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, c *application.Console) {
	s.AddTool(listActionsTool(), listActionsHandler(c))
	s.AddTool(unseenTool(), unseenHandler(c))
	s.AddTool(listTriageTool(), listTriageHandler(c))
	s.AddTool(searchContactsTool(), searchContactsHandler(c))
	s.AddTool(showContactTool(), showContactHandler(c))
	s.AddTool(recentEmailTool(), recentEmailHandler(c))
	s.AddTool(searchEmailTool(), searchEmailHandler(c))
	s.AddTool(readEmailTool(), readEmailHandler(c))
}

// --- list_actions ---

func listActionsTool() mcp.Tool {
	return mcp.NewTool("list_actions",
		mcp.WithDescription("List the next-actions queue in priority order. Completed actions are hidden unless requested."),
		mcp.WithBoolean("include_completed",
			mcp.Description("Also list completed actions"),
		),
	)
}

func listActionsHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewListActionsCommand(c.Actions, req.GetBool("include_completed", false))
		actions, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatList(actions, formatAction)
	}
}

// --- unseen_actions ---

func unseenTool() mcp.Tool {
	return mcp.NewTool("unseen_actions",
		mcp.WithDescription("List open actions created since the notifications were last marked seen."),
	)
}

func unseenHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewGetUnseenCommand(c.Actions, c.Seen).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatList(res.Actions, formatAction)
	}
}

// --- list_triage ---

func listTriageTool() mcp.Tool {
	return mcp.NewTool("list_triage",
		mcp.WithDescription("List communication triage items, optionally filtered by status."),
		mcp.WithString("status",
			mcp.Description("Only items with this status: "+domain.StatusList()),
		),
	)
}

func listTriageHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var filter domain.TriageStatus
		if s := req.GetString("status", ""); s != "" {
			st, err := application.ValidateTriageStatus(s)
			if err != nil {
				return toolError(err)
			}
			filter = st
		}

		doc, err := commands.NewListTriageCommand(c.Triage).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		items := doc.Items
		if filter != "" {
			items = items[:0:0]
			for _, it := range doc.Items {
				if it.Status == filter {
					items = append(items, it)
				}
			}
		}
		return formatList(items, formatTriage)
	}
}

// --- search_contacts ---

func searchContactsTool() mcp.Tool {
	return mcp.NewTool("search_contacts",
		mcp.WithDescription("Fuzzy search the relationship directory by name, slug or email. Empty query lists everyone."),
		mcp.WithString("query",
			mcp.Description("Search text"),
		),
	)
}

func searchContactsHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		matches, err := commands.NewSearchContactsCommand(c.Contacts, req.GetString("query", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatList(matches, func(m commands.ContactMatch) string {
			line := fmt.Sprintf("%s  %s", m.Slug, m.Name)
			if len(m.Emails) > 0 {
				line += "  " + strings.Join(m.Emails, ", ")
			}
			if m.Summary != "" {
				line += "  (" + m.Summary + ")"
			}
			return line
		})
	}
}

// --- show_contact ---

func showContactTool() mcp.Tool {
	return mcp.NewTool("show_contact",
		mcp.WithDescription("Read a person's relationship notes by slug."),
		mcp.WithString("slug",
			mcp.Description("Person slug (e.g. jane-doe)"),
			mcp.Required(),
		),
	)
}

func showContactHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		contact, err := commands.NewShowContactCommand(c.Contacts, req.GetString("slug", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(contact.Content), nil
	}
}

// --- recent_email ---

func recentEmailTool() mcp.Tool {
	return mcp.NewTool("recent_email",
		mcp.WithDescription("Recent inbox threads from people, with automated senders filtered out."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum threads to return (default 30)"),
		),
	)
}

func recentEmailHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := commands.NewRecentEmailCommand(c.Mail, req.GetInt("limit", 0)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatThreadList(list)
	}
}

// --- search_email ---

func searchEmailTool() mcp.Tool {
	return mcp.NewTool("search_email",
		mcp.WithDescription("Search the mail index with a raw backend query."),
		mcp.WithString("query",
			mcp.Description("Search query"),
			mcp.Required(),
		),
	)
}

func searchEmailHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := commands.NewSearchEmailCommand(c.Mail, req.GetString("query", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatThreadList(list)
	}
}

// --- read_email ---

func readEmailTool() mcp.Tool {
	return mcp.NewTool("read_email",
		mcp.WithDescription("Read every message of a mail thread as plain text."),
		mcp.WithString("thread_id",
			mcp.Description("Thread ID from recent_email or search_email"),
			mcp.Required(),
		),
	)
}

func readEmailHandler(c *application.Console) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		view, err := commands.NewReadThreadCommand(c.Mail, req.GetString("thread_id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if view.Error != "" {
			return mcp.NewToolResultError("mail unavailable: " + view.Error), nil
		}
		if len(view.Messages) == 0 {
			return mcp.NewToolResultText("No messages."), nil
		}

		var sb strings.Builder
		for i, m := range view.Messages {
			if i > 0 {
				sb.WriteString("\n---\n\n")
			}
			fmt.Fprintf(&sb, "From: %s\nTo: %s\nSubject: %s\nDate: %s\n\n%s\n",
				m.From, m.To, m.Subject, m.Date.Format("2006-01-02 15:04"), strings.TrimRight(m.Body, "\n"))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatList[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatThreadList(list *commands.ThreadList) (*mcp.CallToolResult, error) {
	if list.Error != "" {
		return mcp.NewToolResultError("mail unavailable: " + list.Error), nil
	}
	return formatList(list.Threads, func(t ports.ThreadSummary) string {
		return fmt.Sprintf("%s  %s  %s  %s", t.ThreadID, t.Timestamp.Format("2006-01-02"), t.Authors, t.Subject)
	})
}

func formatAction(a domain.Action) string {
	box := "[ ]"
	if !a.IsOpen() {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s", box, a.ID, a.Text)
	if a.Target != nil {
		line += "  -> " + *a.Target
	}
	return line
}

func formatTriage(it domain.TriageItem) string {
	return fmt.Sprintf("%s  [%s]  %s <%s>  %s", it.ID, it.Status, it.FromName, it.FromEmail, it.Subject)
}
