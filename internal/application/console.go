package application

import "archivist/internal/ports"

// Console bundles the collaborators behind the interactive boundary.
// The MCP tools and the HTTP API are both built on one.
type Console struct {
	Actions   ports.ActionRepository
	Triage    ports.TriageRepository
	Seen      ports.CursorStore
	Mail      ports.MailGateway
	Contacts  ports.ContactDirectory
	Generator ports.TextGenerator
	Runner    ports.TriageRunner
}
