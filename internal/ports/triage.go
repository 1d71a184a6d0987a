package ports

import (
	"context"

	"archivist/internal/domain"
)

// TriageRepository is the communication triage store.
// Items that fail to decode are skipped on read and preserved on write.
type TriageRepository interface {
	Load(ctx context.Context) (domain.TriageDocument, error)
	Get(ctx context.Context, id string) (domain.TriageItem, error)
	UpdateStatus(ctx context.Context, id string, status domain.TriageStatus) (domain.TriageItem, error)
}

// TriageRun describes a background triage generation started by a TriageRunner
type TriageRun struct {
	PID     int
	LogPath string
}

// TriageRunner regenerates the triage file out of process
type TriageRunner interface {
	Start(ctx context.Context) (TriageRun, error)
}
