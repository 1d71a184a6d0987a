package domain

import "time"

// ActionKind distinguishes a freeform action from a pointer to an external object
type ActionKind string

const (
	KindAction  ActionKind = "action"
	KindPointer ActionKind = "pointer"
)

// Valid reports whether k is a known kind
func (k ActionKind) Valid() bool {
	return k == KindAction || k == KindPointer
}

// Position is where a new record lands in the queue
type Position int

const (
	PositionTail Position = iota // user-created actions
	PositionHead                 // ingestion-created pointers, most recent first
)

// Action is one user-facing unit of work in the queue
type Action struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Kind      ActionKind `json:"type"`
	Target    *string    `json:"target"`
	Context   string     `json:"context"`
	Created   time.Time  `json:"created"`
	Completed *time.Time `json:"completed"`
}

// IsOpen reports whether the action has not been completed
func (a Action) IsOpen() bool {
	return a.Completed == nil
}

// TargetString returns the target reference or "" when absent
func (a Action) TargetString() string {
	if a.Target == nil {
		return ""
	}
	return *a.Target
}

// ActionsDocument is the persisted shape of the action store: {"actions": [...]}
type ActionsDocument struct {
	Actions []Action `json:"actions"`
}

// ActionPatch is a field-level update. Nil fields are left untouched.
type ActionPatch struct {
	Text    *string
	Context *string

	// SetCompleted applies Completed; a nil Completed reopens the action
	SetCompleted bool
	Completed    *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p ActionPatch) IsEmpty() bool {
	return p.Text == nil && p.Context == nil && !p.SetCompleted
}

// Apply returns a copy of a with the patch applied
func (p ActionPatch) Apply(a Action) Action {
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.Context != nil {
		a.Context = *p.Context
	}
	if p.SetCompleted {
		if p.Completed == nil {
			a.Completed = nil
		} else {
			at := p.Completed.UTC()
			a.Completed = &at
		}
	}
	return a
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
