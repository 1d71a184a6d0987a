package domain

import "time"

// The functions in this file are the pure transforms behind every action
// store mutation. They never modify the input slice.

// FindAction returns the index of the action with the given id
func FindAction(actions []Action, id string) (int, bool) {
	for i, a := range actions {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

// AppendAction inserts a at pos unless its id is already present.
// On a duplicate it returns the input unchanged, the existing record and false.
func AppendAction(actions []Action, a Action, pos Position) ([]Action, Action, bool) {
	if i, ok := FindAction(actions, a.ID); ok {
		return actions, actions[i], false
	}

	out := make([]Action, 0, len(actions)+1)
	if pos == PositionHead {
		out = append(out, a)
		out = append(out, actions...)
	} else {
		out = append(out, actions...)
		out = append(out, a)
	}
	return out, a, true
}

// UpdateAction applies patch to the action with the given id
func UpdateAction(actions []Action, id string, patch ActionPatch) ([]Action, Action, error) {
	i, ok := FindAction(actions, id)
	if !ok {
		return actions, Action{}, NotFound("action", id)
	}

	out := append([]Action(nil), actions...)
	out[i] = patch.Apply(out[i])
	return out, out[i], nil
}

// DeleteAction removes the action with the given id
func DeleteAction(actions []Action, id string) ([]Action, Action, error) {
	i, ok := FindAction(actions, id)
	if !ok {
		return actions, Action{}, NotFound("action", id)
	}

	removed := actions[i]
	out := make([]Action, 0, len(actions)-1)
	out = append(out, actions[:i]...)
	out = append(out, actions[i+1:]...)
	return out, removed, nil
}

// ReorderActions moves the named actions to the front in the given order.
// Unknown ids are skipped, repeated ids count once, and every unnamed action
// keeps its relative order after the named ones.
func ReorderActions(actions []Action, order []string) []Action {
	byID := make(map[string]int, len(actions))
	for i, a := range actions {
		byID[a.ID] = i
	}

	taken := make([]bool, len(actions))
	out := make([]Action, 0, len(actions))
	for _, id := range order {
		i, ok := byID[id]
		if !ok || taken[i] {
			continue
		}
		taken[i] = true
		out = append(out, actions[i])
	}
	for i, a := range actions {
		if !taken[i] {
			out = append(out, a)
		}
	}
	return out
}

// FilterActions returns the open actions, or all of them when includeCompleted is set
func FilterActions(actions []Action, includeCompleted bool) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if includeCompleted || a.IsOpen() {
			out = append(out, a)
		}
	}
	return out
}

// UnseenActions returns open actions created strictly after since, in queue order.
// A nil since means nothing has been seen yet.
func UnseenActions(actions []Action, since *time.Time) []Action {
	out := make([]Action, 0)
	for _, a := range actions {
		if !a.IsOpen() {
			continue
		}
		if since != nil && !a.Created.After(*since) {
			continue
		}
		out = append(out, a)
	}
	return out
}
