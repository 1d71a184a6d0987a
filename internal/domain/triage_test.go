package domain

import "testing"

func TestParseTriageStatus(t *testing.T) {
	for _, st := range TriageStatuses {
		got, err := ParseTriageStatus(string(st))
		if err != nil {
			t.Errorf("%s rejected: %v", st, err)
		}
		if got != st {
			t.Errorf("got %s, want %s", got, st)
		}
	}

	for _, bad := range []string{"", "done", "Needs-Response", " read", "deleted"} {
		if _, err := ParseTriageStatus(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestTriageStatusesCount(t *testing.T) {
	if len(TriageStatuses) != 7 {
		t.Errorf("expected 7 statuses, got %d", len(TriageStatuses))
	}
}
