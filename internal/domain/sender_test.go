package domain

import "testing"

func TestParseSender(t *testing.T) {
	tests := []struct {
		from     string
		wantName string
		wantAddr string
		wantOK   bool
	}{
		{`Jane Doe <Jane@Example.com>`, "Jane Doe", "jane@example.com", true},
		{`"Doe, Jane" <jane@example.com>`, "Doe, Jane", "jane@example.com", true},
		{`jane@example.com`, "", "jane@example.com", true},
		{`Jane [Team] <jane@example.com`, "", "", false},
		{`Jane Doe <jane@example.com>>`, "Jane Doe", "jane@example.com", true},
		{``, "", "", false},
		{`undisclosed-recipients`, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			got, ok := ParseSender(tt.from)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Name != tt.wantName || got.Address != tt.wantAddr {
				t.Errorf("got %+v, want name=%q addr=%q", got, tt.wantName, tt.wantAddr)
			}
		})
	}
}

func TestSenderDisplayName(t *testing.T) {
	if got := (Sender{Name: "Jane", Address: "j@x.io"}).DisplayName("Authors"); got != "Jane" {
		t.Errorf("got %q", got)
	}
	if got := (Sender{Address: "j@x.io"}).DisplayName("Authors"); got != "Authors" {
		t.Errorf("got %q", got)
	}
	if got := (Sender{Address: "j@x.io"}).DisplayName(""); got != "j@x.io" {
		t.Errorf("got %q", got)
	}
}
