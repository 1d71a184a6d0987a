package domain

import (
	"net/mail"
	"strings"
)

// Sender is a parsed From header
type Sender struct {
	Name    string
	Address string
}

// ParseSender parses a From header value into a display name and a
// lowercased address. Headers net/mail rejects are split on the angle
// brackets. ok is false when no address can be recovered.
func ParseSender(from string) (Sender, bool) {
	from = strings.TrimSpace(from)
	if from == "" {
		return Sender{}, false
	}

	if addr, err := mail.ParseAddress(from); err == nil {
		return Sender{Name: addr.Name, Address: strings.ToLower(addr.Address)}, true
	}

	if open := strings.LastIndex(from, "<"); open >= 0 {
		end := strings.Index(from[open:], ">")
		if end < 0 {
			return Sender{}, false
		}
		address := strings.TrimSpace(from[open+1 : open+end])
		name := strings.Trim(strings.TrimSpace(from[:open]), `"`)
		if !looksLikeAddress(address) {
			return Sender{}, false
		}
		return Sender{Name: name, Address: strings.ToLower(address)}, true
	}

	if looksLikeAddress(from) {
		return Sender{Address: strings.ToLower(from)}, true
	}
	return Sender{}, false
}

func looksLikeAddress(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t<>")
}

// DisplayName returns the sender's name, or fallback when the header had none
func (s Sender) DisplayName(fallback string) string {
	if s.Name != "" {
		return s.Name
	}
	if fallback != "" {
		return fallback
	}
	return s.Address
}
