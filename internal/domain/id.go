package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const (
	mailIDPrefix  = "mail-"
	mailIDDomain  = "archivist/thread/v1"
	mailTargetTag = "email:thread:"

	// MailIDWidth is the hex width of a mail-derived id
	MailIDWidth = 10
	// MailIDWideWidth is used when a MailIDWidth id collides with another thread
	MailIDWideWidth = 16
)

// MailActionID derives a deterministic action id from a mail thread id.
// The whole thread id is hashed with a domain prefix so that two threads
// sharing a suffix do not share an id.
func MailActionID(threadID string, width int) string {
	if width <= 0 || width > sha256.Size*2 {
		width = MailIDWidth
	}
	h := sha256.New()
	h.Write([]byte(mailIDDomain))
	h.Write([]byte{0})
	h.Write([]byte(threadID))
	return mailIDPrefix + hex.EncodeToString(h.Sum(nil))[:width]
}

// MailTarget is the pointer target for a mail thread
func MailTarget(threadID string) string {
	return mailTargetTag + threadID
}

// ThreadFromTarget extracts the thread id from a mail target
func ThreadFromTarget(target string) (string, bool) {
	if !strings.HasPrefix(target, mailTargetTag) {
		return "", false
	}
	id := strings.TrimPrefix(target, mailTargetTag)
	return id, id != ""
}

// NewActionID returns a short random id for a user-created action
func NewActionID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}
