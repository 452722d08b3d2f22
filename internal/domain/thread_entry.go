package domain

import "time"

// SenderRole indicates who authored a thread entry.
type SenderRole string

const (
	SenderRoleUser    SenderRole = "user"
	SenderRoleSupport SenderRole = "support"
	SenderRoleSystem  SenderRole = "system"
)

// EntryKind differentiates comments, attachments and audit records.
type EntryKind string

const (
	EntryKindComment       EntryKind = "comment"
	EntryKindAttachmentRef EntryKind = "attachment"
	EntryKindStatusEvent   EntryKind = "status_event"
)

// Sender identifies the author of an entry.
type Sender struct {
	ID   string
	Name string
	Role SenderRole
}

// SystemSender authors audit entries on behalf of an actor.
func SystemSender() Sender {
	return Sender{ID: "system", Name: "system", Role: SenderRoleSystem}
}

// AttachmentRef is an opaque pointer into the blob store.
type AttachmentRef struct {
	URL  string
	Name string
	MIME string
}

// ThreadEntry is one append-only item of a ticket conversation.
type ThreadEntry struct {
	ID         int64
	TicketID   string
	Sender     Sender
	Kind       EntryKind
	Text       string
	Attachment *AttachmentRef
	CreatedAt  time.Time
}
