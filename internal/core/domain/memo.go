package domain

import (
	"fmt"
	"slices"
	"strings"
)

// MemoStatus is the lifecycle state of a memo.
type MemoStatus string

const (
	MemoStatusDraft    MemoStatus = "draft"
	MemoStatusPending  MemoStatus = "pending"
	MemoStatusApproved MemoStatus = "approved"
	MemoStatusRejected MemoStatus = "rejected"
	MemoStatusSent     MemoStatus = "sent"
	MemoStatusRead     MemoStatus = "read"
	MemoStatusArchived MemoStatus = "archived"
	MemoStatusDeleted  MemoStatus = "deleted"
)

// Folder is the display bucket of a memo, independent of its status.
type Folder string

const (
	FolderInbox    Folder = "inbox"
	FolderSent     Folder = "sent"
	FolderDrafts   Folder = "drafts"
	FolderArchived Folder = "archived"
	FolderDeleted  Folder = "deleted"
)

// ParseFolder validates a folder name from a request.
func ParseFolder(s string) (Folder, error) {
	switch f := Folder(s); f {
	case FolderInbox, FolderSent, FolderDrafts, FolderArchived, FolderDeleted:
		return f, nil
	default:
		return "", fmt.Errorf("unknown folder %q", s)
	}
}

// ActivityType separates ordinary memos from system generated ones.
// The zero value is an ordinary memo.
type ActivityType string

const (
	ActivityNone               ActivityType = ""
	ActivitySystemNotification ActivityType = "system_notification"
)

// Priority of a memo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority. Empty is not valid.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Memo is the stored record for both departmental memos and system notifications.
// Use Classify to tell them apart.
type Memo struct {
	MemoID       string       `json:"memoID" db:"memo_id"`
	SenderID     string       `json:"senderID" db:"sender_id"`
	RecipientID  *string      `json:"recipientID,omitempty" db:"recipient_id"`
	Recipients   []string     `json:"recipients,omitempty" db:"recipients"`
	Subject      string       `json:"subject" db:"subject"`
	Content      string       `json:"content" db:"content"`
	Department   string       `json:"department" db:"department"`
	Priority     Priority     `json:"priority" db:"priority"`
	Status       MemoStatus   `json:"status" db:"status"`
	Folder       Folder       `json:"folder" db:"folder"`
	ActivityType ActivityType `json:"activityType,omitempty" db:"activity_type"`
	Metadata     MemoMetadata `json:"metadata" db:"metadata"`
	AuditFields
	Version int `json:"version" db:"version"`
}

// ResolveRecipients returns the distinct non-empty entries of Recipients, or
// the single RecipientID when the list is empty.
func (m Memo) ResolveRecipients() []string {
	out := make([]string, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 && m.RecipientID != nil && *m.RecipientID != "" {
		out = append(out, *m.RecipientID)
	}
	return out
}

// IsCopy reports whether the record was derived from another memo
// (a delivery copy or a notification).
func (m Memo) IsCopy() bool {
	return m.Metadata.OriginalMemoID != "" && m.Metadata.OriginalMemoID != m.MemoID
}

// Delivered reports whether the memo reached its addressee (sent or read).
func (m Memo) Delivered() bool {
	return m.Status == MemoStatusSent || m.Status == MemoStatusRead
}

// DeliveredTo reports whether userID holds this record as its addressee.
// Submissions are never delivered: only copies reach an inbox.
func (m Memo) DeliveredTo(userID string) bool {
	return m.RecipientID != nil && *m.RecipientID == userID && m.IsCopy() && m.Status != MemoStatusPending
}

// OwnedBy reports whether userID wrote the record and may file it. Delivery
// copies belong to their addressee, so the sender never owns one.
func (m Memo) OwnedBy(userID string) bool {
	return m.SenderID == userID && m.ActivityType == ActivityNone && !m.IsCopy()
}

// VisibleInFolder is the folder listing rule. Storage adapters implement the
// same predicate in their queries.
func (m Memo) VisibleInFolder(userID string, folder Folder) bool {
	ownLetter := m.SenderID == userID && m.ActivityType == ActivityNone
	switch folder {
	case FolderInbox:
		return m.DeliveredTo(userID) && m.Folder == FolderInbox && m.Delivered()
	case FolderSent:
		return ownLetter && m.IsCopy() && m.Delivered()
	case FolderDrafts:
		return ownLetter && m.Folder == FolderDrafts
	case FolderArchived, FolderDeleted:
		return (m.DeliveredTo(userID) || m.OwnedBy(userID)) && m.Folder == folder
	}
	return false
}

// VisibleTo reports whether a user may open the memo.
func (m Memo) VisibleTo(user User) bool {
	return user.Role == RoleAdmin || m.SenderID == user.UserID || m.DeliveredTo(user.UserID)
}
