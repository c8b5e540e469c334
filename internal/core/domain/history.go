package domain

import "time"

// HistoryAction is what a history entry records.
type HistoryAction string

const (
	HistoryCreated  HistoryAction = "created"
	HistoryApproved HistoryAction = "approved"
	HistoryRejected HistoryAction = "rejected"
	HistorySent     HistoryAction = "sent"
	HistoryRead     HistoryAction = "read"
)

// HistoryEntry is one element of a memo's audit trail.
type HistoryEntry struct {
	At     time.Time     `json:"at"`
	By     Actor         `json:"by"`
	Action HistoryAction `json:"action"`
	Reason string        `json:"reason,omitempty"`
}

// AppendHistory returns m with one more history entry. The input memo and its
// history slice are left untouched; persisting the result is up to the caller.
func AppendHistory(m Memo, actor Actor, action HistoryAction, reason string, at time.Time) Memo {
	md := m.Metadata.Clone()
	md.History = append(md.History, HistoryEntry{
		At:     at.UTC(),
		By:     actor,
		Action: action,
		Reason: reason,
	})
	m.Metadata = md
	return m
}

// LastHistoryEntry returns the newest entry, if any.
func (m Memo) LastHistoryEntry() (HistoryEntry, bool) {
	if len(m.Metadata.History) == 0 {
		return HistoryEntry{}, false
	}
	return m.Metadata.History[len(m.Metadata.History)-1], true
}
