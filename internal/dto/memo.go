package dto

import (
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// SubmitMemoRequest is the payload a secretary submits for admin approval.
type SubmitMemoRequest struct {
	RecipientID *string         `json:"recipient" binding:"omitempty,uuid"`
	Recipients  []string        `json:"recipients" binding:"omitempty,max=200,dive,uuid"`
	Subject     string          `json:"subject" binding:"required,max=255"`
	Content     string          `json:"content"`
	Department  string          `json:"department" binding:"max=120"`
	Priority    domain.Priority `json:"priority" binding:"omitempty,memo_priority"`
	Metadata    map[string]any  `json:"metadata"`
}

// RejectMemoRequest carries the reason shown to the sender.
type RejectMemoRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ListMemosParams defines query parameters for a folder listing.
type ListMemosParams struct {
	Folder    string  `form:"folder,default=inbox" binding:"oneof=inbox sent drafts archived deleted"`
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// HistoryEntryResponse mirrors domain.HistoryEntry.
type HistoryEntryResponse struct {
	At     time.Time `json:"at"`
	By     string    `json:"by"`
	Email  string    `json:"email"`
	Action string    `json:"action"`
	Reason string    `json:"reason,omitempty"`
}

// MemoResponse is the public view of a memo or notification.
type MemoResponse struct {
	MemoID        string                 `json:"memoID"`
	Kind          string                 `json:"kind"`
	SenderID      string                 `json:"senderID"`
	RecipientID   *string                `json:"recipientID,omitempty"`
	Recipients    []string               `json:"recipients,omitempty"`
	Subject       string                 `json:"subject"`
	Content       string                 `json:"content"`
	Department    string                 `json:"department"`
	Priority      domain.Priority        `json:"priority"`
	Status        domain.MemoStatus      `json:"status"`
	Folder        domain.Folder          `json:"folder"`
	EventType     domain.EventType       `json:"eventType,omitempty"`
	RelatedMemoID string                 `json:"relatedMemoID,omitempty"`
	Action        domain.ReviewAction    `json:"action,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	History       []HistoryEntryResponse `json:"history"`
	Metadata      map[string]any         `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	LastUpdatedAt time.Time              `json:"lastUpdatedAt"`
}

// Response kinds.
const (
	KindLetter       = "letter"
	KindNotification = "notification"
)

// ToMemoResponse renders a classified record.
func ToMemoResponse(c domain.Correspondence) MemoResponse {
	m := c.Record()
	resp := MemoResponse{
		MemoID:        m.MemoID,
		SenderID:      m.SenderID,
		RecipientID:   m.RecipientID,
		Recipients:    m.Recipients,
		Subject:       m.Subject,
		Content:       m.Content,
		Department:    m.Department,
		Priority:      m.Priority,
		Status:        m.Status,
		Folder:        m.Folder,
		Metadata:      m.Metadata.Extra,
		History:       make([]HistoryEntryResponse, len(m.Metadata.History)),
		CreatedAt:     m.CreatedAt,
		LastUpdatedAt: m.LastUpdatedAt,
	}
	for i, h := range m.Metadata.History {
		resp.History[i] = HistoryEntryResponse{At: h.At, By: h.By.ID, Email: h.By.Email, Action: string(h.Action), Reason: h.Reason}
	}

	switch v := c.(type) {
	case domain.Letter:
		resp.Kind = KindLetter
		resp.RelatedMemoID = v.Metadata.RelatedMemoID
	case domain.Notification:
		resp.Kind = KindNotification
		resp.EventType = v.Kind
		resp.RelatedMemoID = v.RelatedMemoID
		resp.Action = v.Metadata.Action
		resp.Reason = v.Metadata.Reason
	}
	return resp
}

// ListMemosResponse is one page of a folder.
type ListMemosResponse struct {
	Memos     []MemoResponse `json:"memos"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// NotificationSummaryResponse backs the notification badges.
type NotificationSummaryResponse struct {
	PendingReview  int `json:"pendingReview"`
	ReviewDecision int `json:"reviewDecision"`
	Total          int `json:"total"`
}
