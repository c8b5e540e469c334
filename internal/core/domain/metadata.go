package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// EventType tags notification records.
type EventType string

const (
	EventMemoPendingReview  EventType = "memo_pending_review"
	EventMemoReviewDecision EventType = "memo_review_decision"
)

// MemoMetadata is the bookkeeping blob stored with every memo. Known keys get
// typed fields; anything else a caller supplied is kept in Extra and written
// back unchanged.
type MemoMetadata struct {
	History        []HistoryEntry
	RelatedMemoID  string
	OriginalMemoID string
	EventType      EventType
	Action         ReviewAction
	Reason         string
	Extra          map[string]any
}

const (
	metaHistory        = "history"
	metaRelatedMemoID  = "relatedMemoId"
	metaOriginalMemoID = "originalMemoId"
	metaEventType      = "eventType"
	metaAction         = "action"
	metaReason         = "reason"
)

func isReservedMetadataKey(k string) bool {
	switch k {
	case metaHistory, metaRelatedMemoID, metaOriginalMemoID, metaEventType, metaAction, metaReason:
		return true
	}
	return false
}

// NewMemoMetadata starts a metadata blob from caller supplied fields. Reserved
// workflow keys are dropped so callers cannot forge history or links.
func NewMemoMetadata(fields map[string]any) MemoMetadata {
	var md MemoMetadata
	for k, v := range fields {
		if isReservedMetadataKey(k) {
			continue
		}
		if md.Extra == nil {
			md.Extra = make(map[string]any, len(fields))
		}
		md.Extra[k] = v
	}
	return md
}

// Clone returns a copy that shares no slices or top-level maps with md.
func (md MemoMetadata) Clone() MemoMetadata {
	out := md
	out.History = append([]HistoryEntry(nil), md.History...)
	out.Extra = maps.Clone(md.Extra)
	return out
}

func (md MemoMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(md.Extra)+6)
	for k, v := range md.Extra {
		out[k] = v
	}
	history := md.History
	if history == nil {
		history = []HistoryEntry{}
	}
	out[metaHistory] = history
	if md.RelatedMemoID != "" {
		out[metaRelatedMemoID] = md.RelatedMemoID
	}
	if md.OriginalMemoID != "" {
		out[metaOriginalMemoID] = md.OriginalMemoID
	}
	if md.EventType != "" {
		out[metaEventType] = md.EventType
	}
	if md.Action != "" {
		out[metaAction] = md.Action
	}
	if md.Reason != "" {
		out[metaReason] = md.Reason
	}
	return json.Marshal(out)
}

func (md *MemoMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding memo metadata: %w", err)
	}
	*md = MemoMetadata{}
	for k, v := range raw {
		var err error
		switch k {
		case metaHistory:
			err = json.Unmarshal(v, &md.History)
		case metaRelatedMemoID:
			err = json.Unmarshal(v, &md.RelatedMemoID)
		case metaOriginalMemoID:
			err = json.Unmarshal(v, &md.OriginalMemoID)
		case metaEventType:
			err = json.Unmarshal(v, &md.EventType)
		case metaAction:
			err = json.Unmarshal(v, &md.Action)
		case metaReason:
			err = json.Unmarshal(v, &md.Reason)
		default:
			var val any
			if err = json.Unmarshal(v, &val); err == nil {
				if md.Extra == nil {
					md.Extra = make(map[string]any)
				}
				md.Extra[k] = val
			}
		}
		if err != nil {
			return fmt.Errorf("decoding memo metadata key %q: %w", k, err)
		}
	}
	return nil
}
