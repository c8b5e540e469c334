package domain

import "fmt"

// Correspondence is the read-side view of a stored memo: either a Letter or a
// Notification. Use a type switch; the set is closed.
type Correspondence interface {
	Record() Memo
	correspondence()
}

// Letter is an ordinary departmental memo, including delivery copies.
type Letter struct {
	Memo
}

// NotificationKind says what a notification is about.
type NotificationKind = EventType

// Notification is a system generated record pointing at the memo it describes.
type Notification struct {
	Memo
	Kind          NotificationKind
	RelatedMemoID string
}

func (l Letter) Record() Memo       { return l.Memo }
func (n Notification) Record() Memo { return n.Memo }

func (Letter) correspondence()       {}
func (Notification) correspondence() {}

// Classify maps a stored record onto its variant.
func Classify(m Memo) (Correspondence, error) {
	switch m.ActivityType {
	case ActivityNone:
		return Letter{Memo: m}, nil
	case ActivitySystemNotification:
		switch m.Metadata.EventType {
		case EventMemoPendingReview, EventMemoReviewDecision:
		default:
			return nil, fmt.Errorf("memo %s: unknown notification event type %q", m.MemoID, m.Metadata.EventType)
		}
		if m.Metadata.RelatedMemoID == "" {
			return nil, fmt.Errorf("memo %s: notification without related memo", m.MemoID)
		}
		return Notification{Memo: m, Kind: m.Metadata.EventType, RelatedMemoID: m.Metadata.RelatedMemoID}, nil
	default:
		return nil, fmt.Errorf("memo %s: unknown activity type %q", m.MemoID, m.ActivityType)
	}
}
