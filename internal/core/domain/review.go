package domain

import (
	"fmt"
	"strings"
)

// ReviewAction is the admin decision reported back to the memo's sender.
type ReviewAction string

const (
	ReviewPending  ReviewAction = "pending"
	ReviewApproved ReviewAction = "approved"
	ReviewRejected ReviewAction = "rejected"
)

// ReviewDecision can only be built through NewReviewDecision, so every value
// in circulation carries a known action.
type ReviewDecision struct {
	action ReviewAction
	reason string
}

// NewReviewDecision validates action. Unknown actions are an error.
func NewReviewDecision(action ReviewAction, reason string) (ReviewDecision, error) {
	switch action {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return ReviewDecision{action: action, reason: strings.TrimSpace(reason)}, nil
	default:
		return ReviewDecision{}, fmt.Errorf("unknown review action %q", action)
	}
}

func (d ReviewDecision) Action() ReviewAction { return d.action }
func (d ReviewDecision) Reason() string       { return d.reason }

// Valid is false only for the zero value.
func (d ReviewDecision) Valid() bool { return d.action != "" }

// Message renders the subject and body of the notification sent to the
// memo's author.
func (d ReviewDecision) Message(memoSubject string) (subject, body string) {
	switch d.action {
	case ReviewPending:
		return "Memo submitted for approval: " + memoSubject,
			fmt.Sprintf("Your memo %q was submitted and is awaiting admin approval.", memoSubject)
	case ReviewApproved:
		return "Memo approved: " + memoSubject,
			fmt.Sprintf("Your memo %q was approved and delivered to its recipients.", memoSubject)
	case ReviewRejected:
		body = fmt.Sprintf("Your memo %q was rejected.", memoSubject)
		if d.reason != "" {
			body += " Reason: " + d.reason
		}
		return "Memo rejected: " + memoSubject, body
	}
	panic(fmt.Sprintf("domain: review decision with unknown action %q", d.action))
}
