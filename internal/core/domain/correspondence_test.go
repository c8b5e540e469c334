package domain_test

import (
	"testing"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	letter, err := domain.Classify(domain.Memo{MemoID: "m-1"})
	require.NoError(t, err)
	_, ok := letter.(domain.Letter)
	assert.True(t, ok)

	note, err := domain.Classify(domain.Memo{
		MemoID:       "n-1",
		ActivityType: domain.ActivitySystemNotification,
		Metadata: domain.MemoMetadata{
			EventType:      domain.EventMemoReviewDecision,
			RelatedMemoID:  "m-1",
			OriginalMemoID: "m-1",
		},
	})
	require.NoError(t, err)
	n, ok := note.(domain.Notification)
	require.True(t, ok)
	assert.Equal(t, domain.EventMemoReviewDecision, n.Kind)
	assert.Equal(t, "m-1", n.RelatedMemoID)
	assert.Equal(t, "n-1", n.Record().MemoID)
}

func TestClassify_RejectsUnknownShapes(t *testing.T) {
	_, err := domain.Classify(domain.Memo{MemoID: "x", ActivityType: "calendar_event"})
	assert.Error(t, err)

	_, err = domain.Classify(domain.Memo{
		MemoID:       "y",
		ActivityType: domain.ActivitySystemNotification,
		Metadata:     domain.MemoMetadata{EventType: "memo_escalated", RelatedMemoID: "m"},
	})
	assert.Error(t, err)

	_, err = domain.Classify(domain.Memo{
		MemoID:       "z",
		ActivityType: domain.ActivitySystemNotification,
		Metadata:     domain.MemoMetadata{EventType: domain.EventMemoPendingReview},
	})
	assert.Error(t, err, "a notification must point at a memo")
}
