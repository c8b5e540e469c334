package domain_test

import (
	"testing"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewDecision_UnknownActionIsError(t *testing.T) {
	_, err := domain.NewReviewDecision("escalated", "")
	assert.Error(t, err)

	var zero domain.ReviewDecision
	assert.False(t, zero.Valid())
}

func TestReviewDecision_Message(t *testing.T) {
	rejected, err := domain.NewReviewDecision(domain.ReviewRejected, "  insufficient budget ")
	require.NoError(t, err)
	subject, body := rejected.Message("Budget Request")
	assert.Equal(t, "Memo rejected: Budget Request", subject)
	assert.Contains(t, body, "insufficient budget")
	assert.Equal(t, "insufficient budget", rejected.Reason())

	approved, err := domain.NewReviewDecision(domain.ReviewApproved, "")
	require.NoError(t, err)
	subject, _ = approved.Message("Budget Request")
	assert.Equal(t, "Memo approved: Budget Request", subject)

	pending, err := domain.NewReviewDecision(domain.ReviewPending, "")
	require.NoError(t, err)
	subject, _ = pending.Message("Budget Request")
	assert.Equal(t, "Memo submitted for approval: Budget Request", subject)
}
