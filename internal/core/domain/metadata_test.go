package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoMetadata_PreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{
		"history": [{"at": "2026-03-01T08:00:00Z", "by": {"id": "u1", "email": "u1@x"}, "action": "created"}],
		"relatedMemoId": "m-0",
		"eventType": "memo_pending_review",
		"attachments": [{"name": "budget.pdf", "size": 1024}],
		"routing": {"office": {"floor": 2}}
	}`)

	var md domain.MemoMetadata
	require.NoError(t, json.Unmarshal(raw, &md))

	assert.Equal(t, "m-0", md.RelatedMemoID)
	assert.Equal(t, domain.EventMemoPendingReview, md.EventType)
	require.Len(t, md.History, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), md.History[0].At)
	assert.Contains(t, md.Extra, "attachments")
	assert.NotContains(t, md.Extra, "history")

	out, err := json.Marshal(md)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.Equal(t, map[string]any{"office": map[string]any{"floor": float64(2)}}, generic["routing"])
	assert.Equal(t, "m-0", generic["relatedMemoId"])
	assert.NotContains(t, generic, "reason")
}

func TestNewMemoMetadata_DropsReservedKeys(t *testing.T) {
	md := domain.NewMemoMetadata(map[string]any{
		"history":       []any{"forged"},
		"relatedMemoId": "x",
		"category":      "finance",
	})

	assert.Empty(t, md.History)
	assert.Empty(t, md.RelatedMemoID)
	assert.Equal(t, map[string]any{"category": "finance"}, md.Extra)
}

func TestMemoMetadata_EmptyHistoryEncodesAsArray(t *testing.T) {
	out, err := json.Marshal(domain.MemoMetadata{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"history": []}`, string(out))
}
