package domain_test

import (
	"testing"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHistory_KeepsPriorEntries(t *testing.T) {
	secretary := domain.Actor{ID: "sec-1", Email: "sec@buksu.edu.ph"}
	admin := domain.Actor{ID: "adm-1", Email: "admin@buksu.edu.ph"}
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	memo := domain.Memo{
		MemoID:   "m-1",
		Metadata: domain.NewMemoMetadata(map[string]any{"source": "compose"}),
	}
	memo = domain.AppendHistory(memo, secretary, domain.HistoryCreated, "", t0)
	before := memo

	after := domain.AppendHistory(memo, admin, domain.HistoryRejected, "insufficient budget", t0.Add(time.Hour))

	require.Len(t, before.Metadata.History, 1, "input must not be mutated")
	require.Len(t, after.Metadata.History, 2)
	assert.Equal(t, before.Metadata.History[0], after.Metadata.History[0])
	assert.Equal(t, domain.HistoryEntry{
		At:     t0.Add(time.Hour),
		By:     admin,
		Action: domain.HistoryRejected,
		Reason: "insufficient budget",
	}, after.Metadata.History[1])
	assert.Equal(t, "compose", after.Metadata.Extra["source"])
}

func TestAppendHistory_NoAliasing(t *testing.T) {
	actor := domain.Actor{ID: "u"}
	now := time.Now()

	base := domain.AppendHistory(domain.Memo{}, actor, domain.HistoryCreated, "", now)
	// give the slice spare capacity so a careless append would share it
	base.Metadata.History = append(make([]domain.HistoryEntry, 0, 8), base.Metadata.History...)

	a := domain.AppendHistory(base, actor, domain.HistoryApproved, "", now)
	b := domain.AppendHistory(base, actor, domain.HistoryRejected, "no", now)

	assert.Equal(t, domain.HistoryApproved, a.Metadata.History[1].Action)
	assert.Equal(t, domain.HistoryRejected, b.Metadata.History[1].Action)
	assert.Len(t, base.Metadata.History, 1)
}

func TestAppendHistory_GrowsByOne(t *testing.T) {
	memo := domain.Memo{}
	actor := domain.Actor{ID: "u"}
	for n := 0; n < 5; n++ {
		prev := memo.Metadata.History
		memo = domain.AppendHistory(memo, actor, domain.HistorySent, "", time.Now())
		require.Len(t, memo.Metadata.History, n+1)
		if n > 0 {
			assert.Equal(t, prev, memo.Metadata.History[:n])
		}
	}
	last, ok := memo.LastHistoryEntry()
	assert.True(t, ok)
	assert.Equal(t, domain.HistorySent, last.Action)
}
