package repository

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildDeliveriesInsert(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q, args := buildDeliveriesInsert([]model.Delivery{
		{RecordID: "a", Outcome: model.OutcomeSuccess, StatusCode: 200, Source: "kafka", CreatedAt: now},
		{RecordID: "b", Outcome: model.OutcomeFailure, ErrorKind: "connection", Source: "kafka", CreatedAt: now},
	})

	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	assert.Contains(t, q, "ON DUPLICATE KEY UPDATE")
	assert.Len(t, args, 2*deliveryColumns)
	assert.Equal(t, "a", args[0])
	assert.Equal(t, "success", args[1])
	assert.Equal(t, "failure", args[deliveryColumns+1])
	assert.Equal(t, "connection", args[deliveryColumns+5])
}

func TestBuildDeliveriesList(t *testing.T) {
	q, args := buildDeliveriesList(model.OutcomeFailure, "redis", 0, -5)
	assert.Contains(t, q, "AND outcome = ?")
	assert.Contains(t, q, "AND source = ?")
	assert.Equal(t, []any{"failure", "redis", 50, 0}, args)

	q, args = buildDeliveriesList("", "", 10, 20)
	assert.NotContains(t, q, "outcome = ?")
	assert.Equal(t, []any{10, 20}, args)
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := strings.Repeat("é", 10) // 20 bytes
	got := truncate(s, 5)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 5)
	assert.Equal(t, "abc", truncate("abc", 5))
}

func TestTruncateLargeInput(t *testing.T) {
	s := strings.Repeat("é", 50_000) // 100 KB
	start := time.Now()
	got := truncate(s, 512)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, strings.Repeat("é", 256), got)

	got = truncate("a"+s, 512)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 511)
}

func TestBuildDeliveriesInsertClampsRecordID(t *testing.T) {
	long := strings.Repeat("x", 200)
	_, args := buildDeliveriesInsert([]model.Delivery{{RecordID: long, Outcome: model.OutcomeSuccess}})
	assert.Equal(t, long[:model.MaxRecordIDLen], args[0])
}
