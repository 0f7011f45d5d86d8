package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkovalov/confidant/internal/models"
	"github.com/google/uuid"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := NewLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewLog error: %v", err)
	}
	return l
}

func attemptAt(userID string, ts time.Time, success bool, reason string) *models.AccessAttempt {
	return &models.AccessAttempt{
		ID:             uuid.NewString(),
		UserID:         userID,
		Timestamp:      ts,
		Method:         models.MethodPassword,
		RequestedLevel: models.Private,
		Success:        success,
		Reason:         reason,
	}
}

func TestLog_AppendAndRecent(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := l.Append(ctx, attemptAt("u1", now.Add(time.Duration(i)*time.Minute), i == 2, "invalid credential")); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	if err := l.Append(ctx, attemptAt("other", now, true, "")); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	attempts, err := l.Recent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts for u1, got %d", len(attempts))
	}
	if !attempts[2].Success {
		t.Errorf("expected newest attempt to be the success")
	}
}

func TestLog_RecentLimit(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		if err := l.Append(ctx, attemptAt("u1", now.Add(time.Duration(i)*time.Second), false, "invalid credential")); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	attempts, err := l.Recent(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(attempts) != 4 {
		t.Fatalf("expected bounded retrieval of 4, got %d", len(attempts))
	}
}

func TestLog_RotatesAtMonthBoundary(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	july := time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)
	august := time.Date(2026, 8, 1, 0, 1, 0, 0, time.UTC)

	if err := l.Append(ctx, attemptAt("u1", july, false, "invalid credential")); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := l.Append(ctx, attemptAt("u1", august, true, "")); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	for _, name := range []string{"attempts-2026-07.jsonl", "attempts-2026-08.jsonl"} {
		if _, err := os.Stat(filepath.Join(l.Dir(), name)); err != nil {
			t.Errorf("expected partition %s: %v", name, err)
		}
	}

	// Attempts from the previous month are still visible.
	l.now = func() time.Time { return august }
	attempts, err := l.Recent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected attempts across both partitions, got %d", len(attempts))
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	attempts := []models.AccessAttempt{
		*attemptAt("u1", now.Add(-3*time.Minute), false, "invalid credential"),
		*attemptAt("u1", now.Add(-2*time.Minute), false, "invalid credential"),
		*attemptAt("u1", now.Add(-1*time.Minute), true, ""),
		*attemptAt("u1", now, true, ""),
	}

	s := ComputeStats("u1", attempts)
	if s.Total != 4 || s.Successes != 2 || s.Failures != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.SuccessRate != 0.5 {
		t.Errorf("expected success rate 0.5, got %v", s.SuccessRate)
	}
	if s.LastSuccess == nil || !s.LastSuccess.Equal(now) {
		t.Errorf("unexpected last success: %v", s.LastSuccess)
	}
	if s.LastFailure == nil || !s.LastFailure.Equal(now.Add(-2*time.Minute)) {
		t.Errorf("unexpected last failure: %v", s.LastFailure)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	s := ComputeStats("u1", nil)
	if s.Total != 0 || s.SuccessRate != 0 {
		t.Fatalf("unexpected stats for empty history: %+v", s)
	}
}
