package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/logging"
	"github.com/dkovalov/confidant/internal/models"
)

func newTestManager(ttl time.Duration) *Manager {
	logger := logging.NewDiscard()
	return NewManager(NewMemoryStore(), logger, ttl)
}

func TestManager_CreateVerify(t *testing.T) {
	m := newTestManager(2 * time.Hour)
	ctx := context.Background()

	token, err := m.Create(ctx, "u1", models.Secret)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(token))
	}

	s, err := m.Verify(ctx, token, models.Confidential)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if s.UserID != "u1" || s.GrantedLevel != models.Secret {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestManager_TokensAreUnique(t *testing.T) {
	m := newTestManager(time.Hour)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := m.Create(ctx, "u1", models.Private)
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token minted: %s", token)
		}
		seen[token] = true
	}
}

func TestManager_Verify_DominanceGrid(t *testing.T) {
	m := newTestManager(time.Hour)
	ctx := context.Background()
	for _, granted := range models.AccessLevels {
		token, err := m.Create(ctx, "u1", granted)
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		for _, required := range models.AccessLevels {
			_, err := m.Verify(ctx, token, required)
			if granted.Dominates(required) {
				if err != nil {
					t.Errorf("granted=%s required=%s: unexpected error %v", granted, required, err)
				}
			} else if !errors.Is(err, common.ErrInsufficientAccess) {
				t.Errorf("granted=%s required=%s: expected ErrInsufficientAccess, got %v", granted, required, err)
			}
		}
	}
}

func TestManager_Verify_UnknownToken(t *testing.T) {
	m := newTestManager(time.Hour)
	ctx := context.Background()
	if _, err := m.Verify(ctx, "deadbeef", models.Public); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Verify_Expiry(t *testing.T) {
	m := newTestManager(time.Hour)
	ctx := context.Background()
	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	token, err := m.Create(ctx, "u1", models.UltraSecret)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// One nanosecond before expiry the session still verifies.
	m.now = func() time.Time { return base.Add(time.Hour - time.Nanosecond) }
	if _, err := m.Verify(ctx, token, models.Public); err != nil {
		t.Fatalf("pre-expiry Verify error: %v", err)
	}

	// Exactly at expiry it does not; there is no grace window, and the
	// session is discarded.
	m.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := m.Verify(ctx, token, models.Public); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := m.Verify(ctx, token, models.Public); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after discard, got %v", err)
	}
}

func TestManager_Destroy(t *testing.T) {
	m := newTestManager(time.Hour)
	ctx := context.Background()
	token, err := m.Create(ctx, "u1", models.Private)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	m.Destroy(token)
	if _, err := m.Verify(ctx, token, models.Public); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	// Destroying again is a no-op.
	m.Destroy(token)
}

func TestManager_Sweep(t *testing.T) {
	m := newTestManager(time.Hour)
	ctx := context.Background()
	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	stale, _ := m.Create(ctx, "u1", models.Private)
	m.now = func() time.Time { return base.Add(30 * time.Minute) }
	fresh, _ := m.Create(ctx, "u2", models.Private)

	m.now = func() time.Time { return base.Add(61 * time.Minute) }
	if removed := m.Sweep(ctx); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
	if _, err := m.Verify(ctx, stale, models.Public); !errors.Is(err, common.ErrSessionNotFound) {
		t.Errorf("stale session should be gone, got %v", err)
	}
	if _, err := m.Verify(ctx, fresh, models.Public); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

func TestGrant_Roundtrip(t *testing.T) {
	secret := []byte("grant-signing-secret")
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	s := &models.Session{UserID: "u1", GrantedLevel: models.Secret}

	grant, err := ExportGrant(s, secret, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("ExportGrant error: %v", err)
	}

	claims, err := VerifyGrant(grant, secret)
	if err != nil {
		t.Fatalf("VerifyGrant error: %v", err)
	}
	if claims.UserID != "u1" || claims.AccessLevel != models.Secret {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestGrant_WrongKey(t *testing.T) {
	s := &models.Session{UserID: "u1", GrantedLevel: models.Private}
	grant, err := ExportGrant(s, []byte("key-a"), 15*time.Minute, time.Now())
	if err != nil {
		t.Fatalf("ExportGrant error: %v", err)
	}
	if _, err := VerifyGrant(grant, []byte("key-b")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGrant_Expired(t *testing.T) {
	secret := []byte("grant-signing-secret")
	s := &models.Session{UserID: "u1", GrantedLevel: models.Private}
	grant, err := ExportGrant(s, secret, 15*time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ExportGrant error: %v", err)
	}
	if _, err := VerifyGrant(grant, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGrant_Garbage(t *testing.T) {
	if _, err := VerifyGrant("not.a.jwt", []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
