package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/models"
)

func newFileRepo(t *testing.T) *FileRepository {
	t.Helper()
	r, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	return r
}

func buildTestProfile(t *testing.T, userID string) *models.SecurityProfile {
	t.Helper()
	p, err := Build(userID, []byte("master-secret"), models.Enhanced,
		[]models.AuthMethod{models.MethodPassword, models.MethodPhrase},
		EnrollmentOptions{Phrases: []string{"My Favourite Phrase"}},
		time.Now().UTC())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return p
}

func TestFileRepository_CreateGetRoundTrip(t *testing.T) {
	r := newFileRepo(t)
	ctx := context.Background()
	p := buildTestProfile(t, "u1")

	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != "u1" || got.SecurityLevel != models.Enhanced {
		t.Errorf("unexpected profile: %+v", got)
	}
	if got.MasterHash != p.MasterHash {
		t.Errorf("master hash not persisted")
	}
	if len(got.PhraseHashes) != 1 {
		t.Errorf("phrase hashes not persisted")
	}
}

func TestFileRepository_CreateTwice(t *testing.T) {
	r := newFileRepo(t)
	ctx := context.Background()

	if err := r.Create(ctx, buildTestProfile(t, "u1")); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := r.Create(ctx, buildTestProfile(t, "u1")); !errors.Is(err, common.ErrProfileExists) {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
}

func TestFileRepository_GetMissing(t *testing.T) {
	r := newFileRepo(t)
	if _, err := r.Get(context.Background(), "ghost"); !errors.Is(err, common.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestFileRepository_SavePersistsLockoutState(t *testing.T) {
	r := newFileRepo(t)
	ctx := context.Background()
	p := buildTestProfile(t, "u1")

	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	until := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	p.FailedAttempts = 5
	p.LockedUntil = &until
	if err := r.Save(ctx, p); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.FailedAttempts != 5 {
		t.Errorf("failed attempts not persisted: %d", got.FailedAttempts)
	}
	if got.LockedUntil == nil || !got.LockedUntil.Equal(until) {
		t.Errorf("locked_until not persisted: %v", got.LockedUntil)
	}
}

func TestBuild_Validation(t *testing.T) {
	now := time.Now()

	if _, err := Build("u1", []byte("s"), models.Standard, nil, EnrollmentOptions{}, now); !errors.Is(err, common.ErrNoMethodsEnabled) {
		t.Errorf("expected ErrNoMethodsEnabled, got %v", err)
	}
	if _, err := Build("", []byte("s"), models.Standard, []models.AuthMethod{models.MethodPassword}, EnrollmentOptions{}, now); err == nil {
		t.Errorf("expected error for empty user id")
	}
	if _, err := Build("u1", nil, models.Standard, []models.AuthMethod{models.MethodPassword}, EnrollmentOptions{}, now); err == nil {
		t.Errorf("expected error for empty master secret")
	}
	if _, err := Build("u1", []byte("s"), models.SecurityLevel("ultra"), []models.AuthMethod{models.MethodPassword}, EnrollmentOptions{}, now); err == nil {
		t.Errorf("expected error for unknown security level")
	}
}
