package session

import (
	"context"
	"time"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/logging"
	"github.com/dkovalov/confidant/internal/models"
)

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

// Manager mints, verifies and destroys sessions. Tokens are opaque random
// hex strings; all session state lives server-side in the Store.
type Manager struct {
	store  Store
	logger logging.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, logger logging.Logger, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Create mints a session for the user at the granted level and returns the
// bearer token.
func (m *Manager) Create(ctx context.Context, userID string, granted models.AccessLevel) (string, error) {
	token, err := common.MakeRandHexString(tokenBytes)
	if err != nil {
		return "", err
	}
	now := m.now().UTC()
	m.store.Put(token, &models.Session{
		UserID:       userID,
		GrantedLevel: granted,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	})
	m.logger.Debug(ctx, "session created", "user_id", userID, "granted_level", granted, "ttl", m.ttl)
	return token, nil
}

// Verify checks that the token names a live session whose granted level
// dominates the required one. An expired session is discarded on sight.
func (m *Manager) Verify(ctx context.Context, token string, required models.AccessLevel) (*models.Session, error) {
	s, ok := m.store.Get(token)
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	if s.ExpiredAt(m.now()) {
		m.store.Delete(token)
		m.logger.Debug(ctx, "session expired", "user_id", s.UserID)
		return nil, common.ErrSessionExpired
	}
	if !s.GrantedLevel.Dominates(required) {
		return nil, common.ErrInsufficientAccess
	}
	return s, nil
}

// Destroy removes the session if it exists. Destroying an unknown token is
// not an error.
func (m *Manager) Destroy(token string) {
	m.store.Delete(token)
}

// Sweep drops every expired session and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	removed := m.store.Sweep(m.now())
	if removed > 0 {
		m.logger.Debug(ctx, "expired sessions swept", "count", removed)
	}
	return removed
}
