package audit

import (
	"time"

	"github.com/dkovalov/confidant/internal/models"
)

// Stats summarizes a user's recent authentication history. LockedUntil is
// filled in by the caller from the profile, since the audit log itself
// only records attempts.
type Stats struct {
	UserID      string     `json:"user_id"`
	Total       int        `json:"total"`
	Successes   int        `json:"successes"`
	Failures    int        `json:"failures"`
	SuccessRate float64    `json:"success_rate"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// ComputeStats folds a slice of attempts (oldest first) into Stats.
func ComputeStats(userID string, attempts []models.AccessAttempt) *Stats {
	s := &Stats{UserID: userID, Total: len(attempts)}
	for i := range attempts {
		a := attempts[i]
		if a.Success {
			s.Successes++
			ts := a.Timestamp
			s.LastSuccess = &ts
		} else {
			s.Failures++
			ts := a.Timestamp
			s.LastFailure = &ts
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Total)
	}
	return s
}
