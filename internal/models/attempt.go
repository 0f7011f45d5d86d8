package models

import "time"

// AccessAttempt is the immutable audit record of a single authentication
// attempt. Attempts are appended to a monthly partition and never mutated.
type AccessAttempt struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Method         AuthMethod  `json:"method"`
	RequestedLevel AccessLevel `json:"requested_level"`
	Success        bool        `json:"success"`
	Reason         string      `json:"reason,omitempty"`
}
