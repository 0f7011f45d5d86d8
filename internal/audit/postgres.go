package audit

import (
	"context"
	"fmt"

	"github.com/dkovalov/confidant/internal/dbx"
	"github.com/dkovalov/confidant/internal/models"
)

// PostgresRepository is the shared-store audit backend for multi-instance
// deployments. Rows are insert-only; there is no update or delete path.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, attempt *models.AccessAttempt) error {
	query :=
		`INSERT INTO access_attempts (id, user_id, ts, method, requested_level, success, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		attempt.ID, attempt.UserID, attempt.Timestamp, attempt.Method,
		attempt.RequestedLevel, attempt.Success, attempt.Reason)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Recent(ctx context.Context, userID string, limit int) ([]models.AccessAttempt, error) {
	query :=
		`SELECT id, user_id, ts, method, requested_level, success, reason
		 FROM access_attempts
		 WHERE user_id = $1
		 ORDER BY ts DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var attempts []models.AccessAttempt
	for rows.Next() {
		var a models.AccessAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.Timestamp, &a.Method,
			&a.RequestedLevel, &a.Success, &a.Reason); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// newest last, matching the file backend
	for i, j := 0, len(attempts)-1; i < j; i, j = i+1, j-1 {
		attempts[i], attempts[j] = attempts[j], attempts[i]
	}
	return attempts, nil
}
