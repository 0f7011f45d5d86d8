package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/dbx"
	"github.com/dkovalov/confidant/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository is the shared-store profile backend for multi-instance
// deployments. Method and phrase lists are stored as JSONB.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.SecurityProfile) error {
	methods, phrases, err := marshalLists(p)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO security_profiles
		   (user_id, security_level, enabled_methods, master_hash, pin_hash,
		    totp_secret, voiceprint_hash, biometric_hash, phrase_hashes,
		    failed_attempts, locked_until, last_access, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 `

	_, err = r.db.ExecContext(ctx, query,
		p.UserID, p.SecurityLevel, methods, p.MasterHash, nullable(p.PinHash),
		nullable(p.TotpSecret), nullable(p.VoicePrintHash), nullable(p.BiometricHash), phrases,
		p.FailedAttempts, p.LockedUntil, p.LastAccess, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrProfileExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.SecurityProfile, error) {
	query :=
		`SELECT user_id, security_level, enabled_methods, master_hash, pin_hash,
		        totp_secret, voiceprint_hash, biometric_hash, phrase_hashes,
		        failed_attempts, locked_until, last_access, created_at
		 FROM security_profiles
		 WHERE user_id = $1
		 `

	p := &models.SecurityProfile{}
	var methods, phrases []byte
	var pin, totp, voice, bio sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.SecurityLevel, &methods, &p.MasterHash, &pin,
		&totp, &voice, &bio, &phrases,
		&p.FailedAttempts, &p.LockedUntil, &p.LastAccess, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrProfileNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.PinHash = pin.String
	p.TotpSecret = totp.String
	p.VoicePrintHash = voice.String
	p.BiometricHash = bio.String

	if err := json.Unmarshal(methods, &p.EnabledMethods); err != nil {
		return nil, fmt.Errorf("db error: corrupt enabled_methods: %w", err)
	}
	if len(phrases) > 0 {
		if err := json.Unmarshal(phrases, &p.PhraseHashes); err != nil {
			return nil, fmt.Errorf("db error: corrupt phrase_hashes: %w", err)
		}
	}
	return p, nil
}

func (r *PostgresRepository) Save(ctx context.Context, p *models.SecurityProfile) error {
	methods, phrases, err := marshalLists(p)
	if err != nil {
		return err
	}

	query :=
		`UPDATE security_profiles
		 SET security_level = $2, enabled_methods = $3, master_hash = $4,
		     pin_hash = $5, totp_secret = $6, voiceprint_hash = $7,
		     biometric_hash = $8, phrase_hashes = $9, failed_attempts = $10,
		     locked_until = $11, last_access = $12
		 WHERE user_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		p.UserID, p.SecurityLevel, methods, p.MasterHash,
		nullable(p.PinHash), nullable(p.TotpSecret), nullable(p.VoicePrintHash),
		nullable(p.BiometricHash), phrases, p.FailedAttempts,
		p.LockedUntil, p.LastAccess)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrProfileNotFound
	}
	return nil
}

func marshalLists(p *models.SecurityProfile) (methods, phrases []byte, err error) {
	methods, err = json.Marshal(p.EnabledMethods)
	if err != nil {
		return nil, nil, fmt.Errorf("db error: %w", err)
	}
	phrases, err = json.Marshal(p.PhraseHashes)
	if err != nil {
		return nil, nil, fmt.Errorf("db error: %w", err)
	}
	return methods, phrases, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
