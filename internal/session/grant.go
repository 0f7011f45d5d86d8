package session

import (
	"time"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// GrantClaims carries the user and the access level an exported grant
// vouches for.
type GrantClaims struct {
	jwt.RegisteredClaims
	UserID      string             `json:"uid"`
	AccessLevel models.AccessLevel `json:"lvl"`
}

// ExportGrant turns a live session into a signed, self-contained grant
// that downstream services can verify without access to the session
// store. The grant carries its own, usually shorter, expiry.
func ExportGrant(s *models.Session, secretKey []byte, validity time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, GrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:      s.UserID,
		AccessLevel: s.GrantedLevel,
	})
	return token.SignedString(secretKey)
}

// VerifyGrant validates a grant's signature and expiry and returns its
// claims.
func VerifyGrant(grant string, secretKey []byte) (*GrantClaims, error) {
	claims := &GrantClaims{}
	token, err := jwt.ParseWithClaims(grant, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if !claims.AccessLevel.Valid() {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
