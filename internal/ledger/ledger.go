package ledger

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/models"
)

var (
	ErrNotFound         = errors.New("refresh token not found")
	ErrExpiredOrRevoked = errors.New("refresh token expired or revoked")
)

const issueAttempts = 3

// Ledger persists refresh tokens. One row per issued token; issuing never
// revokes prior rows, so a user may hold several live sessions at once.
type Ledger struct {
	DB  *gorm.DB
	TTL time.Duration
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (l *Ledger) Issue(ctx context.Context, userID uint, now time.Time) (string, error) {
	for attempt := 0; attempt < issueAttempts; attempt++ {
		token, err := newOpaqueToken()
		if err != nil {
			return "", err
		}

		row := models.RefreshToken{
			Token:     token,
			UserID:    userID,
			ExpiresAt: now.Add(l.TTL),
		}
		err = l.DB.WithContext(ctx).Create(&row).Error
		if err == nil {
			return token, nil
		}
		// Unique index collision on the token string: regenerate.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("could not generate a unique refresh token in %d attempts", issueAttempts)
}

func (l *Ledger) FindValid(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := l.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if row.Revoked || !now.Before(row.ExpiresAt) {
		return nil, ErrExpiredOrRevoked
	}
	return &row, nil
}

// Revoke marks the matching row revoked and reports how many rows changed.
// Revoking an unknown or already-revoked token is not an error.
func (l *Ledger) Revoke(ctx context.Context, token string) (int64, error) {
	result := l.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND revoked = ?", token, false).
		Update("revoked", true)
	return result.RowsAffected, result.Error
}

// RevokeAllForUser revokes every still-valid token owned by userID.
func (l *Ledger) RevokeAllForUser(ctx context.Context, userID uint, now time.Time) (int64, error) {
	result := l.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Update("revoked", true)
	return result.RowsAffected, result.Error
}

// WithTx returns a Ledger bound to tx so revocation can join a caller's
// transaction (ban flows revoke sessions and flip the role atomically).
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{DB: tx, TTL: l.TTL}
}
