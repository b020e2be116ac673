package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/events"
	"github.com/playersden/gamehub/internal/hash"
	"github.com/playersden/gamehub/internal/ledger"
	"github.com/playersden/gamehub/internal/logging"
	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/roles"
)

// UserService owns the administrative and account lifecycle operations that
// have to touch users and sessions together.
type UserService struct {
	DB       *gorm.DB
	Ledger   *ledger.Ledger
	Producer *events.Producer
	Now      func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Ban flips the role to BANNED and revokes every live session in one
// transaction, so a concurrent refresh cannot slip past the check.
func (s *UserService) Ban(ctx context.Context, userID uint) (int64, error) {
	var removed int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(user).Update("role", string(roles.RoleBanned)).Error; err != nil {
			return err
		}
		removed, err = s.Ledger.WithTx(tx).RevokeAllForUser(ctx, userID, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("user banned", "user_id", userID, "sessions_revoked", removed)
	return removed, nil
}

func (s *UserService) Unban(ctx context.Context, userID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if user.Role != string(roles.RoleBanned) {
			return nil
		}
		return tx.Model(user).Update("role", string(roles.RoleUser)).Error
	})
}

// ChangeRole grants USER or ADMIN. Banning goes through Ban, never here.
func (s *UserService) ChangeRole(ctx context.Context, userID uint, role string) error {
	r, ok := roles.Parse(role)
	if !ok || r == roles.RoleBanned {
		verr := NewValidationError()
		verr.Add("role", "must be USER or ADMIN")
		return verr
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		return tx.Model(user).Update("role", string(r)).Error
	})
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	verr := NewValidationError()
	if len(next) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if !hash.CheckPassword(user.PasswordHash, current) {
			return ErrInvalidCredentials
		}
		pwHash, err := hash.HashPassword(next)
		if err != nil {
			return err
		}
		return tx.Model(user).Update("password_hash", pwHash).Error
	})
}

// DeleteAccount removes the user and everything they own, leaves first:
// replies they wrote, replies under their comments, their comments, their
// refresh tokens, then the user row.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)",
			tx.Model(&models.Comment{}).Select("id").Where("author_id = ?", userID),
		).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.TopicUserEvents, fmt.Sprint(userID), map[string]any{
		"type":   "user_deleted",
		"userID": userID,
	}); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "topic", events.TopicUserEvents, "error", err)
	}
	return nil
}
