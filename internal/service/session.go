package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/events"
	"github.com/playersden/gamehub/internal/hash"
	"github.com/playersden/gamehub/internal/ledger"
	"github.com/playersden/gamehub/internal/logging"
	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/roles"
	"github.com/playersden/gamehub/pkg/tokens"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{2,16}$`)

const minPasswordLen = 8

// SessionService orchestrates sign-up, sign-in, refresh and logout on top of
// the token codec and the refresh-token ledger.
type SessionService struct {
	DB       *gorm.DB
	Codec    *tokens.Codec
	Ledger   *ledger.Ledger
	Producer *events.Producer
	Now      func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type AuthResult struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         PublicUser `json:"userPublicInfo"`
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}

func validateCredentials(username, password string) error {
	verr := NewValidationError()
	if !usernameRe.MatchString(username) {
		verr.Add("username", "must be 2-16 characters, letters, digits and underscore only")
	}
	if len(password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	return verr.OrNil()
}

func (s *SessionService) issuePair(ctx context.Context, user *models.User) (*AuthResult, error) {
	now := s.now()
	access, err := s.Codec.Issue(user.ID, roles.Role(user.Role), now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Ledger.Issue(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         publicUser(user),
	}, nil
}

func (s *SessionService) publish(ctx context.Context, topic, key string, event map[string]any) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "topic", topic, "error", err)
	}
}

func (s *SessionService) SignUp(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.sign_up")

	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	var existing models.User
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrNameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("sign_up failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         string(roles.RoleUser),
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// The unique index is the final authority; the pre-check above can
		// lose a race with a concurrent sign-up.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	res, err := s.issuePair(ctx, &user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})
	l.Info("user registered", "user_id", user.ID)
	return res, nil
}

func (s *SessionService) SignIn(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.sign_in")

	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a bad password; callers must not learn which.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, err := s.issuePair(ctx, &user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_signed_in",
		"userID":   user.ID,
		"username": user.Username,
	})
	l.Info("user signed in", "user_id", user.ID)
	return res, nil
}

// RefreshAccessToken mints a new access token against a live refresh token.
// The refresh token is not rotated. The user row is re-read so a ban or role
// change applies even to sessions opened before it.
func (s *SessionService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	row, err := s.Ledger.FindValid(ctx, refreshToken, s.now())
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return "", ErrRefreshTokenNotFound
		case errors.Is(err, ledger.ErrExpiredOrRevoked):
			return "", ErrRefreshTokenExpiredOrRevoked
		}
		return "", err
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", row.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrRefreshTokenNotFound
		}
		return "", err
	}

	access, err := s.Codec.Issue(user.ID, roles.Role(user.Role), s.now())
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// SingleSessionLogout revokes one refresh token. Repeated calls succeed with
// a zero count.
func (s *SessionService) SingleSessionLogout(ctx context.Context, refreshToken string) (int64, error) {
	return s.Ledger.Revoke(ctx, refreshToken)
}

// AllSessionsLogout revokes every live refresh token the user owns.
func (s *SessionService) AllSessionsLogout(ctx context.Context, userID uint) (int64, error) {
	count, err := s.Ledger.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("all sessions revoked", "user_id", userID, "count", count)
	return count, nil
}
