package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/playersden/gamehub/internal/roles"
)

var (
	ErrTokenExpired = errors.New("access token expired")
	ErrTokenInvalid = errors.New("invalid access token")
)

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID uint
	Role   roles.Role
}

func (p Principal) CanModify(authorID uint) bool {
	return p.UserID == authorID || p.Role == roles.RoleAdmin
}

// Codec issues and verifies HS256 access tokens. Verification is a pure
// function of token, secret and the supplied clock; no storage lookup.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

func (c *Codec) TTL() time.Duration { return c.ttl }

func (c *Codec) Issue(userID uint, role roles.Role, now time.Time) (string, error) {
	claims := AccessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *Codec) Verify(raw string, now time.Time) (*Principal, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	role, ok := roles.Parse(claims.Role)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return &Principal{UserID: uint(id), Role: role}, nil
}
