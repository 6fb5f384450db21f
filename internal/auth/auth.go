package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"clinic-scheduling-api/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTTL = 7 * 24 * time.Hour

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token proves about its bearer.
type Identity struct {
	UserID int64
	Role   Role
}

// Authority issues and verifies HS256 identity tokens. There is no revocation:
// a token stays usable until it expires or its subject is deleted.
type Authority struct {
	secret   []byte
	ttl      time.Duration
	subjects SubjectChecker
	now      func() time.Time
}

type Option func(*Authority)

func WithTTL(d time.Duration) Option {
	return func(a *Authority) {
		if d > 0 {
			a.ttl = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

func NewAuthority(secret string, subjects SubjectChecker, opts ...Option) *Authority {
	a := &Authority{
		secret:   []byte(secret),
		ttl:      DefaultTTL,
		subjects: subjects,
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Authority) Issue(userID int64, role Role) (string, error) {
	now := a.now()
	c := Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
}

// Verify returns the token's identity when it is intact, unexpired, carries
// required and names a subject that still exists. Any other outcome is an
// *apperr.Error of the auth category, or a storage failure from the lookup.
func (a *Authority) Verify(ctx context.Context, raw string, required Role) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, apperr.ErrMissingToken
	}

	c := &Claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrMalformed
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, apperr.ErrExpired
	case err != nil:
		return Identity{}, apperr.ErrMalformed
	}

	role, err := ParseRole(c.Role)
	if err != nil || c.UserID <= 0 {
		return Identity{}, apperr.ErrMalformed
	}
	if !strings.EqualFold(c.Role, string(required)) {
		return Identity{}, apperr.ErrRoleMismatch
	}

	ok, err := a.subjects.SubjectExists(ctx, role, c.UserID)
	if err != nil {
		return Identity{}, apperr.Storage("verify token subject", c.UserID, err)
	}
	if !ok {
		return Identity{}, apperr.ErrUnknownSubject
	}
	return Identity{UserID: c.UserID, Role: role}, nil
}
