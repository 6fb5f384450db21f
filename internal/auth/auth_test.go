package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic-scheduling-api/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func known(ids ...int64) ExistsFunc {
	set := map[int64]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, id int64) (bool, error) { return set[id], nil }
}

func newTestAuthority(c *clock) *Authority {
	subjects := Subjects{
		RoleAdmin:   known(1),
		RoleDoctor:  known(5),
		RolePatient: known(7),
	}
	return NewAuthority(testSecret, subjects, WithClock(c.now))
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)}
	a := newTestAuthority(c)

	tok, err := a.Issue(7, RolePatient)
	if err != nil {
		t.Fatal(err)
	}
	id, err := a.Verify(context.Background(), tok, RolePatient)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != 7 || id.Role != RolePatient {
		t.Fatalf("identity = %+v", id)
	}

	// role comparison ignores case
	if _, err := a.Verify(context.Background(), tok, Role("PATIENT")); err != nil {
		t.Fatalf("upper-case role: %v", err)
	}
}

func TestVerifyFailures(t *testing.T) {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	a := newTestAuthority(c)

	doctorTok, _ := a.Issue(5, RoleDoctor)
	ghostTok, _ := a.Issue(99, RolePatient)

	other := NewAuthority("another-secret-another-secret-xx", Subjects{}, WithClock(c.now))
	foreignTok, _ := other.Issue(7, RolePatient)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 7,
		Role:   "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(start.Add(time.Hour)),
		},
	})
	noneTok, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 7,
		Role:   "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(start.Add(time.Hour)),
		},
	})
	hs512Tok, _ := hs512.SignedString([]byte(testSecret))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 7, Role: "patient"})
	noExpTok, _ := noExp.SignedString([]byte(testSecret))

	tests := []struct {
		name     string
		token    string
		required Role
		want     *apperr.Error
	}{
		{"empty", "", RolePatient, apperr.ErrMissingToken},
		{"garbage", "not.a.jwt", RolePatient, apperr.ErrMalformed},
		{"wrong key", foreignTok, RolePatient, apperr.ErrMalformed},
		{"alg none", noneTok, RolePatient, apperr.ErrMalformed},
		{"alg hs512", hs512Tok, RolePatient, apperr.ErrMalformed},
		{"no expiry", noExpTok, RolePatient, apperr.ErrMalformed},
		{"doctor as admin", doctorTok, RoleAdmin, apperr.ErrRoleMismatch},
		{"deleted subject", ghostTok, RolePatient, apperr.ErrUnknownSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Verify(context.Background(), tt.token, tt.required)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifyExpiry(t *testing.T) {
	c := &clock{t: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)}
	a := newTestAuthority(c)
	tok, _ := a.Issue(7, RolePatient)

	c.t = c.t.Add(DefaultTTL - time.Second)
	if _, err := a.Verify(context.Background(), tok, RolePatient); err != nil {
		t.Fatalf("one second before expiry: %v", err)
	}

	c.t = c.t.Add(time.Second)
	if _, err := a.Verify(context.Background(), tok, RolePatient); !errors.Is(err, apperr.ErrExpired) {
		t.Fatalf("at expiry: err = %v, want expired", err)
	}
}

func TestVerifyLookupFailure(t *testing.T) {
	boom := errors.New("db down")
	subjects := Subjects{RolePatient: func(context.Context, int64) (bool, error) { return false, boom }}
	a := NewAuthority(testSecret, subjects)
	tok, _ := a.Issue(7, RolePatient)

	_, err := a.Verify(context.Background(), tok, RolePatient)
	if !errors.Is(err, apperr.ErrStorage) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want storage failure wrapping cause", err)
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "Doctor", " PATIENT "} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q): %v", s, err)
		}
	}
	if _, err := ParseRole("nurse"); err == nil {
		t.Error("nurse should not parse")
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if CheckPassword(h, "wrong") {
		t.Error("wrong password accepted")
	}
}
