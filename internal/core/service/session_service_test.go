package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

func seedUser(t *testing.T, repo *stubUserRepo, email, role string) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &domain.User{Email: email, Name: "n", Role: role})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestSessionService_IssueAndVerify(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewSessionService(repo, "secret", 0)
	user := seedUser(t, repo, "a@b.com", domain.RoleUser)

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := svc.Verify(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.ID != user.ID || p.Email != "a@b.com" || p.Role != domain.RoleUser || p.Name != "n" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestSessionService_DefaultTTLIsSevenDays(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewSessionService(repo, "secret", 0)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	user := seedUser(t, repo, "a@b.com", domain.RoleUser)

	token, _ := svc.Issue(user)

	var claims sessionClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil },
		jwt.WithTimeFunc(func() time.Time { return fixed })); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(fixed); got != 7*24*time.Hour {
		t.Fatalf("expected 7 day expiry, got %v", got)
	}

	svc.now = func() time.Time { return fixed.Add(7*24*time.Hour + time.Minute) }
	if _, err := svc.Verify(context.Background(), "Bearer "+token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestSessionService_RejectsMalformedHeaders(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewSessionService(repo, "secret", time.Hour)
	user := seedUser(t, repo, "a@b.com", domain.RoleUser)
	token, _ := svc.Issue(user)

	headers := []string{
		"",
		token,
		"bearer " + token,
		"Token " + token,
		"Bearer",
		"Bearer ",
		"Bearer " + token + " extra",
		"Bearer not-a-token",
	}
	for _, h := range headers {
		if _, err := svc.Verify(context.Background(), h); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("header %q: expected ErrUnauthorized, got %v", h, err)
		}
	}
}

func TestSessionService_RejectsForeignSignature(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, "a@b.com", domain.RoleAdmin)

	forged, _ := NewSessionService(repo, "other-secret", time.Hour).Issue(user)
	svc := NewSessionService(repo, "secret", time.Hour)

	if _, err := svc.Verify(context.Background(), "Bearer "+forged); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionService_RejectsNoneAlgorithm(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, "a@b.com", domain.RoleAdmin)
	svc := NewSessionService(repo, "secret", time.Hour)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": user.ID,
		"role":   domain.RoleAdmin,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := svc.Verify(context.Background(), "Bearer "+unsigned); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionService_DeletedUserIsUnauthorized(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewSessionService(repo, "secret", time.Hour)
	user := seedUser(t, repo, "a@b.com", domain.RoleUser)
	token, _ := svc.Issue(user)

	repo.remove(user.ID)

	if _, err := svc.Verify(context.Background(), "Bearer "+token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionService_RoleIsReadLive(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewSessionService(repo, "secret", time.Hour)
	user := seedUser(t, repo, "a@b.com", domain.RoleUser)
	token, _ := svc.Issue(user)

	repo.setRole(user.ID, domain.RoleAdmin)

	p, err := svc.Verify(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !p.IsAdmin() {
		t.Fatalf("expected promoted role to apply without re-login, got %s", p.Role)
	}
}
