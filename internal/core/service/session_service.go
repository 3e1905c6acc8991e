package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// DefaultTokenTTL is the validity window of an issued session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

type sessionClaims struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionService signs HS256 tokens and resolves them back to the live user.
// Nothing is persisted; validity is the signature plus the encoded expiry.
type SessionService struct {
	users  ports.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionService(users ports.UserRepository, secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &SessionService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SessionService) Issue(user *domain.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *SessionService) Verify(ctx context.Context, authorization string) (*domain.Principal, error) {
	scheme, raw, ok := strings.Cut(authorization, " ")
	if !ok || scheme != "Bearer" || raw == "" || strings.Contains(raw, " ") {
		return nil, domain.ErrUnauthorized
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.UserID <= 0 {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	return &domain.Principal{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
		Name:  user.Name,
	}, nil
}
