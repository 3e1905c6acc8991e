package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// AuthService implements registration, login and the admin bootstrap.
type AuthService struct {
	repo       ports.UserRepository
	sessions   ports.SessionService
	bcryptCost int
	log        zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, sessions ports.SessionService, bcryptCost int, log zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, sessions: sessions, bcryptCost: bcryptCost, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, domain.Invalid("missing email or password")
	}

	// The store's unique index is authoritative; this lookup only saves a
	// bcrypt round for the common duplicate case.
	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	return s.create(ctx, in.Name, in.Email, in.Password, domain.RoleUser)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", domain.Invalid("missing email or password")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.sessions.Issue(user)
}

func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.Invalid("admin email and password are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		s.log.Info().Str("email", email).Str("role", existing.Role).Msg("admin bootstrap skipped, user exists")
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err := s.create(ctx, name, email, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrUserExists) {
		// Another instance won the race.
		return s.repo.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("email", email).Int64("user_id", user.ID).Msg("admin user created")
	return user, nil
}

func (s *AuthService) create(ctx context.Context, name, email, password, role string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
}
