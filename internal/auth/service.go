package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// Repository defines data access needed by the auth service.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
}

// Service handles account registration and credential login.
type Service struct {
	repo   RepositoryPort
	tokens *TokenManager
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates an account and returns a signed session.
func (s *Service) Register(ctx context.Context, req RegisterRequest, now time.Time) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         shared.Role(req.Role),
		ManagerID:    req.ManagerID,
	})
	if err != nil {
		return nil, err
	}
	return s.sessionFor(user, now)
}

// Login verifies credentials and returns a signed session.
func (s *Service) Login(ctx context.Context, req LoginRequest, now time.Time) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.sessionFor(user, now)
}

// Me resolves the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := ProfileOf(*user)
	return &profile, nil
}

func (s *Service) sessionFor(user *User, now time.Time) (*Session, error) {
	id := shared.Identity{UserID: user.ID, Role: user.Role}
	if user.ManagerID != nil {
		id.ManagerID = *user.ManagerID
	}
	token, exp, err := s.tokens.Issue(id, now)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: ProfileOf(*user)}, nil
}
