package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"techstore/internal/domain"
	"techstore/internal/repos"
)

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// IsAdmin reports whether userID holds any staff role, and which.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, string, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return false, "", nil
		}
		return false, "", err
	}
	return domain.IsStaffRole(u.Role), u.Role, nil
}
