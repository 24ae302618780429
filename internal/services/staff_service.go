package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"techstore/internal/domain"
	"techstore/internal/repos"
	"techstore/internal/validate"
)

// bcryptCost matches what login has to verify against.
const bcryptCost = 12

type StaffService struct {
	Users *repos.UserRepo
}

type StaffInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *StaffService) List(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

func (s *StaffService) Create(ctx context.Context, in StaffInput) (*domain.User, error) {
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, invalid("email")
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, invalid("name")
	}
	if !validate.Password(in.Password) {
		return nil, invalid("password")
	}
	role, ok := validate.Role(in.Role)
	if !ok {
		return nil, invalid("role")
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, invalid("email")
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Email: strings.ToLower(email), Name: name, Hash: string(h), Role: role}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *StaffService) ChangeRole(ctx context.Context, actorID, id, role string) error {
	role, ok := validate.Role(role)
	if !ok {
		return invalid("role")
	}
	if actorID == id {
		return ErrSelfAction
	}
	return s.Users.UpdateRole(ctx, id, role)
}

func (s *StaffService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfAction
	}
	return s.Users.Delete(ctx, id)
}

// SeedSuperAdmin creates the first account when there are no users yet.
// It reports whether an account was created.
func (s *StaffService) SeedSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	n, err := s.Users.Count(ctx)
	if err != nil || n > 0 {
		return false, err
	}
	_, err = s.Create(ctx, StaffInput{Email: email, Name: "Super Admin", Password: password, Role: domain.RoleSuperAdmin})
	if err != nil {
		return false, err
	}
	return true, nil
}
