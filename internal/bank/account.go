package bank

import (
	"context"
	"errors"
	"strings"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/auth"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

// SignUp holds account registration fields.
type SignUp struct {
	Name     string         `json:"name" validate:"required,min=3"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Role     model.UserRole `json:"role" validate:"omitempty,oneof=PROFESSOR STUDENT"`
}

// Register creates an active account. The role defaults to STUDENT.
func (s *Service) Register(ctx context.Context, in SignUp) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.UserRoleStudent
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	u, err := s.store.CreateUser(ctx, model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("EmailInUse")
	}
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	return &u, nil
}

// Authenticate checks credentials. Unknown emails, inactive accounts and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if u == nil || !u.Active || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthorized("InvalidCredentials")
	}
	return u, nil
}
