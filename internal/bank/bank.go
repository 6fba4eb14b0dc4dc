// Package bank manages disciplines, questions and user profiles.
package bank

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pavelanni/questionbank/internal/apperr"
	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

// Service wraps the store with ownership rules and error classification.
type Service struct {
	store *store.Store
}

func New(s *store.Store) *Service {
	return &Service{store: s}
}

// DisciplineInput holds discipline create/update fields.
type DisciplineInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (s *Service) CreateDiscipline(ctx context.Context, name, description string) (model.Discipline, error) {
	d, err := s.store.CreateDiscipline(ctx, model.Discipline{Name: name, Description: description})
	if errors.Is(err, store.ErrDuplicate) {
		return model.Discipline{}, apperr.Conflict("DisciplineExists")
	}
	if err != nil {
		return model.Discipline{}, apperr.Internal("InternalError", err)
	}
	return d, nil
}

func (s *Service) ListDisciplines(ctx context.Context) ([]model.Discipline, error) {
	list, err := s.store.ListDisciplines(ctx)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if list == nil {
		list = []model.Discipline{}
	}
	return list, nil
}

func (s *Service) GetDiscipline(ctx context.Context, id string) (*model.Discipline, error) {
	d, err := s.store.GetDiscipline(ctx, id)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if d == nil {
		return nil, apperr.NotFound("DisciplineNotFound")
	}
	return d, nil
}

func (s *Service) UpdateDiscipline(ctx context.Context, id string, in DisciplineInput) (*model.Discipline, error) {
	if _, err := s.GetDiscipline(ctx, id); err != nil {
		return nil, err
	}
	err := s.store.UpdateDiscipline(ctx, id, in.Name, in.Description)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("DisciplineExists")
	}
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	return s.GetDiscipline(ctx, id)
}

// DeleteDiscipline refuses to delete a discipline still in use.
func (s *Service) DeleteDiscipline(ctx context.Context, id string) error {
	if _, err := s.GetDiscipline(ctx, id); err != nil {
		return err
	}
	err := s.store.DeleteDiscipline(ctx, id)
	if errors.Is(err, store.ErrReferenced) {
		return apperr.BadRequest("DisciplineInUse")
	}
	if err != nil {
		return apperr.Internal("InternalError", err)
	}
	slog.Info("discipline deleted", "id", id)
	return nil
}

// Profile returns the user behind id.
func (s *Service) Profile(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	if u == nil {
		return nil, apperr.NotFound("UserNotFound")
	}
	return u, nil
}

func (s *Service) Rename(ctx context.Context, id, name string) (*model.User, error) {
	if _, err := s.Profile(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUserName(ctx, id, name); err != nil {
		return nil, apperr.Internal("InternalError", err)
	}
	return s.Profile(ctx, id)
}

// DeleteAccount removes a user who owns no questions or exams.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.Profile(ctx, id); err != nil {
		return err
	}
	err := s.store.DeleteUser(ctx, id)
	if errors.Is(err, store.ErrReferenced) {
		return apperr.Conflict("UserHasContent")
	}
	if err != nil {
		return apperr.Internal("InternalError", err)
	}
	slog.Info("user deleted", "id", id)
	return nil
}
