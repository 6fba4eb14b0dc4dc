package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbank/internal/model"
)

const disciplineColumns = `id, name, description, created_at, updated_at`

func scanDiscipline(row interface{ Scan(...any) error }) (*model.Discipline, error) {
	var d model.Discipline
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDiscipline inserts a discipline. Names are unique.
func (s *Store) CreateDiscipline(ctx context.Context, d model.Discipline) (model.Discipline, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO disciplines (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return model.Discipline{}, fmt.Errorf("insert discipline: %w", classify(err))
	}
	return d, nil
}

// GetDiscipline returns a discipline by ID, or nil if missing.
func (s *Store) GetDiscipline(ctx context.Context, id string) (*model.Discipline, error) {
	return scanDiscipline(s.q.QueryRowContext(ctx,
		`SELECT `+disciplineColumns+` FROM disciplines WHERE id = ?`, id))
}

// GetDisciplineByName returns a discipline by its unique name, or nil if missing.
func (s *Store) GetDisciplineByName(ctx context.Context, name string) (*model.Discipline, error) {
	return scanDiscipline(s.q.QueryRowContext(ctx,
		`SELECT `+disciplineColumns+` FROM disciplines WHERE name = ?`, name))
}

// ListDisciplines returns all disciplines ordered by name.
func (s *Store) ListDisciplines(ctx context.Context) ([]model.Discipline, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+disciplineColumns+` FROM disciplines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Discipline
	for rows.Next() {
		d, err := scanDiscipline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// UpdateDiscipline changes the given fields of a discipline.
func (s *Store) UpdateDiscipline(ctx context.Context, id string, name, description *string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE disciplines SET name = COALESCE(?, name), description = COALESCE(?, description), updated_at = ?
		 WHERE id = ?`,
		nullable(name), description, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update discipline: %w", classify(err))
	}
	return nil
}

// DeleteDiscipline removes a discipline. It fails with ErrReferenced while
// questions or exams point at it.
func (s *Store) DeleteDiscipline(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM disciplines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete discipline: %w", classify(err))
	}
	return nil
}
