package bank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pavelanni/questionbank/internal/model"
	"github.com/pavelanni/questionbank/internal/store"
)

// ImportFiles loads question JSON files owned by ownerID. A file is imported
// once; unchanged files are skipped and changed files are reported and skipped.
func (s *Service) ImportFiles(ctx context.Context, ownerID string, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		n, err := s.Import(ctx, ownerID, path, data)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("imported questions", "path", path, "count", n)
		}
	}
	return nil
}

// Import stores the questions in data under the name path and returns how
// many were inserted.
func (s *Service) Import(ctx context.Context, ownerID, path string, data []byte) (int, error) {
	hash := sha256sum(data)
	storedHash, err := s.store.GetImportedFileHash(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("questions file unchanged, skipping", "path", path)
		return 0, nil
	}
	if storedHash != "" {
		slog.Warn("questions file changed since last import, skipping to avoid duplicating questions",
			"path", path)
		return 0, nil
	}

	var questions []model.QuestionImport
	if err := json.Unmarshal(data, &questions); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		disciplines := map[string]*string{}
		for i, qi := range questions {
			if strings.TrimSpace(qi.Statement) == "" {
				return fmt.Errorf("question %d in %s has no statement", i+1, path)
			}
			disciplineID, err := resolveDiscipline(ctx, tx, disciplines, strings.TrimSpace(qi.Discipline))
			if err != nil {
				return err
			}
			nq := model.NewQuestion{
				Difficulty:   qi.Difficulty,
				Type:         qi.Type,
				Alternatives: qi.Alternatives,
			}.WithDefaults()
			if _, err := tx.CreateQuestion(ctx, model.Question{
				Statement:     qi.Statement,
				CorrectAnswer: qi.CorrectAnswer,
				Difficulty:    nq.Difficulty,
				Type:          nq.Type,
				Alternatives:  nq.Alternatives,
				DisciplineID:  disciplineID,
				CreatorID:     ownerID,
			}); err != nil {
				return fmt.Errorf("insert question from %s: %w", path, err)
			}
		}
		return tx.SetImportedFileHash(ctx, path, hash)
	})
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

// resolveDiscipline finds or creates a discipline by name, caching IDs per import.
func resolveDiscipline(ctx context.Context, tx *store.Store, cache map[string]*string, name string) (*string, error) {
	if name == "" {
		return nil, nil
	}
	if id, ok := cache[name]; ok {
		return id, nil
	}
	d, err := tx.GetDisciplineByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up discipline %q: %w", name, err)
	}
	if d == nil {
		created, err := tx.CreateDiscipline(ctx, model.Discipline{Name: name})
		if err != nil {
			return nil, fmt.Errorf("create discipline %q: %w", name, err)
		}
		d = &created
	}
	cache[name] = &d.ID
	return &d.ID, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
