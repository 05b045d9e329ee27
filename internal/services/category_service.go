package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type CategoryService struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewCategoryService(repo *storage.SQLiteRepository, logger *log.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger.WithComponent(log.ComponentCategory)}
}

// List returns the user's own categories together with the global
// defaults, ordered by name.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.repo.ListCategories(ctx, userID)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, userID, id)
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.IsDefault = false
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	exists, err := s.repo.CategoryNameExists(ctx, c.UserID, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
	}
	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created",
		log.FieldUserID, c.UserID,
		log.FieldCategoryID, created.ID)
	return created, nil
}

// Update edits an owned category. Default categories are shared and
// read-only.
func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	current, err := s.repo.GetCategory(ctx, c.UserID, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if current.IsDefault {
		return core.Category{}, fmt.Errorf("default category: %w", core.ErrForbidden)
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.Name != current.Name {
		exists, err := s.repo.CategoryNameExists(ctx, c.UserID, c.Name)
		if err != nil {
			return core.Category{}, fmt.Errorf("check category name: %w", err)
		}
		if exists {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
		}
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return s.repo.GetCategory(ctx, c.UserID, c.ID)
}

func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	current, err := s.repo.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if current.IsDefault {
		return fmt.Errorf("default category: %w", core.ErrForbidden)
	}
	if err := s.repo.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldUserID, userID,
		log.FieldCategoryID, id)
	return nil
}
