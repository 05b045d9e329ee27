package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type BudgetService struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewBudgetService(repo *storage.SQLiteRepository, logger *log.Logger) *BudgetService {
	return &BudgetService{repo: repo, logger: logger.WithComponent(log.ComponentBudget)}
}

func (s *BudgetService) ListActive(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.repo.ListActiveBudgets(ctx, userID)
}

func (s *BudgetService) ListAll(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, userID)
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.repo.GetBudget(ctx, userID, id)
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	b.IsActive = true
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.resolveCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	created, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldUserID, b.UserID,
		log.FieldBudgetID, created.ID,
		log.FieldAmountCents, b.Amount.Cents)
	return created, nil
}

// Update overwrites every mutable field, including the active flag so a
// deactivated budget can be turned back on. A zero CategoryID clears the
// category scope so the budget tracks total spend.
func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if _, err := s.repo.GetBudget(ctx, b.UserID, b.ID); err != nil {
		return core.Budget{}, err
	}
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.resolveCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return s.repo.GetBudget(ctx, b.UserID, b.ID)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.SoftDeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget deactivated",
		log.FieldUserID, userID,
		log.FieldBudgetID, id)
	return nil
}

func (s *BudgetService) resolveCategory(ctx context.Context, userID, categoryID int64) error {
	if categoryID == 0 {
		return nil
	}
	_, err := s.repo.GetCategory(ctx, userID, categoryID)
	return err
}
