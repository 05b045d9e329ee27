// Package services provides business logic and orchestration on top of
// the storage layer.
package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type AccountService struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewAccountService(repo *storage.SQLiteRepository, logger *log.Logger) *AccountService {
	return &AccountService{repo: repo, logger: logger.WithComponent(log.ComponentAccount)}
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.repo.ListActiveAccounts(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, id int64) (core.Account, error) {
	return s.repo.GetAccount(ctx, userID, id)
}

func (s *AccountService) Create(ctx context.Context, a core.Account) (core.Account, error) {
	a.IsActive = true
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	created, err := s.repo.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account created",
		log.FieldUserID, a.UserID,
		log.FieldAccountID, created.ID)
	return created, nil
}

// Update overwrites name, description, type and the active flag, so a
// soft-deleted account can be reactivated. The balance is owned by the
// transaction service and never written here.
func (s *AccountService) Update(ctx context.Context, a core.Account) (core.Account, error) {
	current, err := s.repo.GetAccount(ctx, a.UserID, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	a.Balance = current.Balance
	if err := a.ValidateEditable(); err != nil {
		return core.Account{}, err
	}
	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return s.repo.GetAccount(ctx, a.UserID, a.ID)
}

func (s *AccountService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.SoftDeleteAccount(ctx, userID, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Account deactivated",
		log.FieldUserID, userID,
		log.FieldAccountID, id)
	return nil
}
