package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

// RecurringService manages recurring transaction templates and
// materializes them into real transactions when due.
type RecurringService struct {
	repo         *storage.SQLiteRepository
	transactions *TransactionService
	logger       *log.Logger
}

func NewRecurringService(repo *storage.SQLiteRepository, transactions *TransactionService, logger *log.Logger) *RecurringService {
	return &RecurringService{
		repo:         repo,
		transactions: transactions,
		logger:       logger.WithComponent(log.ComponentRecurring),
	}
}

func (s *RecurringService) List(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return s.repo.ListRecurring(ctx, userID)
}

func (s *RecurringService) Get(ctx context.Context, userID, id int64) (core.RecurringTransaction, error) {
	return s.repo.GetRecurring(ctx, userID, id)
}

func (s *RecurringService) Create(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	rt.IsActive = true
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.repo.GetCategory(ctx, rt.UserID, rt.CategoryID); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.repo.GetAccount(ctx, rt.UserID, rt.AccountID); err != nil {
		return core.RecurringTransaction{}, err
	}
	created, err := s.repo.CreateRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Recurring template created",
		log.FieldUserID, rt.UserID, "recurring_id", created.ID)
	return created, nil
}

func (s *RecurringService) Update(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	current, err := s.repo.GetRecurring(ctx, rt.UserID, rt.ID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.IsActive = current.IsActive
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.repo.GetCategory(ctx, rt.UserID, rt.CategoryID); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.repo.GetAccount(ctx, rt.UserID, rt.AccountID); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.repo.UpdateRecurring(ctx, rt); err != nil {
		return core.RecurringTransaction{}, err
	}
	return s.repo.GetRecurring(ctx, rt.UserID, rt.ID)
}

func (s *RecurringService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.SoftDeleteRecurring(ctx, userID, id)
}

// ProcessDue materializes every active template that is due at now and
// stamps its last execution. Per-template failures are logged and
// skipped so one broken template cannot stall the rest.
func (s *RecurringService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	templates, err := s.repo.ListDueRecurring(ctx, core.Date{Time: now})
	if err != nil {
		return 0, fmt.Errorf("list due templates: %w", err)
	}

	s.logger.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rt := range templates {
		checker, err := GetDuenessChecker(rt.Frequency)
		if err != nil {
			s.logger.ErrorContext(ctx, "Skipping template with unknown frequency",
				"recurring_id", rt.ID, log.FieldError, err)
			continue
		}
		if !checker.IsDue(rt.LastExecution, now, rt.StartDate) {
			continue
		}

		_, err = s.transactions.Create(ctx, core.Transaction{
			Amount:      rt.Amount,
			Description: rt.Description,
			Type:        rt.Type,
			Date:        core.Date{Time: now},
			UserID:      rt.UserID,
			CategoryID:  rt.CategoryID,
			AccountID:   rt.AccountID,
			RecurringID: rt.ID,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to materialize recurring transaction",
				"recurring_id", rt.ID, log.FieldError, err)
			continue
		}

		if err := s.repo.MarkRecurringExecuted(ctx, rt.ID, now); err != nil {
			s.logger.ErrorContext(ctx, "Failed to stamp last execution",
				"recurring_id", rt.ID, log.FieldError, err)
			// transaction was already created, keep going
		}

		processed++
		metrics.CountRecurringExecution()
		s.logger.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", rt.ID,
			log.FieldAmountCents, rt.Amount.Cents,
			"frequency", string(rt.Frequency))
	}

	s.logger.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(templates))
	return processed, nil
}

// Run ticks ProcessDue until ctx is cancelled. Meant to be supervised
// by the server's errgroup.
func (s *RecurringService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Recurring scheduler stopped", log.FieldOperation, log.OpShutdown)
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := s.ProcessDue(ctx, now.UTC()); err != nil {
				s.logger.ErrorContext(ctx, "Recurring processing failed", log.FieldError, err)
			}
		}
	}
}
