// Package worker delivers budget alert notifications consumed from the
// message queue, with a periodic database sweep for alerts that never
// made it onto the broker.
package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type AlertWorker struct {
	repo      *storage.SQLiteRepository
	logger    *log.Logger
	batchSize int
}

func NewAlertWorker(repo *storage.SQLiteRepository, logger *log.Logger, batchSize int) *AlertWorker {
	return &AlertWorker{
		repo:      repo,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleAlert processes one alert event from the queue. Notification
// delivery is the log line; a push or email channel would hang off here.
func (w *AlertWorker) HandleAlert(msg *amqp.BudgetAlertMessage) error {
	ctx := context.Background()

	w.logger.InfoContext(ctx, "Budget alert",
		"event_id", msg.ID,
		log.FieldUserID, msg.UserID,
		log.FieldBudgetID, msg.BudgetID,
		"percentage", msg.Percentage,
		"threshold", msg.Threshold,
		"spent_cents", msg.SpentCents,
		log.FieldAmountCents, msg.AmountCents)

	if err := w.repo.MarkBudgetAlertDelivered(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark alert delivered: %w", err)
	}
	return nil
}

// ProcessPending sweeps alerts whose publish never reached the broker,
// for example when the API ran without AMQP.
func (w *AlertWorker) ProcessPending(ctx context.Context) error {
	alerts, err := w.repo.ListPendingBudgetAlerts(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending budget alerts", "count", len(alerts))
	for _, a := range alerts {
		w.logger.InfoContext(ctx, "Budget alert",
			"event_id", a.ID,
			log.FieldUserID, a.UserID,
			log.FieldBudgetID, a.BudgetID,
			"percentage", a.Percentage,
			"spent_cents", a.Spent.Cents)
		if err := w.repo.MarkBudgetAlertDelivered(ctx, a.ID); err != nil {
			return fmt.Errorf("mark alert delivered: %w", err)
		}
	}
	return nil
}

// Run sweeps pending alerts until ctx is cancelled.
func (w *AlertWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Alert worker stopped", log.FieldOperation, log.OpShutdown)
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Pending alert sweep failed", log.FieldError, err)
			}
		}
	}
}
