package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BudgetAlertMessage notifies the worker that a budget crossed its alert
// threshold. It carries the numbers at crossing time so the worker can
// render a notification without re-querying.
type BudgetAlertMessage struct {
	ID          string    `json:"id"`
	BudgetID    int64     `json:"budgetId"`
	UserID      int64     `json:"userId"`
	AmountCents int64     `json:"amountCents"`
	SpentCents  int64     `json:"spentCents"`
	Percentage  float64   `json:"percentage"`
	Threshold   int       `json:"threshold"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage builds a message with a fresh event id.
func NewBudgetAlertMessage(budgetID, userID, amountCents, spentCents int64, percentage float64, threshold int) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		ID:          uuid.NewString(),
		BudgetID:    budgetID,
		UserID:      userID,
		AmountCents: amountCents,
		SpentCents:  spentCents,
		Percentage:  percentage,
		Threshold:   threshold,
		Timestamp:   time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
