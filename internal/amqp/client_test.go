package amqp

import (
	"testing"
	"time"
)

func TestNewBudgetAlertMessage(t *testing.T) {
	msg := NewBudgetAlertMessage(7, 3, 50000, 42500, 85.0, 80)

	if msg.ID == "" {
		t.Error("message should carry an event id")
	}
	if msg.BudgetID != 7 || msg.UserID != 3 {
		t.Errorf("ids = (%d, %d), want (7, 3)", msg.BudgetID, msg.UserID)
	}
	if msg.Percentage != 85.0 || msg.Threshold != 80 {
		t.Errorf("percentage/threshold = (%v, %d), want (85, 80)", msg.Percentage, msg.Threshold)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}

	other := NewBudgetAlertMessage(7, 3, 50000, 42500, 85.0, 80)
	if other.ID == msg.ID {
		t.Error("event ids must be unique")
	}
}

func TestBudgetAlertMessageJSON(t *testing.T) {
	msg := &BudgetAlertMessage{
		ID:          "11111111-2222-3333-4444-555555555555",
		BudgetID:    9,
		UserID:      4,
		AmountCents: 100000,
		SpentCents:  81000,
		Percentage:  81.0,
		Threshold:   80,
		Timestamp:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := BudgetAlertMessageFromJSON(body)
	if err != nil {
		t.Fatalf("BudgetAlertMessageFromJSON() error = %v", err)
	}
	if *parsed != *msg {
		t.Errorf("round trip = %+v, want %+v", parsed, msg)
	}
}

func TestBudgetAlertMessageInvalidJSON(t *testing.T) {
	if _, err := BudgetAlertMessageFromJSON([]byte(`{"budgetId": "nope"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
