package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	AccountChecking   AccountType = "CHECKING"
	AccountSavings    AccountType = "SAVINGS"
	AccountCreditCard AccountType = "CREDIT_CARD"
	AccountCash       AccountType = "CASH"
	AccountInvestment AccountType = "INVESTMENT"
)

const (
	BudgetWeekly  BudgetType = "WEEKLY"
	BudgetMonthly BudgetType = "MONTHLY"
	BudgetYearly  BudgetType = "YEARLY"
	BudgetCustom  BudgetType = "CUSTOM"
)

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// DefaultAlertThreshold is the budget alert percentage applied when a
// budget is created without an explicit threshold.
const DefaultAlertThreshold = 80

type (
	TransactionType string
	AccountType     string
	BudgetType      string
	Frequency       string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		FirstName    string
		LastName     string
		CreatedAt    time.Time
	}

	Account struct {
		ID          int64
		Name        string
		Description string
		Type        AccountType
		Balance     Money
		IsActive    bool
		UserID      int64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Category classifies transactions. A category with UserID == 0 and
	// IsDefault == true is a global default shared by every user; users
	// cannot edit or delete it.
	Category struct {
		ID          int64
		Name        string
		Description string
		Color       string
		IsDefault   bool
		UserID      int64 // 0 for default categories
		CreatedAt   time.Time
	}

	// Budget caps expense spend over a date range. CategoryID == 0 means
	// the budget applies to total spend across all categories.
	Budget struct {
		ID             int64
		Amount         Money
		StartDate      Date
		EndDate        Date
		Type           BudgetType
		AlertThreshold int
		IsActive       bool
		UserID         int64
		CategoryID     int64
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Transaction struct {
		ID          int64
		Amount      Money
		Description string
		Type        TransactionType
		Date        Date
		Notes       string
		UserID      int64
		CategoryID  int64
		AccountID   int64
		RecurringID int64 // 0 when not created from a template
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// RecurringTransaction is a template that materializes real
	// transactions on a schedule.
	RecurringTransaction struct {
		ID            int64
		Amount        Money
		Description   string
		Type          TransactionType
		Frequency     Frequency
		StartDate     Date
		EndDate       Date // zero when open-ended
		LastExecution time.Time
		IsActive      bool
		UserID        int64
		CategoryID    int64
		AccountID     int64
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrNotesTooLong       = errors.New("notes too long (max 500 characters)")
	ErrInvalidType        = errors.New("invalid type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDateRange   = errors.New("end date must not be before start date")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 100 characters)")
	ErrMissingCategory    = errors.New("category is required")
	ErrMissingAccount     = errors.New("account is required")
	ErrInvalidThreshold   = errors.New("alert threshold must be between 1 and 100")
)

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD, the storage and wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (a AccountType) Validate() error {
	switch a {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountCash, AccountInvestment:
		return nil
	default:
		return ErrInvalidType
	}
}

func (b BudgetType) Validate() error {
	switch b {
	case BudgetWeekly, BudgetMonthly, BudgetYearly, BudgetCustom:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidType
	}
}

// SignedCents is the balance delta the transaction contributes: positive
// for income, negative for expense.
func (t Transaction) SignedCents() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

// ValidateEditable checks the fields writable after creation. The
// balance is excluded: it may only be non-negative at creation and can
// legitimately go negative once expenses apply.
func (a Account) ValidateEditable() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return ErrNameTooLong
	}
	return a.Type.Validate()
}

func (a Account) Validate() error {
	if err := a.ValidateEditable(); err != nil {
		return err
	}
	if a.Balance.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	if err := b.EndDate.Validate(); err != nil {
		return err
	}
	if b.EndDate.Before(b.StartDate.Time) {
		return ErrInvalidDateRange
	}
	if err := b.Type.Validate(); err != nil {
		return err
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Notes) > 500 {
		return ErrNotesTooLong
	}
	if t.CategoryID == 0 {
		return ErrMissingCategory
	}
	if t.AccountID == 0 {
		return ErrMissingAccount
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := rt.Type.Validate(); err != nil {
		return err
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if err := rt.StartDate.Validate(); err != nil {
		return err
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate.Time) {
		return ErrInvalidDateRange
	}
	if rt.CategoryID == 0 {
		return ErrMissingCategory
	}
	if rt.AccountID == 0 {
		return ErrMissingAccount
	}
	return nil
}
