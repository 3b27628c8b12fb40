package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is an entry of the shared expense ledger.
//
// Entries with a positive inbound amount are income, entries with a
// positive outbound amount are expenses. The savings engine only reads them.
type Transaction struct {
	DefaultModel
	UserID   string          `json:"userId" gorm:"index" example:"user-42"`                  // Owning user
	Date     time.Time       `json:"date" gorm:"index" example:"2024-03-01T00:00:00Z"`       // Date of the transaction
	Inbound  decimal.Decimal `json:"inbound" gorm:"type:DECIMAL(20,8)" example:"2000"`       // Money received
	Outbound decimal.Decimal `json:"outbound" gorm:"type:DECIMAL(20,8)" example:"0"`         // Money spent
	Category string          `json:"category" example:"Groceries"`                           // Expense category
	Note     string          `json:"note" example:"Salary March"`                            // A note for the transaction
}

// Income is the read-only projection of a ledger entry with a positive
// inbound amount.
type Income struct {
	ID     uuid.UUID       `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// IsIncome reports if the transaction has a positive inbound amount.
func (t Transaction) IsIncome() bool {
	return t.Inbound.IsPositive()
}

// IsExpense reports if the transaction has a positive outbound amount.
func (t Transaction) IsExpense() bool {
	return t.Outbound.IsPositive()
}

// IncomeOf returns the income projection of the transaction. The boolean
// is false for all transactions that are not income.
func IncomeOf(t Transaction) (Income, bool) {
	if !t.IsIncome() {
		return Income{}, false
	}

	return Income{
		ID:     t.ID,
		Date:   t.Date,
		Amount: t.Inbound,
	}, true
}

func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.Note = strings.TrimSpace(t.Note)
	t.Category = strings.TrimSpace(t.Category)

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	return t.Validate()
}

// Validate checks that exactly one direction carries money.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrUserEmpty
	}

	if t.Inbound.IsNegative() || t.Outbound.IsNegative() {
		return ErrTransactionAmountInvalid
	}

	if t.Inbound.IsPositive() == t.Outbound.IsPositive() {
		return ErrTransactionAmountInvalid
	}

	return nil
}

// AfterFind enforces dates to be in UTC.
func (t *Transaction) AfterFind(tx *gorm.DB) (err error) {
	err = t.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	t.Date = t.Date.In(time.UTC)
	return
}
