package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final status. A transaction leaves pending once.
func (s PaymentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Store level errors shared by every Transaction store implementation.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionExists   = errors.New("transaction already exists")
	ErrStatusConflict      = errors.New("transaction already has a different terminal status")
)

// Transaction is the audit record of one payment attempt, keyed by the gateway tran_id.
type Transaction struct {
	TransactionID string              `json:"transactionId"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency,omitempty"`
	Status        PaymentStatus       `json:"status"`
	Name          string              `json:"name,omitempty"`
	Email         string              `json:"email,omitempty"`
	PackageName   string              `json:"packageName,omitempty"`
	Score         decimal.NullDecimal `json:"score"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}
