package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest is what the browser asks us to charge. It is forwarded once and never stored by the app.
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PackageName string          `json:"packageName"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Address     string          `json:"address,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Currency    string          `json:"currency,omitempty"`
}

type PaymentInitResult struct {
	URL           string `json:"url"`
	TransactionID string `json:"transactionId,omitempty"`
}

// PaymentStatusView is the polling/certificate view of a transaction with
// optional fields already defaulted.
type PaymentStatusView struct {
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Name          string          `json:"name"`
	Score         string          `json:"score"`
}

// StatusUpdate is the body of PUT /payment/{transactionId}. ValID is the
// gateway's val_id from the success callback.
type StatusUpdate struct {
	Status PaymentStatus `json:"status"`
	ValID  string        `json:"valId,omitempty"`
}

// Certificate is derived on every download and never persisted.
type Certificate struct {
	Name          string
	Score         string
	TransactionID string
	IssueDate     time.Time
}
