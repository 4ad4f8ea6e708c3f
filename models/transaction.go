package models

import "time"

type TransactionType string

const (
	StakeTransaction    TransactionType = "stake"
	WinTransaction      TransactionType = "win"
	DepositTransaction  TransactionType = "deposit"
	WithdrawTransaction TransactionType = "withdraw"
)

// Transaction records every balance movement. Reference is unique per
// logical movement (e.g. "s10-r42-u99-stake") so a retried debit or
// credit lands on the index instead of moving money twice.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	TelegramID   int64           `gorm:"index" json:"telegram_id"`
	Type         TransactionType `json:"type"`
	Amount       float64         `json:"amount"`
	BalanceAfter float64         `json:"balance_after"`
	Reference    string          `gorm:"uniqueIndex;not null" json:"reference"`
	CreatedAt    time.Time       `json:"created_at"`
}
