package models

import "time"

type ResultStatus string

const (
	ResultWon  ResultStatus = "won"
	ResultLost ResultStatus = "lost"
)

// RoundResult is one participant's outcome for one finished round.
type RoundResult struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	RoundID    uint         `gorm:"index" json:"round_id"`
	TelegramID int64        `gorm:"index" json:"telegram_id"`
	Stake      float64      `json:"stake"`
	Prize      float64      `json:"prize"`
	Status     ResultStatus `gorm:"index" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}
