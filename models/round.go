package models

import (
	"time"

	"gorm.io/datatypes"
)

type Round struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Stake       int    `gorm:"index" json:"stake"`
	RoundNumber int    `json:"round_number"`
	Status      string `json:"status"` // in_progress | finished
	Pot         float64 `json:"pot"`

	// Drawn numbers in draw order, stored as a JSON array.
	Numbers datatypes.JSON `json:"numbers"`

	WinnerTelegramID *int64   `json:"winner_telegram_id"`
	WinnerCardID     *int     `json:"winner_card_id"`
	Prize            *float64 `json:"prize"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
