package services

import (
	"github.com/addisplay/bingo-backend/game"
	"github.com/addisplay/bingo-backend/models"
)

// Outbound websocket events. Type discriminates on the client side.

type snapshotEvent struct {
	Type             string       `json:"type"` // "snapshot"
	Stake            int          `json:"stake"`
	Phase            game.Phase   `json:"phase"`
	SecondsRemaining int          `json:"seconds_remaining"`
	DrawnNumbers     []int        `json:"drawn_numbers"`
	Pot              float64      `json:"pot"`
	Winner           *game.Winner `json:"winner"`
	TotalCardsSold   int          `json:"total_cards_sold"`
	// Only present when card exclusivity is on; otherwise other
	// players' cards stay hidden.
	TakenCards []int `json:"taken_cards,omitempty"`
}

type numberDrawnEvent struct {
	Type    string `json:"type"` // "number_drawn"
	Numbers []int  `json:"numbers"`
}

type balanceEvent struct {
	Type    string  `json:"type"` // "balance"
	Balance float64 `json:"balance"`
}

type cardsSelectedEvent struct {
	Type    string `json:"type"` // "cards_selected"
	CardIDs []int  `json:"card_ids"`
}

type cardsRestoredEvent struct {
	Type    string `json:"type"` // "cards_restored"
	CardIDs []int  `json:"card_ids"`
}

type errorEvent struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type historyEvent struct {
	Type    string               `json:"type"` // "history"
	Results []models.RoundResult `json:"results"`
}

type leaderboardEvent struct {
	Type    string             `json:"type"` // "leaderboard"
	Period  string             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}
