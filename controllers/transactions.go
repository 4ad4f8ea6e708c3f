package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/addisplay/bingo-backend/config"
	"github.com/addisplay/bingo-backend/models"
	"github.com/addisplay/bingo-backend/services"

	"github.com/gin-gonic/gin"
)

// Withdraw moves funds out of a user's wallet through the ledger, so
// the same balance checks and transaction records apply as in-game.
func Withdraw(c *gin.Context) {
	var req struct {
		TelegramID int64   `json:"telegram_id" binding:"required"`
		Amount     float64 `json:"amount" binding:"required,gt=0"`
		Reference  string  `json:"reference"` // client-supplied for safe retries
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := req.Reference
	if ref == "" {
		ref = fmt.Sprintf("wd-u%d-%d", req.TelegramID, time.Now().UnixNano())
	}

	ledger := services.NewGormLedger(config.DB)
	balance, err := ledger.Debit(req.TelegramID, req.Amount, models.WithdrawTransaction, ref)
	switch {
	case errors.Is(err, services.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, services.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw"})
	default:
		c.JSON(http.StatusCreated, gin.H{"balance": balance, "reference": ref})
	}
}

// ListTransactions returns a user's balance movements, newest first.
func ListTransactions(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}

	var txs []models.Transaction
	if err := config.DB.Where("telegram_id = ?", tid).
		Order("created_at DESC").Limit(50).Find(&txs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, txs)
}
