package controllers

import (
	"errors"
	"net/http"

	"github.com/addisplay/bingo-backend/config"
	"github.com/addisplay/bingo-backend/models"
	"github.com/addisplay/bingo-backend/services"

	"github.com/gin-gonic/gin"
)

type VerifyDepositRequest struct {
	TelegramID int64   `json:"telegram_id" binding:"required"`
	SMS        string  `json:"sms" binding:"required"`       // copied SMS text
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Reference  string  `json:"reference" binding:"required"` // SMS reference code
}

// VerifyDeposit checks the copied SMS with the external verifier and
// credits the wallet through the ledger. The SMS reference doubles as
// the idempotency key: replaying a verified SMS cannot credit twice.
func VerifyDeposit(c *gin.Context) {
	var req VerifyDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verified, err := services.VerifyDeposit(req.SMS)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "verification service unavailable"})
		return
	}
	if !verified {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	ledger := services.NewGormLedger(config.DB)
	balance, err := ledger.Credit(req.TelegramID, req.Amount,
		models.DepositTransaction, "dep-"+req.Reference)
	switch {
	case errors.Is(err, services.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update balance"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance})
	}
}
