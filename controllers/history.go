package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/addisplay/bingo-backend/config"
	"github.com/addisplay/bingo-backend/models"
	"github.com/addisplay/bingo-backend/services"

	"github.com/gin-gonic/gin"
)

// UserRounds returns a user's recent round outcomes.
func UserRounds(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}

	results, err := services.NewGormHistory(config.DB).ResultsOf(tid, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// Leaderboard ranks winners by total prize for a period.
func Leaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", "all")
	var since time.Time
	switch period {
	case "daily":
		since = time.Now().AddDate(0, 0, -1)
	case "weekly":
		since = time.Now().AddDate(0, 0, -7)
	case "all":
		// zero time: everything
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be daily, weekly or all"})
		return
	}

	entries, err := services.NewGormHistory(config.DB).Leaderboard(since, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "entries": entries})
}

// RecentRounds lists the latest finished rounds across stakes.
func RecentRounds(c *gin.Context) {
	var rounds []models.Round
	if err := config.DB.Where("status = ?", "finished").
		Order("end_time DESC").Limit(50).Find(&rounds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
		return
	}
	c.JSON(http.StatusOK, rounds)
}
