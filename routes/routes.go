package routes

import (
	"github.com/addisplay/bingo-backend/controllers"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", controllers.RegisterUser)
	api.GET("/users/:telegram_id", controllers.GetUser)
	api.PATCH("/users/:telegram_id/phone", controllers.UpdatePhone)
	api.GET("/users/:telegram_id/rounds", controllers.UserRounds)
	api.GET("/users/:telegram_id/transactions", controllers.ListTransactions)

	// ----------------------
	// Round routes
	// ----------------------
	api.GET("/rounds", controllers.RecentRounds)
	api.GET("/leaderboard", controllers.Leaderboard)

	// ----------------------
	// Wallet routes
	// ----------------------
	api.POST("/deposit/verify", controllers.VerifyDeposit)
	api.POST("/withdraw", controllers.Withdraw)
}
