package services

import (
	"net/http"
	"strconv"

	"github.com/addisplay/bingo-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The mini-app is served from the Telegram webview; origin checks
	// happen at the CORS layer for REST, not here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades a connection into a stake lobby. Identity
// arrives later over the socket via the identify command.
func HandleWebSocket(c *gin.Context) {
	stake, err := strconv.Atoi(c.Param("stake"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stake"})
		return
	}
	lobby, ok := Lobbies[stake]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "lobby not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("[WS] upgrade error: %v", err)
		return
	}

	lobby.Join(newClient(conn, lobby))
}
