package services

import (
	"encoding/json"
	"sync"

	"github.com/addisplay/bingo-backend/utils/logger"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection. tid stays zero until the
// connection identifies itself; the identity outlives the connection,
// the connection does not outlive the socket. label is the remote
// address, used for logging from goroutines that do not hold the
// lobby mutex.
type Client struct {
	tid   int64
	name  string
	label string

	conn  *websocket.Conn
	lobby *Lobby
	send  chan []byte
	once  sync.Once
}

func newClient(conn *websocket.Conn, lobby *Lobby) *Client {
	label := "?"
	if conn != nil {
		label = conn.RemoteAddr().String()
	}
	return &Client{
		label: label,
		conn:  conn,
		lobby: lobby,
		send:  make(chan []byte, 32),
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// sendRaw queues bytes without ever blocking the caller. A slow
// consumer drops messages rather than stalling a broadcast; the next
// snapshot repairs its view.
func (c *Client) sendRaw(b []byte) {
	defer func() {
		// send may already be closed by a concurrent Close.
		_ = recover()
	}()
	select {
	case c.send <- b:
	default:
		logger.Warnf("[Client %s] dropping message, buffer full", c.label)
	}
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("[Client %s] marshal: %v", c.label, err)
		return
	}
	c.sendRaw(b)
}

func (c *Client) sendError(msg string) {
	c.sendJSON(errorEvent{Type: "error", Message: msg})
}

// inbound is every field a client command may carry. Unknown actions
// are rejected with an error event.
type inbound struct {
	Action   string `json:"action"`
	InitData string `json:"init_data"`
	CardIDs  []int  `json:"card_ids"`
	CardID   int    `json:"card_id"`
	Period   string `json:"period"`
}

func (c *Client) readPump() {
	defer func() {
		c.lobby.removeClient(c)
		c.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Infof("[Client %s] disconnected", c.label)
			} else {
				logger.Infof("[Client %s] read error: %v", c.label, err)
			}
			return
		}
		c.dispatch(message)
	}
}

func (c *Client) dispatch(message []byte) {
	var msg inbound
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError("invalid message")
		return
	}

	if msg.Action == "identify" {
		c.lobby.Identify(c, msg.InitData)
		return
	}
	if c.tid == 0 {
		c.sendError("identify first")
		return
	}

	switch msg.Action {
	case "select_cards":
		c.lobby.SelectCards(c, msg.CardIDs)
	case "claim_win":
		c.lobby.ClaimWin(c, msg.CardID)
	case "request_history":
		c.lobby.SendHistory(c)
	case "request_leaderboard":
		c.lobby.SendLeaderboard(c, msg.Period)
	default:
		c.sendError("unknown action")
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Infof("[Client %s] write error: %v", c.label, err)
			return
		}
	}
}
