package services

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/addisplay/bingo-backend/config"
	"github.com/addisplay/bingo-backend/game"
	"github.com/addisplay/bingo-backend/models"
	"github.com/addisplay/bingo-backend/utils/logger"

	"gorm.io/datatypes"
)

// Participant is a stable identity that may hold cards in the current
// round. It survives reconnects; the websocket client does not.
type Participant struct {
	TelegramID int64
	Name       string
}

// Lobby runs one stake table: a single active round, the clients
// watching it, and the two timers that drive it. Round state is only
// ever touched under mu; ledger and database calls happen outside it.
type Lobby struct {
	Stake        int
	cfg          game.Config
	drawInterval time.Duration

	mu           sync.Mutex
	round        *game.Round
	roundRow     *models.Round // persisted row, nil until gameplay starts
	clients      map[*Client]bool
	byUser       map[int64]*Client
	participants map[int64]*Participant

	users   UserStore
	ledger  Ledger
	history History
	rounds  RoundStore

	stop chan struct{}
}

// Deps bundles the lobby's collaborators so tests can swap in fakes.
type Deps struct {
	Users   UserStore
	Ledger  Ledger
	History History
	Rounds  RoundStore
}

// Lobbies is the process-scoped registry of stake tables, built once
// at startup. In-memory participant state resets on restart; balances
// and history live in the database.
var Lobbies = make(map[int]*Lobby)

func InitLobbyService(cfg *config.Config) {
	db := config.DB
	deps := Deps{
		Users:   NewGormUsers(db),
		Ledger:  NewGormLedger(db),
		History: NewGormHistory(db),
		Rounds:  NewGormRounds(db),
	}
	for _, stake := range cfg.Stakes {
		l := NewLobby(stake, cfg, deps)
		Lobbies[stake] = l
		go l.Run()
	}
	logger.Infof("[Init] Started %d lobbies", len(Lobbies))
}

func NewLobby(stake int, cfg *config.Config, deps Deps) *Lobby {
	gcfg := game.Config{
		Stake:             stake,
		SelectionWindow:   cfg.SelectionWindow,
		WinnerWindow:      cfg.WinnerWindow,
		MinCards:          cfg.MinCards,
		MaxCardsPerPlayer: cfg.MaxCardsPerPlayer,
		PayoutFraction:    cfg.PayoutFraction,
		CardExclusive:     cfg.CardExclusive,
		CornersWin:        cfg.CornersWin,
	}
	l := &Lobby{
		Stake:        stake,
		cfg:          gcfg,
		drawInterval: cfg.DrawInterval,
		clients:      make(map[*Client]bool),
		byUser:       make(map[int64]*Client),
		participants: make(map[int64]*Participant),
		users:        deps.Users,
		ledger:       deps.Ledger,
		history:      deps.History,
		rounds:       deps.Rounds,
		stop:         make(chan struct{}),
	}
	l.round = game.NewRound(deps.Rounds.NextRoundNumber(stake), gcfg, time.Now(), nil)
	return l
}

// Run drives the lobby: the 1 Hz state tick and the draw tick. Both
// serialize against the same mutex as inbound commands, so there is
// exactly one logical mutator of round state at a time.
func (l *Lobby) Run() {
	tick := time.NewTicker(time.Second)
	draw := time.NewTicker(l.drawInterval)
	defer tick.Stop()
	defer draw.Stop()

	for {
		select {
		case <-tick.C:
			l.tick(time.Now())
		case <-draw.C:
			l.drawTick()
		case <-l.stop:
			return
		}
	}
}

func (l *Lobby) Stop() {
	close(l.stop)
}

// -------------------- Client management --------------------

// Join registers a fresh connection and starts its pumps. The client
// sees broadcasts immediately but must identify before acting.
func (l *Lobby) Join(c *Client) {
	l.mu.Lock()
	l.clients[c] = true
	total := len(l.clients)
	l.mu.Unlock()

	go c.writePump()
	go c.readPump()

	logger.Infof("[Lobby %d] connection opened (total=%d)", l.Stake, total)
}

func (l *Lobby) removeClient(c *Client) {
	l.mu.Lock()
	delete(l.clients, c)
	if c.tid != 0 && l.byUser[c.tid] == c {
		delete(l.byUser, c.tid)
	}
	l.mu.Unlock()
	// Card selections stay: they belong to the identity, not the
	// socket, and are restored on reconnect.
}

// Identify binds a connection to the identity in its initData payload.
func (l *Lobby) Identify(c *Client, rawInitData string) {
	tgUser, err := ParseInitData(rawInitData)
	if err != nil {
		logger.Warnf("[Lobby %d] identify rejected: %v", l.Stake, err)
		c.sendError("invalid identity payload")
		return
	}

	balance, err := l.ledger.Balance(tgUser.ID)
	if errors.Is(err, ErrUnknownUser) {
		c.sendError("not registered, start the bot first")
		return
	}
	if err != nil {
		logger.Errorf("[Lobby %d] balance lookup for user %d: %v", l.Stake, tgUser.ID, err)
		c.sendError("service unavailable, try again")
		return
	}

	name := tgUser.DisplayName()
	if u, uerr := l.users.ByTelegramID(tgUser.ID); uerr == nil && u.Name != "" {
		name = u.Name
	}

	l.mu.Lock()
	if old, ok := l.byUser[tgUser.ID]; ok && old != c {
		delete(l.clients, old)
		old.Close()
	}
	c.tid = tgUser.ID
	c.name = name
	l.byUser[tgUser.ID] = c
	if p, ok := l.participants[tgUser.ID]; ok {
		p.Name = name
	} else {
		l.participants[tgUser.ID] = &Participant{TelegramID: tgUser.ID, Name: name}
	}
	cards := l.round.CardsOf(tgUser.ID)
	l.mu.Unlock()

	logger.Infof("[Lobby %d] user %d identified as %q", l.Stake, tgUser.ID, name)
	c.sendJSON(balanceEvent{Type: "balance", Balance: balance})
	if len(cards) > 0 {
		c.sendJSON(cardsRestoredEvent{Type: "cards_restored", CardIDs: cards})
	}
}

// -------------------- Commands --------------------

// SelectCards validates and records a card selection. Aggregate state
// (pot, taken cards) reaches everyone with the next 1 Hz snapshot;
// only the acting client gets an immediate answer.
func (l *Lobby) SelectCards(c *Client, cardIDs []int) {
	cost := float64(len(cardIDs) * l.Stake)
	if len(cardIDs) > 0 {
		balance, err := l.ledger.Balance(c.tid)
		if err != nil {
			logger.Errorf("[Lobby %d] balance check for user %d: %v", l.Stake, c.tid, err)
			c.sendError("service unavailable, try again")
			return
		}
		if balance < cost {
			c.sendError("insufficient balance")
			return
		}
	}

	l.mu.Lock()
	err := l.round.SelectCards(c.tid, cardIDs)
	l.mu.Unlock()

	if err != nil {
		c.sendError(err.Error())
		return
	}
	logger.Infof("[Lobby %d] user %d selected cards %v", l.Stake, c.tid, cardIDs)
	c.sendJSON(cardsSelectedEvent{Type: "cards_selected", CardIDs: cardIDs})
}

func (l *Lobby) ClaimWin(c *Client, cardID int) {
	l.claim(c, cardID, time.Now())
}

// claim verifies and applies a win claim. The round row is only ever
// written under mu, and Save always gets a copy taken while the lock
// is held, so a claim landing between draw ticks never shares a row
// struct with an in-flight Save.
func (l *Lobby) claim(c *Client, cardID int, now time.Time) {
	l.mu.Lock()
	winner, err := l.round.Claim(c.tid, c.name, cardID, now)
	roundNumber := l.round.Number()
	var rowCopy *models.Round
	if err == nil && l.roundRow != nil {
		l.roundRow.WinnerTelegramID = &winner.TelegramID
		l.roundRow.WinnerCardID = &winner.CardID
		l.roundRow.Prize = &winner.Prize
		cp := *l.roundRow
		rowCopy = &cp
	}
	l.mu.Unlock()

	switch {
	case err == nil:
		logger.Infof("[Lobby %d] round %d won by user %d with card %d, prize %.0f",
			l.Stake, roundNumber, winner.TelegramID, winner.CardID, winner.Prize)

		balance, cerr := l.ledger.Credit(winner.TelegramID, winner.Prize,
			models.WinTransaction, winRef(l.Stake, roundNumber, winner.TelegramID))
		if cerr != nil {
			logger.Errorf("[Lobby %d] prize credit for user %d: %v", l.Stake, winner.TelegramID, cerr)
		} else {
			l.notifyBalance(winner.TelegramID, balance)
		}

		if rowCopy != nil {
			if serr := l.rounds.Save(rowCopy); serr != nil {
				logger.Errorf("[Lobby %d] save winner on round row: %v", l.Stake, serr)
			}
		}
		l.broadcastSnapshot(now)

	case errors.Is(err, game.ErrNoWin):
		// Failed recheck: drop without feedback.
		logger.Infof("[Lobby %d] user %d claimed card %d with no winning line", l.Stake, c.tid, cardID)

	default:
		c.sendError(err.Error())
	}
}

func (l *Lobby) SendHistory(c *Client) {
	results, err := l.history.ResultsOf(c.tid, 20)
	if err != nil {
		logger.Errorf("[Lobby %d] history for user %d: %v", l.Stake, c.tid, err)
		c.sendError("history unavailable")
		return
	}
	c.sendJSON(historyEvent{Type: "history", Results: results})
}

func (l *Lobby) SendLeaderboard(c *Client, period string) {
	since, ok := periodStart(period, time.Now())
	if !ok {
		c.sendError("unknown leaderboard period")
		return
	}
	entries, err := l.history.Leaderboard(since, 20)
	if err != nil {
		logger.Errorf("[Lobby %d] leaderboard: %v", l.Stake, err)
		c.sendError("leaderboard unavailable")
		return
	}
	c.sendJSON(leaderboardEvent{Type: "leaderboard", Period: period, Entries: entries})
}

func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "daily":
		return now.AddDate(0, 0, -1), true
	case "weekly":
		return now.AddDate(0, 0, -7), true
	case "all", "":
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}

// -------------------- Round lifecycle --------------------

// tick runs once per second: advance the state machine, apply the
// side effects of any transition, then broadcast the snapshot.
func (l *Lobby) tick(now time.Time) {
	l.mu.Lock()
	ev := l.round.Tick(now)
	roundNumber := l.round.Number()
	var stakes map[int64]float64
	var finished *game.Round
	var finishedRow *models.Round
	switch ev {
	case game.TickGameplayStarted:
		stakes = l.round.Stakes()
	case game.TickRoundOver:
		finished = l.round
		finishedRow = l.roundRow
		l.roundRow = nil
		l.round = game.NewRound(roundNumber+1, l.cfg, now, nil)
	}
	l.mu.Unlock()

	switch ev {
	case game.TickGameplayStarted:
		l.beginGameplay(roundNumber, stakes, now)
	case game.TickSelectionExtended:
		logger.Infof("[Lobby %d] not enough cards sold, selection window restarted", l.Stake)
	case game.TickRoundOver:
		l.finishRound(finished, finishedRow, now)
	}

	l.broadcastSnapshot(now)
}

// beginGameplay persists the round row and debits every cardholder.
// Debits run outside the mutex so the draw and tick timers never wait
// on the database; each participant is isolated, one failure logs and
// moves on.
func (l *Lobby) beginGameplay(roundNumber int, stakes map[int64]float64, now time.Time) {
	row := &models.Round{
		Stake:       l.Stake,
		RoundNumber: roundNumber,
		Status:      "in_progress",
		StartTime:   now,
		Numbers:     datatypes.JSON([]byte("[]")),
	}
	if err := l.rounds.Create(row); err != nil {
		logger.Errorf("[Lobby %d] create round row: %v", l.Stake, err)
		row = nil
	}
	l.mu.Lock()
	l.roundRow = row
	l.mu.Unlock()

	for tid, amount := range stakes {
		balance, err := l.ledger.Debit(tid, amount, models.StakeTransaction, stakeRef(l.Stake, roundNumber, tid))
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			l.mu.Lock()
			l.round.RemoveSelection(tid)
			l.mu.Unlock()
			logger.Warnf("[Lobby %d] user %d could not cover stake, cards released", l.Stake, tid)
			l.notifyError(tid, "insufficient balance for this round, your cards were released")
		case err != nil:
			logger.Errorf("[Lobby %d] stake debit for user %d: %v", l.Stake, tid, err)
		default:
			l.notifyBalance(tid, balance)
		}
	}

	l.mu.Lock()
	pot := l.round.Pot()
	var rowCopy *models.Round
	if l.roundRow != nil {
		l.roundRow.Pot = pot
		cp := *l.roundRow
		rowCopy = &cp
	}
	l.mu.Unlock()
	if rowCopy != nil {
		if err := l.rounds.Save(rowCopy); err != nil {
			logger.Errorf("[Lobby %d] save round pot: %v", l.Stake, err)
		}
	}
	logger.Infof("[Lobby %d] round %d started, pot %.0f", l.Stake, roundNumber, pot)
}

// finishRound records outcomes for every cardholder and clears the
// table for the replacement round (already installed by tick).
func (l *Lobby) finishRound(finished *game.Round, row *models.Round, now time.Time) {
	winner := finished.Winner()
	results := finished.Results()

	if row != nil {
		row.Status = "finished"
		end := now
		row.EndTime = &end
		if b, err := json.Marshal(finished.Drawn()); err == nil {
			row.Numbers = datatypes.JSON(b)
		}
		if err := l.rounds.Save(row); err != nil {
			logger.Errorf("[Lobby %d] close round row: %v", l.Stake, err)
		}
	}

	var roundID uint
	if row != nil {
		roundID = row.ID
	}
	for _, res := range results {
		status := models.ResultLost
		if res.Won {
			status = models.ResultWon
		}
		rec := &models.RoundResult{
			RoundID:    roundID,
			TelegramID: res.TelegramID,
			Stake:      res.Stake,
			Prize:      res.Prize,
			Status:     status,
		}
		if err := l.history.Record(rec); err != nil {
			logger.Errorf("[Lobby %d] record result for user %d: %v", l.Stake, res.TelegramID, err)
		}
	}

	if winner != nil {
		logger.Infof("[Lobby %d] round %d closed, winner %d", l.Stake, finished.Number(), winner.TelegramID)
	} else {
		logger.Infof("[Lobby %d] round %d closed without a winner", l.Stake, finished.Number())
	}
	l.broadcastAll(cardsRestoredEvent{Type: "cards_restored", CardIDs: []int{}})
}

// drawTick reveals the next number during gameplay. The round itself
// guards phase, winner and the 75 cap, so a tick that fires after the
// win simply does nothing. Same row discipline as claim: write under
// mu, persist a copy.
func (l *Lobby) drawTick() {
	l.mu.Lock()
	n, ok := l.round.DrawNumber()
	var numbers []int
	var rowCopy *models.Round
	if ok {
		numbers = l.round.Drawn()
		if l.roundRow != nil {
			if b, err := json.Marshal(numbers); err == nil {
				l.roundRow.Numbers = datatypes.JSON(b)
				cp := *l.roundRow
				rowCopy = &cp
			}
		}
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	logger.Debugf("[Lobby %d] drew %d (%d/75)", l.Stake, n, len(numbers))
	if rowCopy != nil {
		if err := l.rounds.Save(rowCopy); err != nil {
			logger.Errorf("[Lobby %d] save drawn numbers: %v", l.Stake, err)
		}
	}
	l.broadcastAll(numberDrawnEvent{Type: "number_drawn", Numbers: numbers})
}

// -------------------- Broadcast --------------------

func (l *Lobby) broadcastSnapshot(now time.Time) {
	l.mu.Lock()
	snap := snapshotEvent{
		Type:             "snapshot",
		Stake:            l.Stake,
		Phase:            l.round.Phase(),
		SecondsRemaining: l.round.SecondsRemaining(now),
		DrawnNumbers:     l.round.Drawn(),
		Pot:              l.round.Pot(),
		Winner:           l.round.Winner(),
		TotalCardsSold:   l.round.TotalCardsSold(),
	}
	if l.cfg.CardExclusive {
		snap.TakenCards = l.round.TakenCards()
	}
	targets := l.clientList()
	l.mu.Unlock()

	b, err := json.Marshal(snap)
	if err != nil {
		logger.Errorf("[Lobby %d] marshal snapshot: %v", l.Stake, err)
		return
	}
	for _, c := range targets {
		c.sendRaw(b)
	}
}

func (l *Lobby) broadcastAll(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("[Lobby %d] marshal broadcast: %v", l.Stake, err)
		return
	}
	l.mu.Lock()
	targets := l.clientList()
	l.mu.Unlock()
	for _, c := range targets {
		c.sendRaw(b)
	}
}

// clientList must be called with mu held.
func (l *Lobby) clientList() []*Client {
	out := make([]*Client, 0, len(l.clients))
	for c := range l.clients {
		out = append(out, c)
	}
	return out
}

func (l *Lobby) notifyBalance(tid int64, balance float64) {
	l.notify(tid, balanceEvent{Type: "balance", Balance: balance})
}

func (l *Lobby) notifyError(tid int64, msg string) {
	l.notify(tid, errorEvent{Type: "error", Message: msg})
}

func (l *Lobby) notify(tid int64, v any) {
	l.mu.Lock()
	c, ok := l.byUser[tid]
	l.mu.Unlock()
	if !ok {
		return
	}
	c.sendJSON(v)
}
