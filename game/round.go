package game

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"
)

type Phase string

const (
	PhaseSelection Phase = "SELECTION"
	PhaseGameplay  Phase = "GAMEPLAY"
	PhaseWinner    Phase = "WINNER"
)

// Config fixes the rules of one lobby's rounds.
type Config struct {
	Stake             int
	SelectionWindow   time.Duration
	WinnerWindow      time.Duration
	MinCards          int
	MaxCardsPerPlayer int
	PayoutFraction    float64
	CardExclusive     bool
	CornersWin        bool
}

type Winner struct {
	TelegramID int64   `json:"telegram_id"`
	Name       string  `json:"name"`
	CardID     int     `json:"card_id"`
	Prize      float64 `json:"prize"`
}

// Result is one participant's outcome when a round is torn down.
type Result struct {
	TelegramID int64
	Stake      float64
	Prize      float64
	Won        bool
}

// Policy rejections surfaced to the originating client. A failed win
// recheck (ErrNoWin) is deliberately not surfaced: claims that do not
// verify are dropped without feedback.
var (
	ErrNotSelectionPhase = errors.New("cards can only be selected during the selection phase")
	ErrNoCardsChosen     = errors.New("no cards chosen")
	ErrDuplicateCard     = errors.New("duplicate card in selection")
	ErrTooManyCards      = errors.New("card limit for this round exceeded")
	ErrCardTaken         = errors.New("card already taken by another player")
	ErrNotGameplayPhase  = errors.New("claims are only accepted during gameplay")
	ErrCardNotHeld       = errors.New("claimed card is not in your selection")
	ErrNoWin             = errors.New("card has no winning line")
)

// TickEvent is what the 1 Hz tick observed.
type TickEvent int

const (
	TickNone TickEvent = iota
	// Selection deadline hit with enough cards sold; stakes must now
	// be debited by the caller.
	TickGameplayStarted
	// Selection deadline hit without enough cards; window restarted.
	TickSelectionExtended
	// Winner screen expired; caller replaces this round.
	TickRoundOver
)

// Round is the state of one play cycle. It is a plain state machine:
// no goroutines, no I/O, no clock of its own. The owning lobby holds
// a mutex around every call and passes the current time in, which is
// also what makes the tests drive it without sleeping.
type Round struct {
	cfg      Config
	number   int
	phase    Phase
	deadline time.Time

	drawn    []int
	drawnSet map[int]bool
	winner   *Winner

	// card selections for this round only, keyed by telegram id
	selections map[int64][]int
	taken      map[int]int64 // card id -> holder

	pot float64 // frozen at the SELECTION -> GAMEPLAY transition
	rng *rand.Rand
}

func NewRound(number int, cfg Config, now time.Time, rng *rand.Rand) *Round {
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}
	return &Round{
		cfg:        cfg,
		number:     number,
		phase:      PhaseSelection,
		deadline:   now.Add(cfg.SelectionWindow),
		drawnSet:   make(map[int]bool),
		selections: make(map[int64][]int),
		taken:      make(map[int]int64),
		rng:        rng,
	}
}

func (r *Round) Number() int  { return r.number }
func (r *Round) Phase() Phase { return r.phase }

func (r *Round) Winner() *Winner {
	if r.winner == nil {
		return nil
	}
	w := *r.winner
	return &w
}

// SecondsRemaining derives the countdown from the absolute deadline so
// the 1 Hz tick never drifts. Gameplay has no deadline.
func (r *Round) SecondsRemaining(now time.Time) int {
	if r.phase == PhaseGameplay {
		return 0
	}
	left := int(math.Ceil(r.deadline.Sub(now).Seconds()))
	if left < 0 {
		left = 0
	}
	return left
}

func (r *Round) Drawn() []int {
	return append([]int(nil), r.drawn...)
}

func (r *Round) TotalCardsSold() int {
	n := 0
	for _, cards := range r.selections {
		n += len(cards)
	}
	return n
}

// Pot is derived while selling, frozen once gameplay starts.
func (r *Round) Pot() float64 {
	if r.phase == PhaseSelection {
		return float64(r.TotalCardsSold() * r.cfg.Stake)
	}
	return r.pot
}

func (r *Round) TakenCards() []int {
	out := make([]int, 0, len(r.taken))
	for id := range r.taken {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (r *Round) CardsOf(tid int64) []int {
	return append([]int(nil), r.selections[tid]...)
}

// SelectCards replaces tid's selection for this round. Validation is
// all-or-nothing: a rejected request leaves the previous selection
// untouched.
func (r *Round) SelectCards(tid int64, cardIDs []int) error {
	if r.phase != PhaseSelection {
		return ErrNotSelectionPhase
	}
	if len(cardIDs) == 0 {
		return ErrNoCardsChosen
	}
	if len(cardIDs) > r.cfg.MaxCardsPerPlayer {
		return ErrTooManyCards
	}
	seen := make(map[int]bool, len(cardIDs))
	for _, id := range cardIDs {
		if seen[id] {
			return ErrDuplicateCard
		}
		seen[id] = true
		if r.cfg.CardExclusive {
			if holder, ok := r.taken[id]; ok && holder != tid {
				return ErrCardTaken
			}
		}
	}

	for _, old := range r.selections[tid] {
		delete(r.taken, old)
	}
	r.selections[tid] = append([]int(nil), cardIDs...)
	for _, id := range cardIDs {
		r.taken[id] = tid
	}
	return nil
}

// RemoveSelection drops tid's cards, e.g. when the stake debit fails
// after gameplay has started. The frozen pot shrinks with them so the
// prize only ever pays out money that was actually collected.
func (r *Round) RemoveSelection(tid int64) []int {
	cards := r.selections[tid]
	if len(cards) == 0 {
		return nil
	}
	for _, id := range cards {
		delete(r.taken, id)
	}
	delete(r.selections, tid)
	if r.phase != PhaseSelection {
		r.pot -= float64(len(cards) * r.cfg.Stake)
	}
	return cards
}

// Stakes returns what each cardholder owes at gameplay start.
func (r *Round) Stakes() map[int64]float64 {
	out := make(map[int64]float64, len(r.selections))
	for tid, cards := range r.selections {
		if len(cards) > 0 {
			out[tid] = float64(len(cards) * r.cfg.Stake)
		}
	}
	return out
}

// Tick advances the state machine against the wall clock. At most one
// transition happens per call.
func (r *Round) Tick(now time.Time) TickEvent {
	if now.Before(r.deadline) {
		return TickNone
	}
	switch r.phase {
	case PhaseSelection:
		if r.TotalCardsSold() >= r.cfg.MinCards {
			r.phase = PhaseGameplay
			r.pot = float64(r.TotalCardsSold() * r.cfg.Stake)
			return TickGameplayStarted
		}
		// Not enough cards: stay put and restart the full window.
		r.deadline = now.Add(r.cfg.SelectionWindow)
		return TickSelectionExtended
	case PhaseWinner:
		return TickRoundOver
	default:
		// Gameplay ends on a verified claim, never on the clock.
		return TickNone
	}
}

// DrawNumber reveals one more number, or reports false once drawing
// is over (wrong phase, winner set, or all 75 out). Rejection-samples
// uniformly from the numbers not yet drawn.
func (r *Round) DrawNumber() (int, bool) {
	if r.phase != PhaseGameplay || r.winner != nil || len(r.drawn) >= 75 {
		return 0, false
	}
	n := r.rng.Intn(75) + 1
	for r.drawnSet[n] {
		n = r.rng.Intn(75) + 1
	}
	r.drawn = append(r.drawn, n)
	r.drawnSet[n] = true
	return n, true
}

// Claim verifies a win claim against a freshly generated card and the
// drawn numbers. The client's own grid is never consulted. The first
// verified claim wins; callers are serialized by the lobby mutex, so
// at most one claim can ever get past the winner guard.
func (r *Round) Claim(tid int64, name string, cardID int, now time.Time) (*Winner, error) {
	if r.phase != PhaseGameplay || r.winner != nil {
		return nil, ErrNotGameplayPhase
	}
	if !r.holds(tid, cardID) {
		return nil, ErrCardNotHeld
	}

	card := GenerateCard(cardID)
	win := HasWin(card, r.drawn)
	if !win && r.cfg.CornersWin {
		win = HasCornersWin(card, r.drawn)
	}
	if !win {
		return nil, ErrNoWin
	}

	r.winner = &Winner{
		TelegramID: tid,
		Name:       name,
		CardID:     cardID,
		Prize:      math.Floor(r.pot * r.cfg.PayoutFraction),
	}
	r.phase = PhaseWinner
	r.deadline = now.Add(r.cfg.WinnerWindow)
	return r.Winner(), nil
}

// Results reports every cardholder's outcome; call at round teardown.
func (r *Round) Results() []Result {
	out := make([]Result, 0, len(r.selections))
	for tid, cards := range r.selections {
		if len(cards) == 0 {
			continue
		}
		res := Result{TelegramID: tid, Stake: float64(len(cards) * r.cfg.Stake)}
		if r.winner != nil && r.winner.TelegramID == tid {
			res.Won = true
			res.Prize = r.winner.Prize
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out
}

func (r *Round) holds(tid int64, cardID int) bool {
	for _, id := range r.selections[tid] {
		if id == cardID {
			return true
		}
	}
	return false
}
