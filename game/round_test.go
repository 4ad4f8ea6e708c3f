package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Stake:             10,
		SelectionWindow:   40 * time.Second,
		WinnerWindow:      7 * time.Second,
		MinCards:          2,
		MaxCardsPerPlayer: 2,
		PayoutFraction:    0.8,
		CardExclusive:     true,
	}
}

func newTestRound(cfg Config) *Round {
	return NewRound(1, cfg, t0, rand.New(rand.NewSource(42)))
}

func drawAll(t *testing.T, r *Round) {
	t.Helper()
	for i := 0; i < 75; i++ {
		_, ok := r.DrawNumber()
		require.True(t, ok, "draw %d", i)
	}
}

func TestSelectCards(t *testing.T) {
	r := newTestRound(testConfig())

	require.NoError(t, r.SelectCards(1, []int{5, 6}))
	assert.Equal(t, []int{5, 6}, r.CardsOf(1))
	assert.Equal(t, 2, r.TotalCardsSold())
	assert.Equal(t, float64(20), r.Pot())
	assert.Equal(t, []int{5, 6}, r.TakenCards())
}

func TestSelectCardsRejections(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))

	assert.ErrorIs(t, r.SelectCards(2, []int{}), ErrNoCardsChosen)
	assert.ErrorIs(t, r.SelectCards(2, []int{7, 7}), ErrDuplicateCard)
	assert.ErrorIs(t, r.SelectCards(2, []int{7, 8, 9}), ErrTooManyCards)
	assert.ErrorIs(t, r.SelectCards(2, []int{5}), ErrCardTaken)

	// Nothing partial happened.
	assert.Empty(t, r.CardsOf(2))
	assert.Equal(t, 1, r.TotalCardsSold())
}

func TestSelectCardsReplacesSelection(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5, 6}))
	require.NoError(t, r.SelectCards(1, []int{9}))

	assert.Equal(t, []int{9}, r.CardsOf(1))
	assert.Equal(t, []int{9}, r.TakenCards(), "old cards are freed")

	// Another player can now take the freed card.
	require.NoError(t, r.SelectCards(2, []int{5}))
}

func TestSelectCardsNonExclusivePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.CardExclusive = false
	r := newTestRound(cfg)

	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{5}))
	assert.Equal(t, 2, r.TotalCardsSold())
}

func TestTickExtendsSelectionBelowMinimum(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))

	deadline := t0.Add(40 * time.Second)
	assert.Equal(t, TickNone, r.Tick(deadline.Add(-time.Second)))
	assert.Equal(t, TickSelectionExtended, r.Tick(deadline))

	assert.Equal(t, PhaseSelection, r.Phase())
	assert.Equal(t, 40, r.SecondsRemaining(deadline), "full window restarts")
	assert.Equal(t, TickNone, r.Tick(deadline.Add(time.Second)))
}

func TestTickStartsGameplay(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))

	assert.Equal(t, TickGameplayStarted, r.Tick(t0.Add(40*time.Second)))
	assert.Equal(t, PhaseGameplay, r.Phase())
	assert.Equal(t, float64(20), r.Pot())
	assert.Equal(t, map[int64]float64{1: 10, 2: 10}, r.Stakes())

	assert.ErrorIs(t, r.SelectCards(3, []int{7}), ErrNotSelectionPhase)
}

func TestDrawNumbersUniqueAndBounded(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))
	r.Tick(t0.Add(40 * time.Second))

	drawAll(t, r)

	drawn := r.Drawn()
	require.Len(t, drawn, 75)
	seen := make(map[int]bool)
	for _, n := range drawn {
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 75)
		require.False(t, seen[n], "duplicate draw %d", n)
		seen[n] = true
	}

	_, ok := r.DrawNumber()
	assert.False(t, ok, "no draws past 75")
}

func TestDrawRequiresGameplay(t *testing.T) {
	r := newTestRound(testConfig())
	_, ok := r.DrawNumber()
	assert.False(t, ok)
}

func TestClaimGuards(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))

	_, err := r.Claim(1, "abeba", 5, t0)
	assert.ErrorIs(t, err, ErrNotGameplayPhase)

	start := t0.Add(40 * time.Second)
	r.Tick(start)

	_, err = r.Claim(1, "abeba", 6, start)
	assert.ErrorIs(t, err, ErrCardNotHeld, "cannot claim another player's card")

	_, err = r.Claim(1, "abeba", 5, start)
	assert.ErrorIs(t, err, ErrNoWin, "no numbers drawn yet")
	assert.Nil(t, r.Winner())
}

func TestClaimWinAndWinnerFreeze(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))

	start := t0.Add(40 * time.Second)
	require.Equal(t, TickGameplayStarted, r.Tick(start))
	drawAll(t, r) // every number out guarantees any card wins

	claimAt := start.Add(30 * time.Second)
	w, err := r.Claim(1, "abeba", 5, claimAt)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, int64(1), w.TelegramID)
	assert.Equal(t, 5, w.CardID)
	assert.Equal(t, float64(16), w.Prize, "floor(20 * 0.8)")
	assert.Equal(t, PhaseWinner, r.Phase())

	// Second claim in the same round is ignored.
	_, err = r.Claim(2, "kebede", 6, claimAt)
	assert.ErrorIs(t, err, ErrNotGameplayPhase)
	assert.Equal(t, int64(1), r.Winner().TelegramID)

	// Draw timer goes quiet even if it fires again.
	_, ok := r.DrawNumber()
	assert.False(t, ok)

	// Winner screen runs its 7 seconds off an absolute deadline.
	assert.Equal(t, TickNone, r.Tick(claimAt.Add(6*time.Second)))
	assert.Equal(t, TickRoundOver, r.Tick(claimAt.Add(7*time.Second)))
}

func TestDrawStopsOncePartialWinnerSet(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))
	start := t0.Add(40 * time.Second)
	r.Tick(start)

	// Draw until card 5 actually has a line, then claim.
	card := GenerateCard(5)
	for {
		if HasWin(card, r.Drawn()) {
			break
		}
		_, ok := r.DrawNumber()
		require.True(t, ok)
	}
	before := len(r.Drawn())
	_, err := r.Claim(1, "abeba", 5, start)
	require.NoError(t, err)

	_, ok := r.DrawNumber()
	assert.False(t, ok)
	assert.Len(t, r.Drawn(), before, "sequence frozen at the win")
}

func TestResults(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6, 7}))

	start := t0.Add(40 * time.Second)
	r.Tick(start)
	drawAll(t, r)
	_, err := r.Claim(1, "abeba", 5, start)
	require.NoError(t, err)

	results := r.Results()
	require.Len(t, results, 2)
	assert.Equal(t, Result{TelegramID: 1, Stake: 10, Prize: 24, Won: true}, results[0])
	assert.Equal(t, Result{TelegramID: 2, Stake: 20}, results[1])
}

func TestRemoveSelectionShrinksFrozenPot(t *testing.T) {
	r := newTestRound(testConfig())
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))
	r.Tick(t0.Add(40 * time.Second))
	require.Equal(t, float64(20), r.Pot())

	cards := r.RemoveSelection(2)
	assert.Equal(t, []int{6}, cards)
	assert.Equal(t, float64(10), r.Pot(), "undebited stake leaves the pot")
	assert.Empty(t, r.CardsOf(2))
}

func TestCornersPolicyClaim(t *testing.T) {
	cfg := testConfig()
	cfg.CornersWin = true
	r := newTestRound(cfg)
	require.NoError(t, r.SelectCards(1, []int{5}))
	require.NoError(t, r.SelectCards(2, []int{6}))
	start := t0.Add(40 * time.Second)
	r.Tick(start)

	// Draw until exactly the corner pattern (and nothing line-shaped)
	// might exist is fiddly with a live RNG; instead verify the policy
	// wiring by drawing until corners complete and claiming then.
	card := GenerateCard(5)
	for !HasCornersWin(card, r.Drawn()) {
		_, ok := r.DrawNumber()
		require.True(t, ok)
	}
	_, err := r.Claim(1, "abeba", 5, start)
	assert.NoError(t, err)
}
