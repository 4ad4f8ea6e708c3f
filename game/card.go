package game

// FreeCell is the sentinel value of the center square. It counts as
// drawn in every win check.
const FreeCell = 0

// Card is a 5x5 bingo grid, rows first. Column c holds values from
// cardRanges[c], center cell is FreeCell.
type Card [5][5]int

// Per-column value ranges of a 75-ball card (B I N G O).
var cardRanges = [5][2]int{{1, 15}, {16, 30}, {31, 45}, {46, 60}, {61, 75}}

// mix32 is one mulberry32 step. The mini-app client runs the identical
// function, so the constants are frozen: changing any of them breaks
// every card id already shown to a player.
func mix32(seed uint32) float64 {
	t := seed + 0x6D2B79F5
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// GenerateCard derives the full grid for a card id. Same id always
// yields the same grid, across processes and restarts, which is what
// lets the server recheck a claimed win without ever storing cards.
// Non-positive ids fall back to id 1 so any id a client presents can
// still be rechecked.
func GenerateCard(id int) Card {
	seed := uint32(id)
	if id <= 0 {
		seed = 1
	}

	var cols [5][5]int
	for c := 0; c < 5; c++ {
		lo, hi := cardRanges[c][0], cardRanges[c][1]
		pool := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			pool = append(pool, v)
		}
		// Sample without replacement: each draw keys the RNG off
		// seed + c*10 + d and shrinks the pool.
		for d := 0; d < 5; d++ {
			idx := int(mix32(seed+uint32(c*10+d)) * float64(len(pool)))
			cols[c][d] = pool[idx]
			pool = append(pool[:idx], pool[idx+1:]...)
		}
	}

	var card Card
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			card[r][c] = cols[c][r]
		}
	}
	card[2][2] = FreeCell
	return card
}
