package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// lineNumbers collects the real (non-free) numbers of the given cells.
func lineNumbers(card Card, cells [][2]int) []int {
	out := []int{}
	for _, cell := range cells {
		if n := card[cell[0]][cell[1]]; n != FreeCell {
			out = append(out, n)
		}
	}
	return out
}

func TestHasWinRows(t *testing.T) {
	card := GenerateCard(7)
	for r := 0; r < 5; r++ {
		cells := [][2]int{}
		for c := 0; c < 5; c++ {
			cells = append(cells, [2]int{r, c})
		}
		assert.True(t, HasWin(card, lineNumbers(card, cells)), "row %d", r)
	}
}

func TestHasWinColumns(t *testing.T) {
	card := GenerateCard(7)
	for c := 0; c < 5; c++ {
		cells := [][2]int{}
		for r := 0; r < 5; r++ {
			cells = append(cells, [2]int{r, c})
		}
		assert.True(t, HasWin(card, lineNumbers(card, cells)), "col %d", c)
	}
}

func TestHasWinDiagonals(t *testing.T) {
	card := GenerateCard(13)
	diag, anti := [][2]int{}, [][2]int{}
	for i := 0; i < 5; i++ {
		diag = append(diag, [2]int{i, i})
		anti = append(anti, [2]int{i, 4 - i})
	}
	assert.True(t, HasWin(card, lineNumbers(card, diag)))
	assert.True(t, HasWin(card, lineNumbers(card, anti)))
}

func TestHasWinFreeCellCounts(t *testing.T) {
	// The middle row only needs its four real numbers.
	card := GenerateCard(21)
	drawn := []int{card[2][0], card[2][1], card[2][3], card[2][4]}
	assert.True(t, HasWin(card, drawn))
}

func TestHasWinIncomplete(t *testing.T) {
	card := GenerateCard(7)

	assert.False(t, HasWin(card, nil), "free cell alone must not win")

	// Top row minus its last cell: four hits in distinct columns
	// complete nothing.
	drawn := []int{card[0][0], card[0][1], card[0][2], card[0][3]}
	assert.False(t, HasWin(card, drawn))
}

func TestHasCornersWin(t *testing.T) {
	card := GenerateCard(33)
	corners := []int{card[0][0], card[0][4], card[4][0], card[4][4]}

	assert.True(t, HasCornersWin(card, corners))
	assert.False(t, HasWin(card, corners), "corners are not a line pattern")
	assert.False(t, HasCornersWin(card, corners[:3]))
}
