package game

// HasWin reports whether the card has a completed row, column or
// diagonal against the drawn numbers. The free center always counts.
// Any single completed line wins; ordering among lines is irrelevant.
func HasWin(card Card, drawn []int) bool {
	set := drawnSet(drawn)

	for i := 0; i < 5; i++ {
		row, col := true, true
		for j := 0; j < 5; j++ {
			if !set[card[i][j]] {
				row = false
			}
			if !set[card[j][i]] {
				col = false
			}
		}
		if row || col {
			return true
		}
	}

	diag, anti := true, true
	for i := 0; i < 5; i++ {
		if !set[card[i][i]] {
			diag = false
		}
		if !set[card[i][4-i]] {
			anti = false
		}
	}
	return diag || anti
}

// HasCornersWin reports whether all four corner cells are drawn. Some
// stake tables run with this as an extra pattern, so it is kept
// separate from HasWin and enabled per lobby.
func HasCornersWin(card Card, drawn []int) bool {
	set := drawnSet(drawn)
	return set[card[0][0]] && set[card[0][4]] && set[card[4][0]] && set[card[4][4]]
}

func drawnSet(drawn []int) map[int]bool {
	set := make(map[int]bool, len(drawn)+1)
	for _, n := range drawn {
		set[n] = true
	}
	set[FreeCell] = true
	return set
}
