package domain

// Seats holds the user seated for each team, "" when the seat is empty.
type Seats [2]string

// LowestAvailableSeat returns the lowest empty seat index.
func LowestAvailableSeat(seats *Seats) (int, bool) {
	for i, userID := range seats {
		if userID == "" {
			return i, true
		}
	}
	return -1, false
}

// SeatOf returns the seat held by userID.
func SeatOf(seats *Seats, userID string) (int, bool) {
	for i, id := range seats {
		if id != "" && id == userID {
			return i, true
		}
	}
	return -1, false
}

// CountOccupied returns the number of taken seats.
func CountOccupied(seats *Seats) int {
	n := 0
	for _, id := range seats {
		if id != "" {
			n++
		}
	}
	return n
}

// Settlement is the wallet outcome of a finished game.
type Settlement struct {
	BalanceChanges map[string]int64 // userID -> amount
	Shutout        bool             // loser finished no piece
}

// CalculateSettlement pays the base bet from loser to winner, doubled on a shutout.
// It returns an empty settlement while the game has no winner.
func (g *Game) CalculateSettlement() Settlement {
	s := Settlement{BalanceChanges: make(map[string]int64, 2)}
	if !g.HasWinner {
		return s
	}
	amount := g.BaseBet
	loser := g.Winner.Other()
	if g.Pieces.FinishedCount(loser) == 0 {
		s.Shutout = true
		amount *= 2
	}
	if w := g.UserOf(g.Winner); w != "" {
		s.BalanceChanges[w] = amount
	}
	if l := g.UserOf(loser); l != "" {
		s.BalanceChanges[l] = -amount
	}
	return s
}
