package domain

import "fmt"

// Cell identifies a station on the Yut board. Track stations are 0..28; Waiting and
// Finished are the off-board positions a piece holds before entering and after goal-in.
type Cell int8

const (
	// Finished is the position of a piece that completed the course.
	Finished Cell = -2
	// Waiting is the position of a piece that has not entered the board (or was captured).
	Waiting Cell = -1

	// Outer ring, counter-clockwise from the start corner.
	Home Cell = 0 // A1: start and finish corner
	A2   Cell = 1
	A3   Cell = 2
	A4   Cell = 3
	A5   Cell = 4
	B1   Cell = 5 // corner, forks onto the E diagonal
	B2   Cell = 6
	B3   Cell = 7
	B4   Cell = 8
	B5   Cell = 9
	C1   Cell = 10 // corner, forks onto the F diagonal
	C2   Cell = 11
	C3   Cell = 12
	C4   Cell = 13
	C5   Cell = 14
	D1   Cell = 15 // corner where the E diagonal rejoins the ring
	D2   Cell = 16
	D3   Cell = 17
	D4   Cell = 18
	D5   Cell = 19

	// E diagonal: B1 -> center -> D1.
	E1  Cell = 20
	E2  Cell = 21
	EF3 Cell = 22 // center, shared by both diagonals
	E4  Cell = 23
	E5  Cell = 24

	// F diagonal: C1 -> center -> Home.
	F1 Cell = 25
	F2 Cell = 26
	F4 Cell = 27
	F5 Cell = 28
)

// TrackCells is the number of stations on the board.
const TrackCells = 29

var cellLabels = [TrackCells]string{
	"A1", "A2", "A3", "A4", "A5",
	"B1", "B2", "B3", "B4", "B5",
	"C1", "C2", "C3", "C4", "C5",
	"D1", "D2", "D3", "D4", "D5",
	"E1", "E2", "EF3", "E4", "E5",
	"F1", "F2", "F4", "F5",
}

// OnTrack reports whether c is a board station.
func (c Cell) OnTrack() bool { return c >= 0 && c < TrackCells }

// Valid reports whether c is a station or one of the two off-board positions.
func (c Cell) Valid() bool { return c.OnTrack() || c == Waiting || c == Finished }

// Label returns the display label of the cell.
func (c Cell) Label() string {
	switch {
	case c.OnTrack():
		return cellLabels[c]
	case c == Waiting:
		return "waiting"
	case c == Finished:
		return "finished"
	default:
		return fmt.Sprintf("cell(%d)", int8(c))
	}
}

func (c Cell) String() string { return c.Label() }

// ParseCell resolves a display label ("EF3", "waiting") to a Cell.
func ParseCell(label string) (Cell, bool) {
	switch label {
	case "waiting":
		return Waiting, true
	case "finished":
		return Finished, true
	}
	for i, l := range cellLabels {
		if l == label {
			return Cell(i), true
		}
	}
	return 0, false
}
