package domain

// noCell marks an absent link in the topology table.
const noCell Cell = -3

// cellLinks describes how a station connects to the rest of the board.
type cellLinks struct {
	next  Cell   // ordinary successor
	fork  Cell   // successor taken when a move departs from this station
	inner Cell   // successor for a piece travelling the F diagonal
	back  []Cell // Back-do predecessors; two entries make the station a backward branch point
}

// topology is the static board. Every station has exactly one ordinary successor and
// every route eventually funnels into Home.
var topology = [TrackCells]cellLinks{
	Home: {next: A2, fork: noCell, inner: noCell, back: []Cell{D5, F5}},
	A2:   {next: A3, fork: noCell, inner: noCell, back: []Cell{Home}},
	A3:   {next: A4, fork: noCell, inner: noCell, back: []Cell{A2}},
	A4:   {next: A5, fork: noCell, inner: noCell, back: []Cell{A3}},
	A5:   {next: B1, fork: noCell, inner: noCell, back: []Cell{A4}},
	B1:   {next: B2, fork: E1, inner: noCell, back: []Cell{A5}},
	B2:   {next: B3, fork: noCell, inner: noCell, back: []Cell{B1}},
	B3:   {next: B4, fork: noCell, inner: noCell, back: []Cell{B2}},
	B4:   {next: B5, fork: noCell, inner: noCell, back: []Cell{B3}},
	B5:   {next: C1, fork: noCell, inner: noCell, back: []Cell{B4}},
	C1:   {next: C2, fork: F1, inner: noCell, back: []Cell{B5}},
	C2:   {next: C3, fork: noCell, inner: noCell, back: []Cell{C1}},
	C3:   {next: C4, fork: noCell, inner: noCell, back: []Cell{C2}},
	C4:   {next: C5, fork: noCell, inner: noCell, back: []Cell{C3}},
	C5:   {next: D1, fork: noCell, inner: noCell, back: []Cell{C4}},
	D1:   {next: D2, fork: noCell, inner: noCell, back: []Cell{C5, E5}},
	D2:   {next: D3, fork: noCell, inner: noCell, back: []Cell{D1}},
	D3:   {next: D4, fork: noCell, inner: noCell, back: []Cell{D2}},
	D4:   {next: D5, fork: noCell, inner: noCell, back: []Cell{D3}},
	D5:   {next: Home, fork: noCell, inner: noCell, back: []Cell{D4}},
	E1:   {next: E2, fork: noCell, inner: noCell, back: []Cell{B1}},
	E2:   {next: EF3, fork: noCell, inner: noCell, back: []Cell{E1}},
	EF3:  {next: E4, fork: F4, inner: F4, back: []Cell{E2, F2}},
	E4:   {next: E5, fork: noCell, inner: noCell, back: []Cell{EF3}},
	E5:   {next: D1, fork: noCell, inner: noCell, back: []Cell{E4}},
	F1:   {next: F2, fork: noCell, inner: noCell, back: []Cell{C1}},
	F2:   {next: EF3, fork: noCell, inner: noCell, back: []Cell{F1}},
	F4:   {next: F5, fork: noCell, inner: noCell, back: []Cell{EF3}},
	F5:   {next: Home, fork: noCell, inner: noCell, back: []Cell{F4}},
}

// NextCell returns the station after current.
// departing is true for the first step of a move, which always takes a fork when the
// station has one. inner is true while the moving piece travels the F diagonal, which
// keeps it on the F side when it passes the center.
func NextCell(current Cell, departing, inner bool) Cell {
	switch {
	case current == Waiting:
		return Home
	case !current.OnTrack():
		return current
	}
	links := topology[current]
	if departing && links.fork != noCell {
		return links.fork
	}
	if inner && links.inner != noCell {
		return links.inner
	}
	return links.next
}

// IsBranchPoint reports whether a move departing from c leaves the ordinary route.
func IsBranchPoint(c Cell) bool {
	return c.OnTrack() && topology[c].fork != noCell
}

// BackCells returns the stations a Back-do from c may land on. Off-board positions have none.
func BackCells(c Cell) []Cell {
	if !c.OnTrack() {
		return nil
	}
	return append([]Cell(nil), topology[c].back...)
}

// onInnerRoute reports whether a move starting at c travels the F diagonal.
func onInnerRoute(c Cell) bool {
	return c == C1 || c == F1 || c == F2
}
