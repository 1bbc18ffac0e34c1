package domain

import (
	"math"
	"sort"
)

// Team is one of the two sides of a match.
type Team int8

const (
	TeamA Team = 0
	TeamB Team = 1
)

const (
	// PiecesPerTeam is the number of pieces each team races home.
	PiecesPerTeam = 4
	// PieceCount is the total number of pieces in a game.
	PieceCount = 2 * PiecesPerTeam
)

// Valid reports whether t is TeamA or TeamB.
func (t Team) Valid() bool { return t == TeamA || t == TeamB }

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	if t == TeamA {
		return "A"
	}
	return "B"
}

// PieceID identifies a piece. IDs 0..3 belong to TeamA, 4..7 to TeamB.
type PieceID int8

// Valid reports whether id is in range.
func (id PieceID) Valid() bool { return id >= 0 && id < PieceCount }

// PieceIDFromNumber converts a wire number to a PieceID. It rejects fractions and
// anything outside [0, PieceCount).
func PieceIDFromNumber(n float64) (PieceID, error) {
	if n != math.Trunc(n) || n < 0 || n >= PieceCount {
		return 0, ErrInvalidPieceID
	}
	return PieceID(n), nil
}

// Team returns the owner of the piece.
func (id PieceID) Team() Team {
	if id < PiecesPerTeam {
		return TeamA
	}
	return TeamB
}

// TeamPieces returns the ids owned by team in ascending order.
func TeamPieces(team Team) []PieceID {
	first := PieceID(int(team) * PiecesPerTeam)
	out := make([]PieceID, PiecesPerTeam)
	for i := range out {
		out[i] = first + PieceID(i)
	}
	return out
}

// Piece is a single token on (or off) the board.
type Piece struct {
	ID       PieceID
	Position Cell
	// GoalReady is set while the piece rests on Home after completing the course or
	// backing onto it. Only such a piece may finish from Home.
	GoalReady bool
}

// Team returns the owner of the piece.
func (p Piece) Team() Team { return p.ID.Team() }

// Finished reports whether the piece completed the course.
func (p Piece) Finished() bool { return p.Position == Finished }

// OnBoard reports whether the piece stands on a track station.
func (p Piece) OnBoard() bool { return p.Position.OnTrack() }

// PieceStore holds the eight pieces of a game.
type PieceStore struct {
	pieces [PieceCount]Piece
}

// NewPieceStore returns a store with every piece waiting.
func NewPieceStore() PieceStore {
	var s PieceStore
	for i := range s.pieces {
		s.pieces[i] = Piece{ID: PieceID(i), Position: Waiting}
	}
	return s
}

// Piece returns a copy of the piece with the given id.
func (s *PieceStore) Piece(id PieceID) (Piece, error) {
	if !id.Valid() {
		return Piece{}, ErrInvalidPieceID
	}
	return s.pieces[id], nil
}

// All returns a copy of every piece ordered by id.
func (s *PieceStore) All() []Piece {
	out := make([]Piece, PieceCount)
	copy(out, s.pieces[:])
	return out
}

// Positions maps each piece id to its current cell.
func (s *PieceStore) Positions() map[PieceID]Cell {
	out := make(map[PieceID]Cell, PieceCount)
	for _, p := range s.pieces {
		out[p.ID] = p.Position
	}
	return out
}

// TeamOf returns the owner of id.
func (s *PieceStore) TeamOf(id PieceID) (Team, error) {
	if !id.Valid() {
		return TeamA, ErrInvalidPieceID
	}
	return id.Team(), nil
}

// IsFinished reports whether id completed the course. Invalid ids report false.
func (s *PieceStore) IsFinished(id PieceID) bool {
	return id.Valid() && s.pieces[id].Finished()
}

// StackAt returns the pieces of team standing on cell. Off-board cells never hold a stack.
func (s *PieceStore) StackAt(cell Cell, team Team) []PieceID {
	if !cell.OnTrack() {
		return nil
	}
	var out []PieceID
	for _, p := range s.pieces {
		if p.Position == cell && p.Team() == team {
			out = append(out, p.ID)
		}
	}
	return out
}

// StackOf returns the stack containing id, or just id when it is off the board.
func (s *PieceStore) StackOf(id PieceID) []PieceID {
	if !id.Valid() {
		return nil
	}
	p := s.pieces[id]
	if !p.OnBoard() {
		return []PieceID{id}
	}
	return s.StackAt(p.Position, p.Team())
}

// OccupantTeam returns the team holding cell, if any.
func (s *PieceStore) OccupantTeam(cell Cell) (Team, bool) {
	if !cell.OnTrack() {
		return TeamA, false
	}
	for _, p := range s.pieces {
		if p.Position == cell {
			return p.Team(), true
		}
	}
	return TeamA, false
}

// Occupied reports whether any piece stands on cell.
func (s *PieceStore) Occupied(cell Cell) bool {
	_, ok := s.OccupantTeam(cell)
	return ok
}

// FinishedCount returns how many pieces of team completed the course.
func (s *PieceStore) FinishedCount(team Team) int {
	n := 0
	for _, p := range s.pieces {
		if p.Team() == team && p.Finished() {
			n++
		}
	}
	return n
}

// OnBoardCount returns how many pieces of team stand on the track.
func (s *PieceStore) OnBoardCount(team Team) int {
	n := 0
	for _, p := range s.pieces {
		if p.Team() == team && p.OnBoard() {
			n++
		}
	}
	return n
}

// AllFinished reports whether every piece of team completed the course.
func (s *PieceStore) AllFinished(team Team) bool {
	return s.FinishedCount(team) == PiecesPerTeam
}

// Stacks groups the on-board pieces of team by cell, ordered by cell.
func (s *PieceStore) Stacks(team Team) [][]PieceID {
	byCell := make(map[Cell][]PieceID)
	for _, p := range s.pieces {
		if p.Team() == team && p.OnBoard() {
			byCell[p.Position] = append(byCell[p.Position], p.ID)
		}
	}
	cells := make([]Cell, 0, len(byCell))
	for c := range byCell {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	out := make([][]PieceID, 0, len(cells))
	for _, c := range cells {
		out = append(out, byCell[c])
	}
	return out
}

// Place puts a single piece on cell, clearing its goal flag. It is meant for setting
// up positions, not for playing moves; use ApplyMove for that.
func (s *PieceStore) Place(id PieceID, cell Cell) error {
	if !id.Valid() {
		return ErrInvalidPieceID
	}
	if !cell.Valid() {
		return ErrInvalidCellID
	}
	s.pieces[id].Position = cell
	s.pieces[id].GoalReady = false
	return nil
}

// MarkGoalReady flags a piece resting on Home as able to finish.
func (s *PieceStore) MarkGoalReady(id PieceID) error {
	if !id.Valid() {
		return ErrInvalidPieceID
	}
	if s.pieces[id].Position != Home {
		return ErrNoSuchMove
	}
	s.pieces[id].GoalReady = true
	return nil
}
