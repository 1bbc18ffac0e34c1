package domain

// MoveResult reports what one move did to the board.
type MoveResult struct {
	Team        Team      `json:"team"`
	Moved       []PieceID `json:"moved"`
	From        Cell      `json:"from"`
	To          Cell      `json:"to"`
	Captured    []PieceID `json:"captured,omitempty"`
	StackedWith []PieceID `json:"stackedWith,omitempty"`
	Finished    []PieceID `json:"finished,omitempty"`
}

// ApplyMove moves the stack holding id according to opt. At the destination an enemy
// stack is sent back to Waiting first, then own pieces there merge with the movers.
// A goal-in finishes the whole moving stack. A stack on Home is goal-ready when any
// member is, so a ready piece keeps its right to finish when a teammate joins it.
func (s *PieceStore) ApplyMove(id PieceID, opt MoveOption) (MoveResult, error) {
	if !id.Valid() {
		return MoveResult{}, ErrInvalidPieceID
	}
	if !opt.Destination.OnTrack() && !(opt.GoalIn && opt.Destination == Finished) {
		return MoveResult{}, ErrInvalidCellID
	}
	mover := s.pieces[id]
	if mover.Finished() {
		return MoveResult{}, ErrNoSuchMove
	}
	team := mover.Team()
	movers := s.StackOf(id)
	res := MoveResult{Team: team, Moved: movers, From: mover.Position, To: opt.Destination}

	if opt.GoalIn {
		for _, m := range movers {
			s.pieces[m].Position = Finished
			s.pieces[m].GoalReady = false
		}
		res.Finished = append([]PieceID(nil), movers...)
		return res, nil
	}

	dest := opt.Destination
	for _, e := range s.StackAt(dest, team.Other()) {
		s.pieces[e].Position = Waiting
		s.pieces[e].GoalReady = false
		res.Captured = append(res.Captured, e)
	}

	ready := dest == Home && opt.ArrivesReady
	for _, own := range s.StackAt(dest, team) {
		if containsPiece(movers, own) {
			continue
		}
		res.StackedWith = append(res.StackedWith, own)
		ready = ready || (dest == Home && s.pieces[own].GoalReady)
	}

	for _, m := range movers {
		s.pieces[m].Position = dest
	}
	for _, m := range append(append([]PieceID(nil), movers...), res.StackedWith...) {
		s.pieces[m].GoalReady = ready
	}
	return res, nil
}

func containsPiece(ids []PieceID, id PieceID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
