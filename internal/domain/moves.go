package domain

import "sort"

// PathResult describes a forward walk along the track.
type PathResult struct {
	Final Cell
	Path  []Cell // stations visited after the start, in order
	// PassedHome is set when the walk reached Home from the track.
	PassedHome bool
	// StepsUsedToHome counts the steps taken before the step onto Home.
	StepsUsedToHome int
	// RemainingSteps is steps minus StepsUsedToHome when PassedHome is set.
	RemainingSteps int
}

// GoalEligible reports whether the walk reached Home with more than one step to spare.
// Exactly one spare step is an ordinary stop on Home.
func (r PathResult) GoalEligible() bool {
	return r.PassedHome && r.RemainingSteps > 1
}

// SimulatePath walks steps stations forward from start. A waiting piece enters on Home.
// The walk stops at Home once it comes round from the track.
func SimulatePath(start Cell, steps int) PathResult {
	res := PathResult{Final: start}
	if steps <= 0 || start == Finished {
		return res
	}
	inner := onInnerRoute(start)
	cur := start
	for i := 0; i < steps; i++ {
		next := NextCell(cur, i == 0, inner)
		res.Path = append(res.Path, next)
		if next == Home && cur != Waiting {
			res.PassedHome = true
			res.StepsUsedToHome = i
			res.RemainingSteps = steps - i
			cur = next
			break
		}
		cur = next
	}
	res.Final = cur
	return res
}

// BackStep returns the first backward destination of start. Branch points have two;
// use BackCells to list both.
func BackStep(start Cell) Cell {
	back := BackCells(start)
	if len(back) == 0 {
		return start
	}
	return back[0]
}

// LegalDestinations lists where a piece at start may end up with the given step count.
// A step count of -1 is a Back-do. Finished stands for a goal-in.
func LegalDestinations(start Cell, steps int) []Cell {
	if steps < 0 {
		return BackCells(start)
	}
	res := SimulatePath(start, steps)
	if res.Final == start {
		return nil
	}
	if res.GoalEligible() {
		return []Cell{Home, Finished}
	}
	return []Cell{res.Final}
}

// MoveOption is one selectable destination for a piece.
type MoveOption struct {
	Outcome     Outcome `json:"outcome"`
	Destination Cell    `json:"destination"`
	// GoalIn finishes the moving stack. Destination is Finished.
	GoalIn bool `json:"goalIn"`
	// ArrivesReady marks a stop on Home that leaves the stack able to finish later.
	ArrivesReady bool `json:"arrivesReady"`
}

// MoveOptions lists the destinations open to p for a single outcome.
func MoveOptions(p Piece, outcome Outcome) []MoveOption {
	if p.Finished() || !outcome.Valid() || outcome == OutcomeNak {
		return nil
	}
	if outcome == OutcomeBackDo {
		if !p.OnBoard() || (p.Position == Home && !p.GoalReady) {
			return nil
		}
		var out []MoveOption
		for _, c := range BackCells(p.Position) {
			out = append(out, MoveOption{Outcome: outcome, Destination: c, ArrivesReady: c == Home})
		}
		return out
	}
	if p.Position == Home && p.GoalReady {
		return []MoveOption{{Outcome: outcome, Destination: Finished, GoalIn: true}}
	}
	res := SimulatePath(p.Position, outcome.Steps())
	if res.GoalEligible() {
		return []MoveOption{
			{Outcome: outcome, Destination: Home, ArrivesReady: true},
			{Outcome: outcome, Destination: Finished, GoalIn: true},
		}
	}
	return []MoveOption{{Outcome: outcome, Destination: res.Final, ArrivesReady: res.PassedHome}}
}

// UsableOutcomes returns the distinct pending outcomes that may be spent now, smallest
// first. Back-do entries wait until every forward outcome has been spent.
func UsableOutcomes(pending []Outcome) []Outcome {
	seen := make(map[Outcome]bool)
	var forward, back []Outcome
	for _, o := range pending {
		if seen[o] {
			continue
		}
		seen[o] = true
		switch {
		case o.Forward():
			forward = append(forward, o)
		case o == OutcomeBackDo:
			back = append(back, o)
		}
	}
	if len(forward) > 0 {
		sort.Slice(forward, func(i, j int) bool { return forward[i] < forward[j] })
		return forward
	}
	return back
}

// CellOptions merges the move options of piece id across every usable pending outcome.
// When two outcomes reach the same destination the smaller one is offered.
func CellOptions(s *PieceStore, id PieceID, pending []Outcome) ([]MoveOption, error) {
	p, err := s.Piece(id)
	if err != nil {
		return nil, err
	}
	type key struct {
		dest   Cell
		goalIn bool
	}
	seen := make(map[key]bool)
	var out []MoveOption
	for _, o := range UsableOutcomes(pending) {
		for _, opt := range MoveOptions(p, o) {
			k := key{opt.Destination, opt.GoalIn}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, opt)
		}
	}
	return out, nil
}

// PieceOption is one selectable piece.
type PieceOption struct {
	ID       PieceID   `json:"id"`
	Position Cell      `json:"position"`
	Stack    []PieceID `json:"stack"`
	// GoalInAvailable hints that one of the piece's destinations finishes it.
	GoalInAvailable bool `json:"goalInAvailable"`
}

// PieceOptions lists the pieces of team with at least one destination for the pending
// outcomes. Pieces that can goal in come first, then by id.
func PieceOptions(s *PieceStore, team Team, pending []Outcome) []PieceOption {
	var out []PieceOption
	for _, id := range TeamPieces(team) {
		opts, _ := CellOptions(s, id, pending)
		if len(opts) == 0 {
			continue
		}
		p := s.pieces[id]
		po := PieceOption{ID: id, Position: p.Position, Stack: s.StackOf(id)}
		for _, o := range opts {
			if o.GoalIn {
				po.GoalInAvailable = true
				break
			}
		}
		out = append(out, po)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GoalInAvailable != out[j].GoalInAvailable {
			return out[i].GoalInAvailable
		}
		return out[i].ID < out[j].ID
	})
	return out
}
