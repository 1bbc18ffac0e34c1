package internal

import "yutnori/internal/domain"

// Odds maps each throw outcome to its probability.
type Odds map[domain.Outcome]float64

// FairOdds are the outcome probabilities of four fair sticks with one marked stick.
func FairOdds() Odds {
	return Odds{
		domain.OutcomeBackDo: 1.0 / 16,
		domain.OutcomeDo:     3.0 / 16,
		domain.OutcomeGae:    6.0 / 16,
		domain.OutcomeGeol:   4.0 / 16,
		domain.OutcomeYut:    1.0 / 16,
		domain.OutcomeMo:     1.0 / 16,
	}
}

// Evaluate plays opt for piece on a copy of the board and describes the result.
func Evaluate(game *domain.Game, piece domain.PieceID, opt domain.MoveOption, odds Odds) MoveFeatures {
	before, err := game.Pieces.Piece(piece)
	if err != nil {
		return MoveFeatures{}
	}
	board := game.Pieces // PieceStore is a value; this is a private copy.
	res, err := board.ApplyMove(piece, opt)
	if err != nil {
		return MoveFeatures{}
	}

	f := MoveFeatures{
		Finished: len(res.Finished),
		Captured: len(res.Captured),
		Stacked:  len(res.StackedWith),
		Movers:   len(res.Moved),
		Entered:  before.Position == domain.Waiting,
		Golden:   !opt.GoalIn && res.To == game.GoldenCell,
		Ready:    res.To == domain.Home && opt.ArrivesReady && !opt.GoalIn,
	}
	after, _ := board.Piece(piece)
	f.Progress = Distance(before) - Distance(after)
	if res.To.OnTrack() {
		f.Danger = ThreatChance(&board, res.To, before.Team().Other(), odds) * float64(f.Movers+f.Stacked)
	}
	return f
}

// ThreatChance estimates how likely attacker is to land on cell with its next throw.
func ThreatChance(board *domain.PieceStore, cell domain.Cell, attacker domain.Team, odds Odds) float64 {
	hit := make(map[domain.Outcome]bool)
	seen := make(map[domain.Cell]bool)
	for _, id := range domain.TeamPieces(attacker) {
		p, _ := board.Piece(id)
		if p.Finished() || seen[p.Position] {
			continue
		}
		seen[p.Position] = true
		for o := range odds {
			if hit[o] {
				continue
			}
			for _, opt := range domain.MoveOptions(p, o) {
				if opt.Destination == cell && !opt.GoalIn {
					hit[o] = true
					break
				}
			}
		}
	}
	chance := 0.0
	for o := range hit {
		chance += odds[o]
	}
	if chance > 1 {
		chance = 1
	}
	return chance
}
