package internal

import "yutnori/internal/domain"

// GamePhase describes the current strategic stage of a game for one team.
type GamePhase int

const (
	// PhaseOpening indicates the team has not brought any piece onto the board yet.
	PhaseOpening GamePhase = iota
	// PhaseMid indicates no one has reached the endgame threshold yet.
	PhaseMid
	// PhaseEnd indicates either team is close to bringing every piece home.
	PhaseEnd
)

// endgameDistance is the total remaining distance under which a team is racing to finish.
const endgameDistance = 12

// DetectPhase infers the phase from piece positions as seen by team.
func DetectPhase(game *domain.Game, team domain.Team) GamePhase {
	if game == nil {
		return PhaseMid
	}
	for _, t := range []domain.Team{team, team.Other()} {
		if game.Pieces.FinishedCount(t) >= domain.PiecesPerTeam-1 || TeamDistance(&game.Pieces, t) <= endgameDistance {
			return PhaseEnd
		}
	}
	for _, id := range domain.TeamPieces(team) {
		if p, _ := game.Pieces.Piece(id); p.Position != domain.Waiting {
			return PhaseMid
		}
	}
	return PhaseOpening
}

// TeamDistance sums the remaining distance of every piece of team.
func TeamDistance(s *domain.PieceStore, team domain.Team) int {
	total := 0
	for _, id := range domain.TeamPieces(team) {
		p, _ := s.Piece(id)
		total += Distance(p)
	}
	return total
}

// Distance counts the steps a piece still needs to finish. A goal-ready piece on Home
// needs one more move; a waiting piece needs one step to enter.
func Distance(p domain.Piece) int {
	switch {
	case p.Finished():
		return 0
	case p.Position == domain.Home && p.GoalReady:
		return 1
	case p.Position == domain.Waiting:
		return 1 + Distance(domain.Piece{ID: p.ID, Position: domain.Home})
	}
	res := domain.SimulatePath(p.Position, 4*domain.TrackCells)
	return res.StepsUsedToHome + 1
}
