package brain

import "yutnori/internal/domain"

// OpponentProfile tracks the behavioral history of one team.
type OpponentProfile struct {
	Team     domain.Team
	Moves    int
	Captures int
	Stacks   int
	GoalIns  int
}

// NewOpponentProfile initializes a profile for a specific team.
func NewOpponentProfile(team domain.Team) *OpponentProfile {
	return &OpponentProfile{Team: team}
}

// RecordMove logs one move made by this team.
func (p *OpponentProfile) RecordMove(res domain.MoveResult) {
	p.Moves++
	if len(res.Captured) > 0 {
		p.Captures++
	}
	if len(res.StackedWith) > 0 {
		p.Stacks++
	}
	if len(res.Finished) > 0 {
		p.GoalIns++
	}
}

// Aggression is the share of moves that captured, 0.5 until the team has moved.
func (p *OpponentProfile) Aggression() float64 {
	if p == nil || p.Moves == 0 {
		return 0.5
	}
	return float64(p.Captures) / float64(p.Moves)
}
