package brain

import (
	"yutnori/internal/app"
	botinternal "yutnori/internal/bot/internal"
	"yutnori/internal/domain"
)

// priorWeight is how many throws the theoretical odds are worth against observed ones.
const priorWeight = 32.0

// GameMemory stores the bot's private view of the game.
type GameMemory struct {
	// Throws counts resolved throws per outcome, Nak excluded.
	Throws map[domain.Outcome]int
	total  int
	// Opponents tracks behavioral profiles by team.
	Opponents map[domain.Team]*OpponentProfile
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{
		Throws:    make(map[domain.Outcome]int),
		Opponents: make(map[domain.Team]*OpponentProfile),
	}
}

// Reset clears the memory for a new game. Throw statistics survive since the sticks do.
func (m *GameMemory) Reset() {
	for team := range m.Opponents {
		m.Opponents[team] = NewOpponentProfile(team)
	}
}

// Observe folds an emitted game event into memory.
func (m *GameMemory) Observe(event app.Event) {
	switch p := event.Payload.(type) {
	case app.GameStartedPayload:
		m.Reset()
	case app.ThrowResolvedPayload:
		m.RecordThrow(p.Outcome)
	case app.PieceMovedPayload:
		m.profile(p.Result.Team).RecordMove(p.Result)
	}
}

// RecordThrow counts one resolved throw.
func (m *GameMemory) RecordThrow(o domain.Outcome) {
	if !o.Valid() || o == domain.OutcomeNak {
		return
	}
	m.Throws[o]++
	m.total++
}

// ThrowCount returns how many throws have been observed, Nak excluded.
func (m *GameMemory) ThrowCount() int { return m.total }

// Odds blends the observed throw frequencies with the fair stick odds.
func (m *GameMemory) Odds() botinternal.Odds {
	fair := botinternal.FairOdds()
	out := make(botinternal.Odds, len(fair))
	for o, p := range fair {
		out[o] = (float64(m.Throws[o]) + priorWeight*p) / (float64(m.total) + priorWeight)
	}
	return out
}

// Opponent returns the profile of team, nil when it has never moved.
func (m *GameMemory) Opponent(team domain.Team) *OpponentProfile {
	return m.Opponents[team]
}

func (m *GameMemory) profile(team domain.Team) *OpponentProfile {
	p, ok := m.Opponents[team]
	if !ok {
		p = NewOpponentProfile(team)
		m.Opponents[team] = p
	}
	return p
}
