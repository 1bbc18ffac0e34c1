package bot

import (
	"math/rand"

	"yutnori/internal/app"
	"yutnori/internal/bot/brain"
	botinternal "yutnori/internal/bot/internal"
	"yutnori/internal/domain"
)

// RandomBot picks uniformly among the legal choices.
type RandomBot struct {
	rng *rand.Rand
}

func (b *RandomBot) ChoosePiece(_ *domain.Game, legal []domain.PieceOption) (domain.PieceID, error) {
	if len(legal) == 0 {
		return 0, ErrNoChoice
	}
	return legal[b.rng.Intn(len(legal))].ID, nil
}

func (b *RandomBot) ChooseCell(_ *domain.Game, _ domain.PieceID, legal []domain.MoveOption) (domain.Cell, error) {
	if len(legal) == 0 {
		return 0, ErrNoChoice
	}
	return legal[b.rng.Intn(len(legal))].Destination, nil
}

func (b *RandomBot) OnEvent(app.Event) {}

// GreedyBot scores every reachable destination one move ahead and takes the best.
type GreedyBot struct {
	Memory *brain.GameMemory
	Tuning botinternal.BotTuning
}

func (b *GreedyBot) ChoosePiece(game *domain.Game, legal []domain.PieceOption) (domain.PieceID, error) {
	if len(legal) == 0 {
		return 0, ErrNoChoice
	}
	best := legal[0].ID
	bestScore := 0.0
	found := false
	for _, po := range legal {
		opts, err := domain.CellOptions(&game.Pieces, po.ID, game.Turn.Pending)
		if err != nil {
			continue
		}
		for _, opt := range opts {
			score := b.score(game, po.ID, opt)
			if !found || score > bestScore {
				best, bestScore, found = po.ID, score, true
			}
		}
	}
	return best, nil
}

func (b *GreedyBot) ChooseCell(game *domain.Game, piece domain.PieceID, legal []domain.MoveOption) (domain.Cell, error) {
	if len(legal) == 0 {
		return 0, ErrNoChoice
	}
	best := 0
	bestScore := b.score(game, piece, legal[0])
	for i := 1; i < len(legal); i++ {
		if score := b.score(game, piece, legal[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return legal[best].Destination, nil
}

func (b *GreedyBot) OnEvent(event app.Event) {
	if b.Memory != nil {
		b.Memory.Observe(event)
	}
}

func (b *GreedyBot) score(game *domain.Game, piece domain.PieceID, opt domain.MoveOption) float64 {
	team := piece.Team()
	weights := b.Tuning.ForPhase(botinternal.DetectPhase(game, team))

	odds := botinternal.FairOdds()
	aggression := 0.5
	if b.Memory != nil {
		odds = b.Memory.Odds()
		aggression = b.Memory.Opponent(team.Other()).Aggression()
	}
	// A team that rarely captures is less of a threat than the raw odds say.
	weights.DangerWeight *= 0.5 + aggression

	return botinternal.Score(botinternal.Evaluate(game, piece, opt, odds), weights)
}
