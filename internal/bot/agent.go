package bot

import (
	"errors"

	"yutnori/internal/app"
	"yutnori/internal/domain"
)

// ErrNoChoice is returned when a decision is requested with nothing to choose from.
var ErrNoChoice = errors.New("bot: no legal choice")

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Play asks the agent for its next action based on the current game state.
// It waits when the game is over or another team is acting.
func (a *Agent) Play(game *domain.Game) (Move, error) {
	if game == nil || game.Phase != domain.PhasePlaying {
		return Move{Action: ActionWait}, nil
	}
	team, ok := game.TeamOfUser(a.ID)
	if !ok || team != game.Turn.ActiveTeam {
		return Move{Action: ActionWait}, nil
	}

	switch await := game.Turn.Awaiting.(type) {
	case domain.AwaitingThrow:
		return Move{Action: ActionThrow}, nil
	case domain.AwaitingPiece:
		if len(await.Legal) == 0 {
			return Move{Action: ActionWait}, ErrNoChoice
		}
		id, err := a.Strategy.ChoosePiece(game, await.Legal)
		if err != nil {
			return Move{Action: ActionSelectPiece, Piece: await.Legal[0].ID}, err
		}
		return Move{Action: ActionSelectPiece, Piece: id}, nil
	case domain.AwaitingCell:
		if len(await.Legal) == 0 {
			return Move{Action: ActionWait}, ErrNoChoice
		}
		cell, err := a.Strategy.ChooseCell(game, await.Piece, await.Legal)
		if err != nil {
			return Move{Action: ActionSelectCell, Cell: await.Legal[0].Destination}, err
		}
		return Move{Action: ActionSelectCell, Cell: cell}, nil
	default:
		return Move{Action: ActionWait}, nil
	}
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event app.Event) {
	a.Strategy.OnEvent(event)
}
