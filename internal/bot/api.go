package bot

import (
	"yutnori/internal/app"
	"yutnori/internal/domain"
)

// Action is what the bot wants to do next.
type Action int

const (
	ActionWait Action = iota
	ActionThrow
	ActionSelectPiece
	ActionSelectCell
)

// Move represents the decision made by the AI.
type Move struct {
	Action Action
	Piece  domain.PieceID
	Cell   domain.Cell
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	ChoosePiece(game *domain.Game, legal []domain.PieceOption) (domain.PieceID, error)
	ChooseCell(game *domain.Game, piece domain.PieceID, legal []domain.MoveOption) (domain.Cell, error)
	OnEvent(event app.Event)
}
