package app

import "yutnori/internal/domain"

// EventKind identifies emitted domain events for dispatch.
type EventKind string

const (
	EventPlayerJoined     EventKind = "player_joined"
	EventPlayerLeft       EventKind = "player_left"
	EventGameStarted      EventKind = "game_started"
	EventThrowResolved    EventKind = "throw_resolved"
	EventPieceSelected    EventKind = "piece_selected"
	EventPieceMoved       EventKind = "piece_moved"
	EventCapture          EventKind = "capture"
	EventStacked          EventKind = "stacked"
	EventGoalIn           EventKind = "goal_in"
	EventGoldenBonus      EventKind = "golden_bonus"
	EventBonusThrow       EventKind = "bonus_throw"
	EventOutcomeForfeited EventKind = "outcome_forfeited"
	EventTurnEnd          EventKind = "turn_end"
	EventGameEnded        EventKind = "game_ended"
	EventAwaiting         EventKind = "awaiting"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string
	Seat   int
}

type PlayerLeftPayload struct {
	UserID string
}

type GameStartedPayload struct {
	GameID     string
	Players    [2]string
	ActiveTeam domain.Team
	GoldenCell domain.Cell
	BaseBet    int64
}

type ThrowResolvedPayload struct {
	Team    domain.Team
	Outcome domain.Outcome
	Banked  []domain.Outcome
	Pending []domain.Outcome
}

type PieceSelectedPayload struct {
	Team  domain.Team
	Piece domain.PieceID
	Stack []domain.PieceID
	Legal []domain.MoveOption
}

type PieceMovedPayload struct {
	Outcome domain.Outcome
	GoalIn  bool
	Result  domain.MoveResult
}

type CapturePayload struct {
	CapturedIDs []domain.PieceID
	ByTeam      domain.Team
	Cell        domain.Cell
}

type StackedPayload struct {
	Team  domain.Team
	Cell  domain.Cell
	Stack []domain.PieceID
}

type GoalInPayload struct {
	PieceIDs         []domain.PieceID
	Team             domain.Team
	NewFinishedCount int
}

type GoldenBonusPayload struct {
	PieceID       domain.PieceID
	Team          domain.Team
	Effect        domain.GoldenEffect
	Cell          domain.Cell
	NewGoldenCell domain.Cell
}

// BonusThrowReason explains where an extra throw came from.
type BonusThrowReason string

const (
	BonusReasonYutMo   BonusThrowReason = "yut_mo"
	BonusReasonCapture BonusThrowReason = "capture"
	BonusReasonGolden  BonusThrowReason = "golden"
)

type BonusThrowPayload struct {
	Team   domain.Team
	Reason BonusThrowReason
}

type OutcomeForfeitedPayload struct {
	Team     domain.Team
	Outcomes []domain.Outcome
}

type TurnEndPayload struct {
	PreviousTeam   domain.Team
	NextTeam       domain.Team
	NextTurnUserID string
}

type GameEndedPayload struct {
	Winner         domain.Team
	WinnerUserID   string
	FinishedCount  [2]int
	BalanceChanges map[string]int64
	Shutout        bool
}

type AwaitingPayload struct {
	Team            domain.Team
	UserID          string
	Kind            domain.AwaitingKind
	Piece           *domain.PieceID
	LegalPieces     []domain.PieceOption
	LegalCells      []domain.MoveOption
	ThrowsAvailable int
	Pending         []domain.Outcome
}
