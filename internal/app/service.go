package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"yutnori/internal/domain"
)

// Service contains Yut turn use-cases operating on domain state.
type Service struct {
	rng           *rand.Rand
	goldenWeights map[domain.GoldenEffect]int
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng, goldenWeights: DefaultGoldenWeights()}
}

// DefaultGoldenWeights draws the three golden effects evenly.
func DefaultGoldenWeights() map[domain.GoldenEffect]int {
	return map[domain.GoldenEffect]int{
		domain.GoldenBonusThrow: 1,
		domain.GoldenFreeDo:     1,
		domain.GoldenFreeGae:    1,
	}
}

// SetGoldenWeights replaces the golden effect weights. Empty weights keep the defaults.
func (s *Service) SetGoldenWeights(w map[domain.GoldenEffect]int) {
	if len(w) == 0 {
		return
	}
	s.goldenWeights = w
}

var (
	ErrPieceNotSelectable   = errors.New("piece not selectable")
	ErrCellNotSelectable    = errors.New("cell not selectable")
	ErrNotAwaitingSelection = errors.New("not awaiting that selection")
	ErrNotAwaitingThrow     = errors.New("not awaiting a throw")
	ErrEmptyPendingQueue    = errors.New("no pending outcome to resolve")
	ErrGameOver             = errors.New("game is over")
	ErrTooFewPlayers        = errors.New("not enough players to start")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrInvalidOutcome       = errors.New("invalid throw outcome")
)

// StartGame creates a game for the two seated users. TeamA moves first.
func (s *Service) StartGame(players [2]string, baseBet int64) (*domain.Game, []Event, error) {
	if players[0] == "" || players[1] == "" || players[0] == players[1] {
		return nil, nil, ErrTooFewPlayers
	}
	game := domain.NewGame(uuid.NewString(), players, baseBet)
	game.GoldenCell = domain.RollGoldenCell(s.rng, &game.Pieces)

	events := []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:     game.ID,
			Players:    game.Players,
			ActiveTeam: game.Turn.ActiveTeam,
			GoldenCell: game.GoldenCell,
			BaseBet:    baseBet,
		},
	}}
	events = append(events, awaitingEvent(game))
	return game, events, nil
}

// SubmitThrow resolves one throw for team. isBackDo marks a Do thrown with the marked
// stick face up, which moves backward instead.
func (s *Service) SubmitThrow(game *domain.Game, team domain.Team, outcome domain.Outcome, isBackDo bool) ([]Event, error) {
	if err := checkActor(game, team); err != nil {
		return nil, err
	}
	if _, ok := game.Turn.Awaiting.(domain.AwaitingThrow); !ok || game.Turn.ThrowsAvailable <= 0 {
		return nil, ErrNotAwaitingThrow
	}
	if isBackDo {
		if outcome != domain.OutcomeDo && outcome != domain.OutcomeBackDo {
			return nil, ErrInvalidOutcome
		}
		outcome = domain.OutcomeBackDo
	}
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	t := &game.Turn
	t.ThrowsAvailable--
	t.Awaiting = nil

	var events []Event
	switch {
	case outcome.GrantsThrow():
		t.Banked = append(t.Banked, outcome)
		t.ThrowsAvailable++
	case outcome == domain.OutcomeNak:
		t.Pending = append(t.Pending, t.Banked...)
		t.Banked = nil
	default:
		t.Pending = append(t.Pending, t.Banked...)
		t.Pending = append(t.Pending, outcome)
		t.Banked = nil
	}

	events = append(events, Event{
		Kind: EventThrowResolved,
		Payload: ThrowResolvedPayload{
			Team:    team,
			Outcome: outcome,
			Banked:  append([]domain.Outcome(nil), t.Banked...),
			Pending: append([]domain.Outcome(nil), t.Pending...),
		},
	})
	if outcome.GrantsThrow() {
		events = append(events, Event{
			Kind:    EventBonusThrow,
			Payload: BonusThrowPayload{Team: team, Reason: BonusReasonYutMo},
		})
	}

	events = append(events, s.advance(game)...)
	events = append(events, awaitingEvent(game))
	return events, nil
}

// SelectPiece answers a piece selection for team.
func (s *Service) SelectPiece(game *domain.Game, team domain.Team, id domain.PieceID) ([]Event, error) {
	if err := checkActor(game, team); err != nil {
		return nil, err
	}
	await, ok := game.Turn.Awaiting.(domain.AwaitingPiece)
	if !ok {
		return nil, ErrNotAwaitingSelection
	}
	if !id.Valid() {
		return nil, domain.ErrInvalidPieceID
	}
	if !containsPieceOption(await.Legal, id) {
		return nil, ErrPieceNotSelectable
	}
	opts, err := domain.CellOptions(&game.Pieces, id, game.Turn.Pending)
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return nil, ErrPieceNotSelectable
	}

	game.Turn.Awaiting = domain.AwaitingCell{Piece: id, Legal: opts}
	events := []Event{
		{
			Kind: EventPieceSelected,
			Payload: PieceSelectedPayload{
				Team:  team,
				Piece: id,
				Stack: game.Pieces.StackOf(id),
				Legal: opts,
			},
		},
		awaitingEvent(game),
	}
	return events, nil
}

// SelectCell answers a destination selection for team and applies the move.
func (s *Service) SelectCell(game *domain.Game, team domain.Team, cell domain.Cell) ([]Event, error) {
	if err := checkActor(game, team); err != nil {
		return nil, err
	}
	await, ok := game.Turn.Awaiting.(domain.AwaitingCell)
	if !ok {
		return nil, ErrNotAwaitingSelection
	}
	if !cell.OnTrack() && cell != domain.Finished {
		return nil, domain.ErrInvalidCellID
	}
	opt, ok := findMoveOption(await.Legal, cell)
	if !ok {
		return nil, ErrCellNotSelectable
	}
	idx := indexOfOutcome(game.Turn.Pending, opt.Outcome)
	if idx < 0 {
		return nil, ErrEmptyPendingQueue
	}

	res, err := game.Pieces.ApplyMove(await.Piece, opt)
	if err != nil {
		return nil, fmt.Errorf("apply move: %w", err)
	}
	t := &game.Turn
	t.Pending = append(t.Pending[:idx:idx], t.Pending[idx+1:]...)
	t.Awaiting = nil

	events := []Event{{
		Kind:    EventPieceMoved,
		Payload: PieceMovedPayload{Outcome: opt.Outcome, GoalIn: opt.GoalIn, Result: res},
	}}

	if len(res.Captured) > 0 {
		events = append(events, Event{
			Kind:    EventCapture,
			Payload: CapturePayload{CapturedIDs: res.Captured, ByTeam: team, Cell: res.To},
		})
		if opt.Outcome.GrantsCaptureBonus() {
			t.BonusThrows++
			events = append(events, Event{
				Kind:    EventBonusThrow,
				Payload: BonusThrowPayload{Team: team, Reason: BonusReasonCapture},
			})
		}
	}
	if len(res.StackedWith) > 0 {
		events = append(events, Event{
			Kind:    EventStacked,
			Payload: StackedPayload{Team: team, Cell: res.To, Stack: game.Pieces.StackAt(res.To, team)},
		})
	}
	if len(res.Finished) > 0 {
		events = append(events, Event{
			Kind: EventGoalIn,
			Payload: GoalInPayload{
				PieceIDs:         res.Finished,
				Team:             team,
				NewFinishedCount: game.Pieces.FinishedCount(team),
			},
		})
	}

	if !opt.GoalIn && res.To == game.GoldenCell {
		events = append(events, s.applyGolden(game, await.Piece, team)...)
	}

	if game.Pieces.AllFinished(team) {
		events = append(events, s.endGame(game, team))
		return events, nil
	}

	events = append(events, s.advance(game)...)
	events = append(events, awaitingEvent(game))
	return events, nil
}

// LegalPieces returns the pieces the active team may select now.
func (s *Service) LegalPieces(game *domain.Game) []domain.PieceOption {
	if await, ok := game.Turn.Awaiting.(domain.AwaitingPiece); ok {
		return append([]domain.PieceOption(nil), await.Legal...)
	}
	return nil
}

// LegalCells returns the destinations open to id for the pending outcomes.
func (s *Service) LegalCells(game *domain.Game, id domain.PieceID) ([]domain.MoveOption, error) {
	if !id.Valid() {
		return nil, domain.ErrInvalidPieceID
	}
	switch await := game.Turn.Awaiting.(type) {
	case domain.AwaitingCell:
		if await.Piece != id {
			return nil, ErrPieceNotSelectable
		}
		return append([]domain.MoveOption(nil), await.Legal...), nil
	case domain.AwaitingPiece:
		if !containsPieceOption(await.Legal, id) {
			return nil, ErrPieceNotSelectable
		}
		return domain.CellOptions(&game.Pieces, id, game.Turn.Pending)
	default:
		return nil, ErrNotAwaitingSelection
	}
}

// Snapshot returns the renderable state of game.
func (s *Service) Snapshot(game *domain.Game) domain.Snapshot {
	return game.Snapshot()
}

// advance moves the turn to its next suspension point, handing over when nothing is left.
func (s *Service) advance(game *domain.Game) []Event {
	var events []Event
	t := &game.Turn
	for {
		if len(t.Pending) > 0 {
			legal := domain.PieceOptions(&game.Pieces, t.ActiveTeam, t.Pending)
			if len(legal) > 0 {
				t.Awaiting = domain.AwaitingPiece{Legal: legal}
				return events
			}
			events = append(events, Event{
				Kind: EventOutcomeForfeited,
				Payload: OutcomeForfeitedPayload{
					Team:     t.ActiveTeam,
					Outcomes: append([]domain.Outcome(nil), t.Pending...),
				},
			})
			t.Pending = nil
			continue
		}
		if t.ThrowsAvailable > 0 {
			t.Awaiting = domain.AwaitingThrow{}
			return events
		}
		if t.BonusThrows > 0 {
			t.ThrowsAvailable += t.BonusThrows
			t.BonusThrows = 0
			t.Awaiting = domain.AwaitingThrow{}
			return events
		}
		return append(events, endTurn(game))
	}
}

func (s *Service) applyGolden(game *domain.Game, piece domain.PieceID, team domain.Team) []Event {
	cell := game.GoldenCell
	effect := domain.PickGoldenEffect(s.rng, s.goldenWeights)
	var events []Event
	switch effect {
	case domain.GoldenBonusThrow:
		game.Turn.BonusThrows++
		events = append(events, Event{
			Kind:    EventBonusThrow,
			Payload: BonusThrowPayload{Team: team, Reason: BonusReasonGolden},
		})
	case domain.GoldenFreeDo:
		game.Turn.Pending = append(game.Turn.Pending, domain.OutcomeDo)
	case domain.GoldenFreeGae:
		game.Turn.Pending = append(game.Turn.Pending, domain.OutcomeGae)
	}
	game.GoldenCell = domain.RollGoldenCell(s.rng, &game.Pieces)
	bonus := Event{
		Kind: EventGoldenBonus,
		Payload: GoldenBonusPayload{
			PieceID:       piece,
			Team:          team,
			Effect:        effect,
			Cell:          cell,
			NewGoldenCell: game.GoldenCell,
		},
	}
	return append([]Event{bonus}, events...)
}

func (s *Service) endGame(game *domain.Game, winner domain.Team) Event {
	game.Phase = domain.PhaseEnded
	game.Winner = winner
	game.HasWinner = true
	game.Turn.Awaiting = nil
	game.Turn.Pending = nil
	game.Turn.Banked = nil
	game.Turn.ThrowsAvailable = 0
	game.Turn.BonusThrows = 0

	settlement := game.CalculateSettlement()
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			Winner:         winner,
			WinnerUserID:   game.UserOf(winner),
			FinishedCount:  [2]int{game.Pieces.FinishedCount(domain.TeamA), game.Pieces.FinishedCount(domain.TeamB)},
			BalanceChanges: settlement.BalanceChanges,
			Shutout:        settlement.Shutout,
		},
	}
}

func endTurn(game *domain.Game) Event {
	prev := game.Turn.ActiveTeam
	game.Turn = domain.TurnState{
		ActiveTeam:      prev.Other(),
		ThrowsAvailable: 1,
		Awaiting:        domain.AwaitingThrow{},
	}
	return Event{
		Kind: EventTurnEnd,
		Payload: TurnEndPayload{
			PreviousTeam:   prev,
			NextTeam:       game.Turn.ActiveTeam,
			NextTurnUserID: game.ActiveUser(),
		},
	}
}

func awaitingEvent(game *domain.Game) Event {
	t := game.Turn
	p := AwaitingPayload{
		Team:            t.ActiveTeam,
		UserID:          game.ActiveUser(),
		Kind:            domain.AwaitingNone,
		ThrowsAvailable: t.ThrowsAvailable,
		Pending:         append([]domain.Outcome(nil), t.Pending...),
	}
	switch a := t.Awaiting.(type) {
	case domain.AwaitingThrow:
		p.Kind = a.Kind()
	case domain.AwaitingPiece:
		p.Kind = a.Kind()
		p.LegalPieces = a.Legal
	case domain.AwaitingCell:
		p.Kind = a.Kind()
		id := a.Piece
		p.Piece = &id
		p.LegalCells = a.Legal
	}
	return Event{Kind: EventAwaiting, Payload: p}
}

func checkActor(game *domain.Game, team domain.Team) error {
	if game.Phase != domain.PhasePlaying {
		return ErrGameOver
	}
	if team != game.Turn.ActiveTeam {
		return ErrNotYourTurn
	}
	return nil
}

func containsPieceOption(opts []domain.PieceOption, id domain.PieceID) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

func findMoveOption(opts []domain.MoveOption, cell domain.Cell) (domain.MoveOption, bool) {
	for _, o := range opts {
		if o.Destination == cell {
			return o, true
		}
	}
	return domain.MoveOption{}, false
}

func indexOfOutcome(pending []domain.Outcome, o domain.Outcome) int {
	for i, p := range pending {
		if p == o {
			return i
		}
	}
	return -1
}
