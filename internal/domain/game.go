package domain

// Phase represents the lifecycle stage of a match.
type Phase string

const (
	// PhaseLobby indicates the match is waiting for players.
	PhaseLobby Phase = "lobby"
	// PhasePlaying indicates a game is in progress.
	PhasePlaying Phase = "playing"
	// PhaseEnded indicates one team brought every piece home.
	PhaseEnded Phase = "ended"
)

// AwaitingKind names what the turn is suspended on.
type AwaitingKind string

const (
	AwaitingNone      AwaitingKind = "none"
	AwaitingThrowKind AwaitingKind = "throw"
	AwaitingPieceKind AwaitingKind = "piece"
	AwaitingCellKind  AwaitingKind = "cell"
)

// Awaiting is the input the turn is suspended on. A nil Awaiting means the game is over.
type Awaiting interface {
	Kind() AwaitingKind
}

// AwaitingThrow waits for the active team to throw the sticks.
type AwaitingThrow struct{}

// AwaitingPiece waits for the active team to pick one of Legal.
type AwaitingPiece struct {
	Legal []PieceOption
}

// AwaitingCell waits for the active team to pick a destination for Piece.
type AwaitingCell struct {
	Piece PieceID
	Legal []MoveOption
}

func (AwaitingThrow) Kind() AwaitingKind { return AwaitingThrowKind }
func (AwaitingPiece) Kind() AwaitingKind { return AwaitingPieceKind }
func (AwaitingCell) Kind() AwaitingKind  { return AwaitingCellKind }

// TurnState tracks the active team's progress through its turn.
type TurnState struct {
	ActiveTeam Team
	// Banked holds Yut/Mo results saved until a non-bonus throw resolves them.
	Banked []Outcome
	// Pending holds outcomes ready to be spent on moves.
	Pending []Outcome
	// ThrowsAvailable counts throws the active team may still make right now.
	ThrowsAvailable int
	// BonusThrows counts throws earned by captures and golden effects, granted once
	// the pending queue drains.
	BonusThrows int
	Awaiting    Awaiting
}

// Game is the authoritative state of one Yut game.
type Game struct {
	ID      string
	Phase   Phase
	Players [2]string // user id per team
	BaseBet int64

	Pieces     PieceStore
	GoldenCell Cell
	Turn       TurnState

	Winner    Team
	HasWinner bool
}

// NewGame returns a game with every piece waiting and TeamA holding one throw.
func NewGame(id string, players [2]string, baseBet int64) *Game {
	return &Game{
		ID:      id,
		Phase:   PhasePlaying,
		Players: players,
		BaseBet: baseBet,
		Pieces:  NewPieceStore(),
		Turn: TurnState{
			ActiveTeam:      TeamA,
			ThrowsAvailable: 1,
			Awaiting:        AwaitingThrow{},
		},
	}
}

// TeamOfUser returns the team seated by userID.
func (g *Game) TeamOfUser(userID string) (Team, bool) {
	for i, id := range g.Players {
		if id != "" && id == userID {
			return Team(i), true
		}
	}
	return TeamA, false
}

// UserOf returns the user seated for team.
func (g *Game) UserOf(team Team) string {
	if !team.Valid() {
		return ""
	}
	return g.Players[team]
}

// ActiveUser returns the user whose turn it is.
func (g *Game) ActiveUser() string { return g.UserOf(g.Turn.ActiveTeam) }
