package domain

// PieceView is the rendered state of a piece.
type PieceView struct {
	ID        PieceID `json:"id"`
	Team      Team    `json:"team"`
	Cell      Cell    `json:"cell"`
	Label     string  `json:"label"`
	Finished  bool    `json:"finished"`
	GoalReady bool    `json:"goalReady"`
}

// Snapshot is a read-only copy of a game for rendering.
type Snapshot struct {
	GameID          string        `json:"gameId"`
	Phase           Phase         `json:"phase"`
	Players         [2]string     `json:"players"`
	Pieces          []PieceView   `json:"pieces"`
	GoldenCell      Cell          `json:"goldenCell"`
	ActiveTeam      Team          `json:"activeTeam"`
	BonusThrows     int           `json:"bonusThrows"`
	ThrowsAvailable int           `json:"throwsAvailable"`
	Banked          []Outcome     `json:"banked"`
	Pending         []Outcome     `json:"pending"`
	FinishedCount   [2]int        `json:"finishedCount"`
	Awaiting        AwaitingKind  `json:"awaiting"`
	SelectedPiece   *PieceID      `json:"selectedPiece,omitempty"`
	LegalPieces     []PieceOption `json:"legalPieces,omitempty"`
	LegalCells      []MoveOption  `json:"legalCells,omitempty"`
	Winner          *Team         `json:"winner,omitempty"`
}

// Snapshot copies the renderable state of g.
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		GameID:          g.ID,
		Phase:           g.Phase,
		Players:         g.Players,
		GoldenCell:      g.GoldenCell,
		ActiveTeam:      g.Turn.ActiveTeam,
		BonusThrows:     g.Turn.BonusThrows,
		ThrowsAvailable: g.Turn.ThrowsAvailable,
		Banked:          append([]Outcome{}, g.Turn.Banked...),
		Pending:         append([]Outcome{}, g.Turn.Pending...),
		FinishedCount:   [2]int{g.Pieces.FinishedCount(TeamA), g.Pieces.FinishedCount(TeamB)},
		Awaiting:        AwaitingNone,
	}
	for _, p := range g.Pieces.All() {
		snap.Pieces = append(snap.Pieces, PieceView{
			ID:        p.ID,
			Team:      p.Team(),
			Cell:      p.Position,
			Label:     p.Position.Label(),
			Finished:  p.Finished(),
			GoalReady: p.GoalReady,
		})
	}
	switch a := g.Turn.Awaiting.(type) {
	case AwaitingThrow:
		snap.Awaiting = a.Kind()
	case AwaitingPiece:
		snap.Awaiting = a.Kind()
		snap.LegalPieces = append([]PieceOption(nil), a.Legal...)
	case AwaitingCell:
		snap.Awaiting = a.Kind()
		id := a.Piece
		snap.SelectedPiece = &id
		snap.LegalCells = append([]MoveOption(nil), a.Legal...)
	}
	if g.HasWinner {
		w := g.Winner
		snap.Winner = &w
	}
	return snap
}
