package domain

// LabelPayload is the match label advertised to matchmaking.
type LabelPayload struct {
	Open    bool   `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	BaseBet int64  `json:"base_bet"`
}

// GameName is the label value used to find Yut matches.
const GameName = "yutnori"

// ComputeLabel derives the advertised label from the lobby phase and seats.
func ComputeLabel(phase Phase, seats *Seats, baseBet int64) LabelPayload {
	open := phase == PhaseLobby && CountOccupied(seats) < len(seats)
	return LabelPayload{Open: open, Game: GameName, Phase: string(phase), BaseBet: baseBet}
}
