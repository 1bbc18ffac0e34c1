package internal

// PhaseWeights tune move scoring for a specific phase.
type PhaseWeights struct {
	GoalInWeight   float64 // per finished piece
	CaptureWeight  float64 // per captured enemy piece
	StackWeight    float64 // per own piece joined
	ProgressWeight float64 // per step of distance removed, per moving piece
	EnterWeight    float64 // bringing a waiting piece onto the board
	DangerWeight   float64 // per piece, scaled by the chance of being caught next turn
	GoldenWeight   float64 // landing on the golden cell
	ReadyWeight    float64 // resting on Home ready to finish
}

// BotTuning defines phase weights for a bot.
type BotTuning struct {
	Opening PhaseWeights
	Mid     PhaseWeights
	End     PhaseWeights
}

// ForPhase returns the weights that match the supplied phase.
func (t BotTuning) ForPhase(phase GamePhase) PhaseWeights {
	switch phase {
	case PhaseOpening:
		return t.Opening
	case PhaseEnd:
		return t.End
	default:
		return t.Mid
	}
}

// MoveFeatures describes what a candidate move would do.
type MoveFeatures struct {
	Finished int
	Captured int
	Stacked  int
	Movers   int
	Progress int
	Entered  bool
	Danger   float64
	Golden   bool
	Ready    bool
}

// Score weighs the features of a move.
func Score(f MoveFeatures, w PhaseWeights) float64 {
	score := w.GoalInWeight*float64(f.Finished) +
		w.CaptureWeight*float64(f.Captured) +
		w.StackWeight*float64(f.Stacked) +
		w.ProgressWeight*float64(f.Progress*f.Movers) -
		w.DangerWeight*f.Danger
	if f.Entered {
		score += w.EnterWeight
	}
	if f.Golden {
		score += w.GoldenWeight
	}
	if f.Ready {
		score += w.ReadyWeight
	}
	return score
}
