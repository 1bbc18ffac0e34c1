package bot

import botinternal "yutnori/internal/bot/internal"

const goalInBonus = 100.0

// DefaultTuning favors entering and spreading early, captures mid-game, and racing home late.
var DefaultTuning = botinternal.BotTuning{
	Opening: botinternal.PhaseWeights{
		GoalInWeight:   goalInBonus,
		CaptureWeight:  30,
		StackWeight:    4,
		ProgressWeight: 1.0,
		EnterWeight:    6,
		DangerWeight:   10,
		GoldenWeight:   8,
		ReadyWeight:    5,
	},
	Mid: botinternal.PhaseWeights{
		GoalInWeight:   goalInBonus,
		CaptureWeight:  40,
		StackWeight:    8,
		ProgressWeight: 1.2,
		EnterWeight:    3,
		DangerWeight:   20,
		GoldenWeight:   6,
		ReadyWeight:    10,
	},
	End: botinternal.PhaseWeights{
		GoalInWeight:   goalInBonus * 1.5,
		CaptureWeight:  50,
		StackWeight:    10,
		ProgressWeight: 2.0,
		EnterWeight:    1,
		DangerWeight:   25,
		GoldenWeight:   3,
		ReadyWeight:    20,
	},
}
