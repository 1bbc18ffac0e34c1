package domain

// Client -> server op codes.
const (
	OpCodeStartGame      int64 = 1
	OpCodeThrow          int64 = 2
	OpCodeSelectPiece    int64 = 3
	OpCodeSelectCell     int64 = 4
	OpCodeRequestNewGame int64 = 5
)

// Server -> client op codes.
const (
	OpCodeMatchStarted     int64 = 100
	OpCodeThrowResolved    int64 = 101
	OpCodePieceSelected    int64 = 102
	OpCodePieceMoved       int64 = 103
	OpCodeCapture          int64 = 104
	OpCodeStacked          int64 = 105
	OpCodeGoalIn           int64 = 106
	OpCodeGoldenBonus      int64 = 107
	OpCodeBonusThrow       int64 = 108
	OpCodeOutcomeForfeited int64 = 109
	OpCodeTurnEnd          int64 = 110
	OpCodeGameEnded        int64 = 111
	OpCodeAwaiting         int64 = 112
	OpCodeSnapshot         int64 = 113
	OpCodePlayerJoined     int64 = 114
	OpCodePlayerLeft       int64 = 115
	OpCodeError            int64 = 199
)
