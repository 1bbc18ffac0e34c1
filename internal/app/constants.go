package app

// MinPlayersToStartGame is the number of occupied team seats a game needs.
const MinPlayersToStartGame = 2

// DefaultBaseBet is used when no bet tier is configured.
const DefaultBaseBet int64 = 100
