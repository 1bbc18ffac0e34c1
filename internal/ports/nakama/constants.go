package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcVoiceToken issues voice tokens for the caller's team channel.
	RpcVoiceToken = "voice_token"

	// MatchNameYut is the authoritative match handler name registered with Nakama.
	MatchNameYut = "yut_match"
)

// Runtime env keys.
const (
	envBotsEnabled      = "yut_bots_enabled"
	envBotMinDelay      = "yut_bot_min_delay_sec"
	envBotMaxDelay      = "yut_bot_max_delay_sec"
	envBotAutoFillDelay = "yut_bot_auto_fill_delay_sec"
	envVoiceSecret      = "yut_vivox_secret"
	envVoiceIssuer      = "yut_vivox_issuer"
	envVoiceDomain      = "yut_vivox_domain"
)

// Data files shipped next to the plugin.
const (
	gameConfigPath    = "data/game_config.json"
	botIdentitiesPath = "data/bot_identities.json"
)

// Error codes carried by OpCodeError messages.
const (
	errCodeBadRequest = 400
	errCodeForbidden  = 403
	errCodeConflict   = 409
	errCodeInternal   = 500
)
