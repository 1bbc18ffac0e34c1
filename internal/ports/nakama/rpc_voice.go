package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"yutnori/internal/app"
	"yutnori/internal/domain"
)

// gRPC status codes used by runtime errors.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeUnauthenticated    = 16
)

// voiceService is configured by InitModule; nil disables the RPC.
var voiceService *app.VoiceService

func newVoiceService(env map[string]string) *app.VoiceService {
	return app.NewVoiceService(env[envVoiceSecret], env[envVoiceIssuer], env[envVoiceDomain])
}

type voiceTokenRequest struct {
	Action  string `json:"action"`
	MatchID string `json:"match_id"`
}

// rpcVoiceToken returns a login token, or a join token for the caller's team channel in match_id.
func rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	if !voiceService.Configured() {
		return "", runtime.NewError("voice chat is not configured", codeFailedPrecondition)
	}

	req := voiceTokenRequest{Action: app.VoiceTokenActionLogin}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", codeInvalidArgument)
		}
	}

	channel := ""
	if req.Action == app.VoiceTokenActionJoin {
		if req.MatchID == "" {
			return "", runtime.NewError("match_id required for join", codeInvalidArgument)
		}
		letter, err := nk.MatchSignal(ctx, req.MatchID, "team:"+userID)
		if err != nil {
			logger.Warn("rpcVoiceToken [User:%s]: match %s not reachable: %v", userID, req.MatchID, err)
			return "", runtime.NewError("match not found", codeNotFound)
		}
		team, ok := parseTeam(letter)
		if !ok {
			return "", runtime.NewError("not seated in this match", codePermissionDenied)
		}
		channel = app.TeamChannel(req.MatchID, team)
	}

	token, err := voiceService.GenerateToken(userID, req.Action, channel)
	if err != nil {
		return "", runtime.NewError(err.Error(), codeInvalidArgument)
	}

	s, err := structpb.NewStruct(map[string]interface{}{"token": token, "channel": channel})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		logger.Error("rpcVoiceToken: Failed to marshal response: %v", err)
		return "", err
	}
	return string(b), nil
}

func parseTeam(letter string) (domain.Team, bool) {
	for _, t := range []domain.Team{domain.TeamA, domain.TeamB} {
		if t.String() == letter {
			return t, true
		}
	}
	return 0, false
}
