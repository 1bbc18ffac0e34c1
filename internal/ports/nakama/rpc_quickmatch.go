package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"yutnori/internal/config"
	"yutnori/internal/domain"
)

// QuickMatchRequest optionally names the bet tier to play at.
type QuickMatchRequest struct {
	Tier string `json:"tier"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcVoiceToken, rpcVoiceToken)
}

// quickMatchQuery finds open Yut lobbies at the requested stake.
func quickMatchQuery(baseBet int64) string {
	return fmt.Sprintf("+label.open:T +label.game:%s +label.phase:%s +label.base_bet:>=%d +label.base_bet:<=%d",
		domain.GameName, domain.PhaseLobby, baseBet, baseBet)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req QuickMatchRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid quick match payload", 3) // INVALID_ARGUMENT
		}
	}
	baseBet := config.GetBaseBet(req.Tier)

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := len(domain.Seats{}) - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery(baseBet))
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", err
	}

	if len(matches) > 0 {
		logger.Info("rpcQuickMatch [User:%s]: Found existing match %s", userID, matches[0].MatchId)
		return quickMatchResponse(matches[0].MatchId, false, baseBet)
	}

	// Seat and owner assignment happen in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameYut, map[string]interface{}{"tier": req.Tier})
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchCreate error: %v", userID, err)
		return "", err
	}
	logger.Info("rpcQuickMatch [User:%s]: Created new match %s", userID, matchID)
	return quickMatchResponse(matchID, true, baseBet)
}

func quickMatchResponse(matchID string, isNew bool, baseBet int64) (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"match_id": matchID,
		"is_new":   isNew,
		"base_bet": baseBet,
	})
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
