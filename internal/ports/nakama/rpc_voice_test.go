package nakama

import (
	"context"
	"errors"
	"testing"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"yutnori/internal/app"
)

// signalNakama answers MatchSignal; every other module call panics.
type signalNakama struct {
	runtime.NakamaModule
	teams map[string]string
}

func (s *signalNakama) MatchSignal(ctx context.Context, id string, data string) (string, error) {
	teams, ok := s.teams[id]
	if !ok {
		return "", errors.New("match not found")
	}
	if data == "team:user123" {
		return teams, nil
	}
	return "", nil
}

func TestRpcVoiceToken_Login(t *testing.T) {
	t.Cleanup(func() { voiceService = nil })
	voiceService = app.NewVoiceService("test-secret", "issuer", "example.com")

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")
	raw1, err := rpcVoiceToken(ctx, noopLogger{}, nil, nil, `{"action":"login"}`)
	if err != nil {
		t.Fatalf("rpcVoiceToken error: %v", err)
	}
	raw2, err := rpcVoiceToken(ctx, noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatalf("rpcVoiceToken error: %v", err)
	}

	claims1 := parseVoiceClaims(t, responseField(t, raw1, "token"))
	claims2 := parseVoiceClaims(t, responseField(t, raw2, "token"))
	if claims1["sub"] != "user123" || claims1["vxa"] != app.VoiceTokenActionLogin {
		t.Fatalf("claims = %v", claims1)
	}
	if claims1["vxi"] == claims2["vxi"] {
		t.Fatalf("vxi claim must be unique per token, got %v twice", claims1["vxi"])
	}
}

func TestRpcVoiceToken_JoinTeamChannel(t *testing.T) {
	t.Cleanup(func() { voiceService = nil })
	voiceService = app.NewVoiceService("test-secret", "issuer", "example.com")
	nk := &signalNakama{teams: map[string]string{"m1": "B"}}

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")
	raw, err := rpcVoiceToken(ctx, noopLogger{}, nil, nk, `{"action":"join","match_id":"m1"}`)
	if err != nil {
		t.Fatalf("rpcVoiceToken error: %v", err)
	}
	if got := responseField(t, raw, "channel"); got != "yut-m1-B" {
		t.Fatalf("channel = %q, want yut-m1-B", got)
	}
	claims := parseVoiceClaims(t, responseField(t, raw, "token"))
	if claims["t"] != "sip:confctl-g-yut-m1-B@example.com" {
		t.Fatalf("t claim = %v", claims["t"])
	}

	other := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "stranger")
	if _, err := rpcVoiceToken(other, noopLogger{}, nil, nk, `{"action":"join","match_id":"m1"}`); err == nil {
		t.Fatal("expected error for a user not seated in the match")
	}
	if _, err := rpcVoiceToken(ctx, noopLogger{}, nil, nk, `{"action":"join","match_id":"gone"}`); err == nil {
		t.Fatal("expected error for an unknown match")
	}
}

func TestRpcVoiceToken_Rejects(t *testing.T) {
	t.Cleanup(func() { voiceService = nil })

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")
	if _, err := rpcVoiceToken(ctx, noopLogger{}, nil, nil, ""); err == nil {
		t.Fatal("expected error when voice is not configured")
	}

	voiceService = app.NewVoiceService("test-secret", "issuer", "example.com")
	if _, err := rpcVoiceToken(context.Background(), noopLogger{}, nil, nil, ""); err == nil {
		t.Fatal("expected error without a user")
	}
	if _, err := rpcVoiceToken(ctx, noopLogger{}, nil, nil, `{"action":"join"}`); err == nil {
		t.Fatal("expected error for join without match_id")
	}
	if _, err := rpcVoiceToken(ctx, noopLogger{}, nil, nil, `{`); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func responseField(t *testing.T, raw, key string) string {
	t.Helper()
	s := &structpb.Struct{}
	if err := protojson.Unmarshal([]byte(raw), s); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return s.GetFields()[key].GetStringValue()
}

func parseVoiceClaims(t *testing.T, tokenString string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse token error: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}
	return claims
}
