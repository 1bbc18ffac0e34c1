package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// Op codes of the yut_match handler.
const (
	OpCodeStartGame     = 1
	OpCodeThrow         = 2
	OpCodeMatchStarted  = 100
	OpCodeThrowResolved = 101
	OpCodeError         = 199
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
	data    chan *rtapi.MatchData
}

// requireServer skips the test when no Nakama server is listening locally.
func requireServer(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", Host, Port), time.Second)
	if err != nil {
		t.Skipf("nakama not reachable on %s:%d: %v", Host, Port, err)
	}
	conn.Close()
}

func NewTestClient(t *testing.T) *TestClient {
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	tc := &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
		data:    make(chan *rtapi.MatchData, 64),
	}
	socket.OnMatchData = func(data *rtapi.MatchData) {
		select {
		case tc.data <- data:
		default:
		}
	}
	return tc
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// QuickMatch calls the quick_match RPC and joins the returned match.
func (tc *TestClient) QuickMatch(t *testing.T, tier string) string {
	payload := fmt.Sprintf(`{"tier": %q}`, tier)
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "quick_match", payload)
	if err != nil {
		t.Fatalf("RPC quick_match failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
		IsNew   bool   `json:"is_new"`
		BaseBet int64  `json:"base_bet"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("RPC quick_match returned %q: %v", rpc.Payload, err)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}

// WaitForMatchState waits for a message with opCode and decodes its payload.
func (tc *TestClient) WaitForMatchState(t *testing.T, opCode int64, timeout time.Duration) *structpb.Struct {
	deadline := time.After(timeout)
	for {
		select {
		case data := <-tc.data:
			if data.OpCode != opCode {
				continue
			}
			s := &structpb.Struct{}
			if err := proto.Unmarshal(data.Data, s); err != nil {
				t.Fatalf("Failed to decode OpCode %d: %v", opCode, err)
			}
			return s
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
	}
}
