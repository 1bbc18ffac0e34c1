package httpws

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"yutnori/internal/app"
	"yutnori/internal/domain"
)

type scriptedSticks struct {
	outcome domain.Outcome
}

func (s scriptedSticks) Throw() app.Throw {
	return app.Throw{Outcome: s.outcome}
}

func newTestServer(outcome domain.Outcome) *Server {
	return NewServer(Options{Seed: 3, Sticks: scriptedSticks{outcome: outcome}}, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, actionResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp actionResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return rec.Code, resp
}

func hasEvent(resp actionResponse, kind app.EventKind) bool {
	for _, ev := range resp.Events {
		if ev.Type == string(kind) {
			return true
		}
	}
	return false
}

func TestServer_HotSeatTurn(t *testing.T) {
	srv := newTestServer(domain.OutcomeGae)
	h := srv.Router()

	if code, _ := do(t, h, http.MethodPost, "/api/throw", ""); code != http.StatusConflict {
		t.Fatalf("throw before start = %d, want %d", code, http.StatusConflict)
	}

	code, resp := do(t, h, http.MethodPost, "/api/games", `{"players":["ann","ben"],"base_bet":50}`)
	if code != http.StatusOK || !hasEvent(resp, app.EventGameStarted) {
		t.Fatalf("new game = %d, events %+v", code, resp.Events)
	}
	if resp.State == nil || resp.State.Players != [2]string{"ann", "ben"} {
		t.Fatalf("state = %+v", resp.State)
	}
	srv.game.GoldenCell = domain.E4

	if _, resp = do(t, h, http.MethodPost, "/api/throw", `{"outcome":"gae"}`); !hasEvent(resp, app.EventThrowResolved) {
		t.Fatalf("throw events = %+v", resp.Events)
	}
	if resp.State.Awaiting != domain.AwaitingPieceKind {
		t.Fatalf("Awaiting = %s, want piece", resp.State.Awaiting)
	}
	if code, _ = do(t, h, http.MethodPost, "/api/select/piece", `{"piece":0}`); code != http.StatusOK {
		t.Fatalf("select piece = %d", code)
	}
	code, resp = do(t, h, http.MethodPost, "/api/select/cell", `{"cell":"A2"}`)
	if code != http.StatusOK {
		t.Fatalf("select cell = %d", code)
	}
	if !hasEvent(resp, app.EventPieceMoved) || !hasEvent(resp, app.EventTurnEnd) {
		t.Fatalf("move events = %+v", resp.Events)
	}
	if resp.State.ActiveTeam != domain.TeamB {
		t.Fatalf("ActiveTeam = %v, want B", resp.State.ActiveTeam)
	}
	if got := resp.State.Pieces[0].Cell; got != domain.A2 {
		t.Fatalf("piece 0 at %v, want A2", got)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var state stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.BaseBet != 50 || state.Game == nil || state.Game.ActiveTeam != domain.TeamB {
		t.Fatalf("state = %+v", state)
	}
}

func TestServer_RejectsBadInput(t *testing.T) {
	srv := newTestServer(domain.OutcomeDo)
	h := srv.Router()
	if code, _ := do(t, h, http.MethodPost, "/api/games", ""); code != http.StatusOK {
		t.Fatalf("new game = %d", code)
	}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown outcome", "/api/throw", `{"outcome":"bogus"}`, http.StatusBadRequest},
		{"malformed body", "/api/throw", `{`, http.StatusBadRequest},
		{"missing piece", "/api/select/piece", `{}`, http.StatusBadRequest},
		{"unknown cell", "/api/select/cell", `{"cell":"Z9"}`, http.StatusBadRequest},
		{"cell before throw", "/api/select/cell", `{"cell":"A2"}`, http.StatusConflict},
		{"unknown bot", "/api/games", `{"bot":"genius"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := do(t, h, http.MethodPost, tt.path, tt.body); code != tt.want {
				t.Fatalf("POST %s %s = %d, want %d", tt.path, tt.body, code, tt.want)
			}
		})
	}
}

func TestServer_RejectsOutOfRangePiece(t *testing.T) {
	srv := newTestServer(domain.OutcomeDo)
	h := srv.Router()
	do(t, h, http.MethodPost, "/api/games", "")
	srv.game.GoldenCell = domain.E4
	if _, resp := do(t, h, http.MethodPost, "/api/throw", ""); resp.State == nil || resp.State.Awaiting != domain.AwaitingPieceKind {
		t.Fatalf("throw did not ask for a piece: %+v", resp.State)
	}

	for _, body := range []string{`{"piece":256}`, `{"piece":260}`, `{"piece":-1}`, `{"piece":8}`, `{"piece":1.9}`} {
		if code, _ := do(t, h, http.MethodPost, "/api/select/piece", body); code != http.StatusBadRequest {
			t.Fatalf("select %s = %d, want %d", body, code, http.StatusBadRequest)
		}
	}
	if _, ok := srv.game.Turn.Awaiting.(domain.AwaitingPiece); !ok {
		t.Fatalf("Awaiting = %T, want AwaitingPiece", srv.game.Turn.Awaiting)
	}
}

func TestServer_BotSeatAnswersTurn(t *testing.T) {
	srv := newTestServer(domain.OutcomeGeol)
	h := srv.Router()

	code, resp := do(t, h, http.MethodPost, "/api/games", `{"bot":"greedy"}`)
	if code != http.StatusOK {
		t.Fatalf("new game = %d", code)
	}
	if resp.State.Players[1] != "bot-greedy" {
		t.Fatalf("players = %v", resp.State.Players)
	}
	srv.game.GoldenCell = domain.E4

	do(t, h, http.MethodPost, "/api/throw", "")
	do(t, h, http.MethodPost, "/api/select/piece", `{"piece":0}`)
	_, resp = do(t, h, http.MethodPost, "/api/select/cell", `{"cell":"A3"}`)

	if resp.State == nil || resp.State.ActiveTeam != domain.TeamA {
		t.Fatalf("turn did not come back to the human: %+v", resp.State)
	}
	turnEnds := 0
	for _, ev := range resp.Events {
		if ev.Type == string(app.EventTurnEnd) {
			turnEnds++
		}
	}
	if turnEnds != 2 {
		t.Fatalf("turn_end events = %d, want 2", turnEnds)
	}
	if resp.State.Pieces[domain.PiecesPerTeam].Cell == domain.Waiting && resp.State.Pieces[domain.PiecesPerTeam+1].Cell == domain.Waiting {
		t.Fatal("bot did not move a piece")
	}
}

func TestServer_WebSocketStream(t *testing.T) {
	srv := newTestServer(domain.OutcomeDo)
	done := make(chan struct{})
	defer close(done)
	go srv.Run(done)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	read := func() wsMessage {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != "state" {
		t.Fatalf("first message = %q, want state", msg.Type)
	}

	res, err := http.Post(ts.URL+"/api/games", "application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	res.Body.Close()

	if msg := read(); msg.Type != string(app.EventGameStarted) {
		t.Fatalf("message = %q, want %s", msg.Type, app.EventGameStarted)
	}
	if msg := read(); msg.Type != string(app.EventAwaiting) {
		t.Fatalf("message = %q, want %s", msg.Type, app.EventAwaiting)
	}
}
