package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"yutnori/internal/app"
	"yutnori/internal/bot"
	"yutnori/internal/domain"
	"yutnori/internal/ports"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates = append(md.labelUpdates, label)
	return nil
}

func (md *mockDispatcher) last(opCode int64) (sentMessage, bool) {
	for i := len(md.messages) - 1; i >= 0; i-- {
		if md.messages[i].opCode == opCode {
			return md.messages[i], true
		}
	}
	return sentMessage{}, false
}

type mockEconomy struct {
	balances map[string]int64
	calls    map[string]int
	updates  []ports.WalletUpdate
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	if me.calls == nil {
		me.calls = make(map[string]int)
	}
	me.calls[userID]++
	if balance, ok := me.balances[userID]; ok {
		return balance, nil
	}
	return 0, errors.New("balance not found")
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.updates = append(me.updates, updates...)
	return nil
}

type fakePresence struct {
	userID string
}

func (p fakePresence) GetHidden() bool                   { return false }
func (p fakePresence) GetPersistence() bool              { return false }
func (p fakePresence) GetUsername() string               { return "name-" + p.userID }
func (p fakePresence) GetStatus() string                 { return "" }
func (p fakePresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p fakePresence) GetUserId() string                 { return p.userID }
func (p fakePresence) GetSessionId() string              { return "session-" + p.userID }
func (p fakePresence) GetNodeId() string                 { return "node" }

type fakeMatchData struct {
	fakePresence
	opCode int64
	data   []byte
}

func (m fakeMatchData) GetOpCode() int64      { return m.opCode }
func (m fakeMatchData) GetData() []byte       { return m.data }
func (m fakeMatchData) GetReliable() bool     { return true }
func (m fakeMatchData) GetReceiveTime() int64 { return 0 }

// scriptedThrower replays outcomes in order, repeating the last one.
type scriptedThrower struct {
	outcomes []domain.Outcome
}

func (s *scriptedThrower) Throw() app.Throw {
	o := s.outcomes[0]
	if len(s.outcomes) > 1 {
		s.outcomes = s.outcomes[1:]
	}
	return app.Throw{Outcome: o}
}

func TestMain(m *testing.M) {
	bot.RegisterIdentities([]bot.BotIdentity{
		{UserID: "bot-1", Username: "yut_bot_mal", DisplayName: "Mal", Difficulty: "medium"},
		{UserID: "bot-2", Username: "yut_bot_geol", DisplayName: "Geol", Difficulty: "easy"},
	})
	os.Exit(m.Run())
}

func message(t *testing.T, userID string, opCode int64, fields map[string]interface{}) runtime.MatchData {
	t.Helper()
	var data []byte
	if fields != nil {
		var err error
		data, err = encodeFields(fields)
		if err != nil {
			t.Fatalf("encode message: %v", err)
		}
	}
	return fakeMatchData{fakePresence: fakePresence{userID: userID}, opCode: opCode, data: data}
}

func decodeStruct(t *testing.T, data []byte) *structpb.Struct {
	t.Helper()
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return s
}

func newTestState(economy ports.EconomyPort, outcomes ...domain.Outcome) *MatchState {
	state := newMatchState(nil, nil, economy)
	state.App = app.NewService(rand.New(rand.NewSource(7)))
	state.Sticks = &scriptedThrower{outcomes: outcomes}
	return state
}

// startedMatch seats two humans and starts a game with the golden cell parked out of the way.
func startedMatch(t *testing.T, state *MatchState, dispatcher *mockDispatcher) {
	t.Helper()
	mh := &matchHandler{}
	ctx := context.Background()
	mh.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{fakePresence{"u1"}, fakePresence{"u2"}})
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{message(t, "u1", domain.OpCodeStartGame, nil)})
	if state.Game == nil || state.Phase != domain.PhasePlaying {
		t.Fatalf("game not started, phase = %s", state.Phase)
	}
	state.Game.GoldenCell = domain.E4
}

func TestFindFirstHumanSeat(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{name: "FirstHumanAfterBot", seats: []string{"bot-1", "user-1"}, want: 1},
		{name: "AllBots", seats: []string{"bot-1", "bot-2"}, want: -1},
		{name: "AllEmpty", seats: []string{"", ""}, want: -1},
		{name: "FirstHumanIsSeatZero", seats: []string{"user-1", "bot-1"}, want: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstHumanSeat(test.seats); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestMatchLabel(t *testing.T) {
	tests := []struct {
		name     string
		seats    domain.Seats
		phase    domain.Phase
		wantOpen bool
	}{
		{name: "EmptyLobby", phase: domain.PhaseLobby, wantOpen: true},
		{name: "HalfFullLobby", seats: domain.Seats{"u1", ""}, phase: domain.PhaseLobby, wantOpen: true},
		{name: "FullLobby", seats: domain.Seats{"u1", "u2"}, phase: domain.PhaseLobby, wantOpen: false},
		{name: "Playing", seats: domain.Seats{"u1", ""}, phase: domain.PhasePlaying, wantOpen: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			label, err := matchLabel(&MatchState{Seats: test.seats, Phase: test.phase, BaseBet: 500})
			if err != nil {
				t.Fatalf("matchLabel() error = %v", err)
			}
			var got map[string]interface{}
			if err := json.Unmarshal([]byte(label), &got); err != nil {
				t.Fatalf("label is not JSON: %v", err)
			}
			if got["open"] != test.wantOpen || got["game"] != domain.GameName || got["phase"] != string(test.phase) {
				t.Fatalf("label = %v", got)
			}
			if got["base_bet"] != float64(500) {
				t.Fatalf("base_bet = %v, want 500", got["base_bet"])
			}
		})
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState(nil, domain.OutcomeDo)
	state.Seats = domain.Seats{"u1", "bot-1"}

	if _, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 0, state, fakePresence{"u2"}, nil); !ok {
		t.Fatal("human should be able to replace a bot in the lobby")
	}

	state.Phase = domain.PhasePlaying
	if _, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 0, state, fakePresence{"u2"}, nil); ok {
		t.Fatal("strangers must not join a running game")
	} else if reason == "" {
		t.Fatal("expected a rejection reason")
	}
	if _, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, nil, 0, state, fakePresence{"u1"}, nil); !ok {
		t.Fatal("seated players must be able to reconnect")
	}
}

func TestMatchLoop_TurnFlow(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(nil, domain.OutcomeGae)
	startedMatch(t, state, dispatcher)

	if state.OwnerSeat != 0 {
		t.Fatalf("OwnerSeat = %d, want 0", state.OwnerSeat)
	}
	if _, ok := dispatcher.last(domain.OpCodeMatchStarted); !ok {
		t.Fatal("expected a match started message")
	}

	ctx := context.Background()

	// Off-turn throw is rejected privately and leaves the game untouched.
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{message(t, "u2", domain.OpCodeThrow, nil)})
	errMsg, ok := dispatcher.last(domain.OpCodeError)
	if !ok || len(errMsg.presences) != 1 || errMsg.presences[0].GetUserId() != "u2" {
		t.Fatalf("expected a private error to u2, got %+v", errMsg)
	}
	if code := decodeStruct(t, errMsg.data).GetFields()["code"].GetNumberValue(); code != errCodeForbidden {
		t.Fatalf("error code = %v, want %d", code, errCodeForbidden)
	}
	if state.Game.Turn.ThrowsAvailable != 1 {
		t.Fatalf("rejected throw changed the turn: %+v", state.Game.Turn)
	}

	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{
		message(t, "u1", domain.OpCodeThrow, nil),
		message(t, "u1", domain.OpCodeSelectPiece, map[string]interface{}{"piece": 0}),
		message(t, "u1", domain.OpCodeSelectCell, map[string]interface{}{"cell": "A2"}),
	})

	if p, _ := state.Game.Pieces.Piece(0); p.Position != domain.A2 {
		t.Fatalf("piece 0 at %v, want A2", p.Position)
	}
	moved, ok := dispatcher.last(domain.OpCodePieceMoved)
	if !ok {
		t.Fatal("expected a piece moved message")
	}
	fields := decodeStruct(t, moved.data).GetFields()
	if fields["to"].GetStringValue() != "A2" || fields["outcome"].GetStringValue() != "gae" {
		t.Fatalf("piece moved payload = %v", fields)
	}
	turnEnd, ok := dispatcher.last(domain.OpCodeTurnEnd)
	if !ok || decodeStruct(t, turnEnd.data).GetFields()["nextTurnUserId"].GetStringValue() != "u2" {
		t.Fatal("expected the turn to pass to u2")
	}
}

func TestMatchLoop_BadSelectionRequests(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(nil, domain.OutcomeDo)
	startedMatch(t, state, dispatcher)

	ctx := context.Background()
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{
		message(t, "u1", domain.OpCodeSelectCell, map[string]interface{}{"cell": "Z9"}),
	})
	errMsg, ok := dispatcher.last(domain.OpCodeError)
	if !ok || decodeStruct(t, errMsg.data).GetFields()["code"].GetNumberValue() != errCodeBadRequest {
		t.Fatal("expected a bad request error for an unknown cell")
	}

	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{
		message(t, "u1", domain.OpCodeSelectPiece, map[string]interface{}{"piece": 0}),
	})
	errMsg, _ = dispatcher.last(domain.OpCodeError)
	if code := decodeStruct(t, errMsg.data).GetFields()["code"].GetNumberValue(); code != errCodeConflict {
		t.Fatalf("selecting before throwing: code = %v, want %d", code, errCodeConflict)
	}
}

func TestMatchLoop_RejectsOutOfRangePiece(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(nil, domain.OutcomeDo)
	startedMatch(t, state, dispatcher)

	ctx := context.Background()
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{message(t, "u1", domain.OpCodeThrow, nil)})

	tick := int64(4)
	for _, piece := range []interface{}{256, 260, -1, 8, 1.9, "0"} {
		dispatcher.messages = nil
		mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, []runtime.MatchData{
			message(t, "u1", domain.OpCodeSelectPiece, map[string]interface{}{"piece": piece}),
		})
		tick++
		errMsg, ok := dispatcher.last(domain.OpCodeError)
		if !ok {
			t.Fatalf("piece %v: expected an error", piece)
		}
		if code := decodeStruct(t, errMsg.data).GetFields()["code"].GetNumberValue(); code != errCodeBadRequest {
			t.Fatalf("piece %v: code = %v, want %d", piece, code, errCodeBadRequest)
		}
		if _, ok := state.Game.Turn.Awaiting.(domain.AwaitingPiece); !ok {
			t.Fatalf("piece %v: Awaiting = %T, want AwaitingPiece", piece, state.Game.Turn.Awaiting)
		}
	}
}

func TestMatchLoop_GameEndSettles(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	economy := &mockEconomy{}
	state := newTestState(economy, domain.OutcomeGae)
	startedMatch(t, state, dispatcher)

	for _, id := range []domain.PieceID{0, 1, 2} {
		if err := state.Game.Pieces.Place(id, domain.Finished); err != nil {
			t.Fatalf("Place() error = %v", err)
		}
	}
	_ = state.Game.Pieces.Place(3, domain.D5)

	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{
		message(t, "u1", domain.OpCodeThrow, nil),
		message(t, "u1", domain.OpCodeSelectPiece, map[string]interface{}{"piece": 3}),
		message(t, "u1", domain.OpCodeSelectCell, map[string]interface{}{"cell": "finished"}),
	})

	if state.Phase != domain.PhaseEnded {
		t.Fatalf("Phase = %s, want ended", state.Phase)
	}
	if _, ok := dispatcher.last(domain.OpCodeGameEnded); !ok {
		t.Fatal("expected a game ended message")
	}
	want := map[string]int64{"u1": 200, "u2": -200}
	if len(economy.updates) != 2 {
		t.Fatalf("wallet updates = %+v", economy.updates)
	}
	for _, u := range economy.updates {
		if u.Amount != want[u.UserID] {
			t.Fatalf("update for %s = %d, want %d", u.UserID, u.Amount, want[u.UserID])
		}
	}

	// Only the owner can reset to the lobby.
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{
		message(t, "u2", domain.OpCodeRequestNewGame, nil),
	})
	if state.Phase != domain.PhaseEnded {
		t.Fatal("non-owner reset the match")
	}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 5, state, []runtime.MatchData{
		message(t, "u1", domain.OpCodeRequestNewGame, nil),
	})
	if state.Phase != domain.PhaseLobby || state.Game != nil {
		t.Fatalf("owner reset left phase %s", state.Phase)
	}
}

func TestProcessBots_FillsSeatForSoloHuman(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(nil, domain.OutcomeDo)
	state.Seats = domain.Seats{"user-1", ""}
	state.Presences["user-1"] = fakePresence{"user-1"}
	state.BotsEnabled = true
	state.BotAutoFillDelay = 2
	state.LastSinglePlayerTick = 8
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	if !isBotUserId(state.Seats[1]) {
		t.Fatalf("seat 1 = %q, want a bot", state.Seats[1])
	}
	if state.GetOpenSeatsCount() != 0 {
		t.Fatalf("open seats = %d, want 0", state.GetOpenSeatsCount())
	}
	if _, ok := state.Bots[state.Seats[1]]; !ok {
		t.Fatal("expected an agent for the new bot")
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastSinglePlayerTick)
	}
	if len(dispatcher.labelUpdates) == 0 {
		t.Fatal("expected a label update after auto-fill")
	}
	if _, ok := dispatcher.last(domain.OpCodeSnapshot); !ok {
		t.Fatal("expected a match state broadcast after auto-fill")
	}
}

func TestProcessBots_PlaysBotTurn(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(nil, domain.OutcomeGeol)
	state.Seats = domain.Seats{"bot-1", "u2"}
	state.Presences["u2"] = fakePresence{"u2"}
	state.BotMinDelay, state.BotMaxDelay = 1, 1

	game, _, err := state.App.StartGame([2]string(state.Seats), state.BaseBet)
	if err != nil {
		t.Fatalf("StartGame() error = %v", err)
	}
	game.GoldenCell = domain.E4
	state.Game, state.Phase = game, domain.PhasePlaying

	// Throw, pick a piece, pick a cell: one decision per elapsed delay.
	for tick := int64(1); tick <= 12 && game.Turn.ActiveTeam == domain.TeamA; tick++ {
		state.Tick = tick
		handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	}

	if game.Turn.ActiveTeam != domain.TeamB {
		t.Fatalf("bot turn did not finish, awaiting %T", game.Turn.Awaiting)
	}
	if game.Pieces.OnBoardCount(domain.TeamA) != 1 {
		t.Fatalf("bot should have entered one piece, on board = %d", game.Pieces.OnBoardCount(domain.TeamA))
	}
}

func TestBroadcastMatchState_IncludesBalances(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	economy := &mockEconomy{balances: map[string]int64{"user-1": 1200, "bot-1": 5000}}
	state := newTestState(economy, domain.OutcomeDo)
	state.Seats = domain.Seats{"user-1", "bot-1"}
	state.OwnerSeat = 0
	state.Tick = 42

	handler.broadcastMatchState(context.Background(), state, dispatcher, noopLogger{}, nil)

	msg, ok := dispatcher.last(domain.OpCodeSnapshot)
	if !ok {
		t.Fatal("expected snapshot payload to be broadcast")
	}
	players := decodeStruct(t, msg.data).GetFields()["players"].GetListValue().GetValues()
	if len(players) != 2 {
		t.Fatalf("players = %v", players)
	}
	balances := make(map[string]float64)
	for _, p := range players {
		f := p.GetStructValue().GetFields()
		balances[f["userId"].GetStringValue()] = f["balance"].GetNumberValue()
	}
	if balances["user-1"] != 1200 || balances["bot-1"] != 5000 {
		t.Fatalf("balances = %v", balances)
	}
	if economy.calls["user-1"] != 1 || economy.calls["bot-1"] != 1 {
		t.Fatalf("balance lookups = %v", economy.calls)
	}
}

func TestMatchLeave(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(nil, domain.OutcomeDo)
	startedMatch(t, state, dispatcher)

	got := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{fakePresence{"u2"}})
	if got == nil {
		t.Fatal("match terminated while a human is still connected")
	}
	if state.Seats[1] != "u2" {
		t.Fatal("seat must be kept during a game so the player can reconnect")
	}

	got = mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{fakePresence{"u1"}})
	if got != nil {
		t.Fatal("expected termination once no human is connected")
	}
}

func TestMatchSignal_Team(t *testing.T) {
	mh := &matchHandler{}
	state := &MatchState{Seats: domain.Seats{"u1", "u2"}}
	tests := []struct {
		data string
		want string
	}{
		{"team:u1", "A"},
		{"team:u2", "B"},
		{"team:u3", ""},
		{"hello", ""},
	}
	for _, tt := range tests {
		if _, got := mh.MatchSignal(context.Background(), noopLogger{}, nil, nil, nil, 0, state, tt.data); got != tt.want {
			t.Fatalf("MatchSignal(%q) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestEncodeEvent(t *testing.T) {
	id := domain.PieceID(2)
	ev := app.Event{Kind: app.EventAwaiting, Payload: app.AwaitingPayload{
		Team:       domain.TeamB,
		UserID:     "u2",
		Kind:       domain.AwaitingCellKind,
		Piece:      &id,
		LegalCells: []domain.MoveOption{{Outcome: domain.OutcomeGeol, Destination: domain.Finished, GoalIn: true}},
		Pending:    []domain.Outcome{domain.OutcomeGeol},
	}}
	opCode, data, err := encodeEvent(ev)
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	if opCode != domain.OpCodeAwaiting {
		t.Fatalf("opCode = %d, want %d", opCode, domain.OpCodeAwaiting)
	}
	fields := decodeStruct(t, data).GetFields()
	if fields["team"].GetStringValue() != "B" || fields["piece"].GetNumberValue() != 2 {
		t.Fatalf("fields = %v", fields)
	}
	cell := fields["legalCells"].GetListValue().GetValues()[0].GetStructValue().GetFields()
	if cell["cell"].GetStringValue() != "finished" || !cell["goalIn"].GetBoolValue() {
		t.Fatalf("legal cell = %v", cell)
	}

	if _, _, err := encodeEvent(app.Event{Kind: "bogus"}); err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}
