package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"yutnori/internal/app"
	"yutnori/internal/bot"
	"yutnori/internal/config"
	"yutnori/internal/domain"
	"yutnori/internal/ports"
)

// thrower produces stick throws on behalf of the active team.
type thrower interface {
	Throw() app.Throw
}

// MatchState holds the authoritative runtime state for the Nakama match handler.
// Seat i plays team i.
type MatchState struct {
	Seats                domain.Seats                `json:"seats"`                   // user IDs, empty string means the seat is empty
	OwnerSeat            int                         `json:"owner_seat"`              // seat of the human allowed to start games
	Phase                domain.Phase                `json:"phase"`                   // lobby, playing or ended
	BaseBet              int64                       `json:"base_bet"`                // stake settled at game end
	Tick                 int64                       `json:"tick"`                    // current match tick
	Presences            map[string]runtime.Presence `json:"-"`                       // connected humans by user ID
	App                  *app.Service                `json:"-"`                       // turn sequencer
	Sticks               thrower                     `json:"-"`                       // server-side stick throws
	Game                 *domain.Game                `json:"-"`                       // nil while in the lobby
	BotsEnabled          bool                        `json:"bots_enabled"`            // whether AI players are allowed
	BotMinDelay          int                         `json:"bot_min_delay"`           // min seconds a bot waits
	BotMaxDelay          int                         `json:"bot_max_delay"`           // max seconds a bot waits
	BotAutoFillDelay     int                         `json:"bot_auto_fill_delay"`     // seconds before a lone human gets a bot
	BotWaitUntil         int64                       `json:"bot_wait_until"`          // tick when the bot should act
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"` // tick when a lone human started waiting
	Bots                 map[string]*bot.Agent       `json:"-"`                       // active bot agents
	Economy              ports.EconomyPort           `json:"-"`                       // wallet settlement
	rng                  *rand.Rand
}

func (ms *MatchState) GetOpenSeatsCount() int {
	return len(ms.Seats) - domain.CountOccupied(&ms.Seats)
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// newMatchState builds the lobby state from runtime env and match params.
func newMatchState(env map[string]string, params map[string]interface{}, economy ports.EconomyPort) *MatchState {
	cfg := config.GetGameConfig()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	service := app.NewService(rand.New(rand.NewSource(rng.Int63())))
	service.SetGoldenWeights(goldenWeights(cfg.GoldenEffectWeights()))
	flat, nak := cfg.StickOdds()

	tier, _ := params["tier"].(string)
	botCfg := cfg.BotSettings()
	state := &MatchState{
		OwnerSeat:        -1,
		Phase:            domain.PhaseLobby,
		BaseBet:          cfg.BaseBet(tier),
		Presences:        make(map[string]runtime.Presence),
		App:              service,
		Sticks:           app.NewSticks(rand.New(rand.NewSource(rng.Int63())), flat, nak),
		Bots:             make(map[string]*bot.Agent),
		Economy:          economy,
		BotMinDelay:      botCfg.MinDelaySeconds,
		BotMaxDelay:      botCfg.MaxDelaySeconds,
		BotAutoFillDelay: botCfg.AutoFillDelaySeconds,
		rng:              rng,
	}

	if val, ok := env[envBotsEnabled]; ok {
		state.BotsEnabled = val == "true"
	}
	envInt(env, envBotMinDelay, &state.BotMinDelay)
	envInt(env, envBotMaxDelay, &state.BotMaxDelay)
	envInt(env, envBotAutoFillDelay, &state.BotAutoFillDelay)

	if state.BotMinDelay <= 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay + 2
	}
	if state.BotAutoFillDelay <= 0 {
		state.BotAutoFillDelay = 5
	}
	return state
}

func envInt(env map[string]string, key string, dst *int) {
	if val, ok := env[key]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

// goldenWeights converts configured effect names; unknown names are ignored.
func goldenWeights(raw map[string]int) map[domain.GoldenEffect]int {
	out := make(map[domain.GoldenEffect]int, len(raw))
	for _, effect := range domain.GoldenEffects {
		if w, ok := raw[string(effect)]; ok {
			out[effect] = w
		}
	}
	return out
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	state := newMatchState(env, params, NewNakamaEconomyAdapter(nk))

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // one tick per second; bot delays are counted in ticks
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated players may always reconnect.
	if _, seated := domain.SeatOf(&matchState.Seats, presence.GetUserId()); seated {
		return state, true, ""
	}
	if matchState.Phase == domain.PhasePlaying {
		return state, false, "Match in progress"
	}
	if matchState.GetOpenSeatsCount() > 0 {
		return state, true, ""
	}
	for _, seat := range matchState.Seats {
		if isBotUserId(seat) {
			return state, true, ""
		}
	}
	return state, false, "Match full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	var events []app.Event
	var rejoined []runtime.Presence
	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if _, seated := domain.SeatOf(&matchState.Seats, userID); seated {
			logger.Debug("MatchJoin: User %s reconnected.", userID)
			rejoined = append(rejoined, p)
			continue
		}

		seat, assigned := domain.LowestAvailableSeat(&matchState.Seats)
		if !assigned && matchState.Phase != domain.PhasePlaying {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
					delete(matchState.Bots, seatUserId)
					seat, assigned = i, true
					break
				}
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
			continue
		}
		matchState.Seats[seat] = userID
		events = append(events, app.Event{
			Kind:    app.EventPlayerJoined,
			Payload: app.PlayerJoinedPayload{UserID: userID, Seat: seat},
		})
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(ctx, matchState, dispatcher, logger, nil)
	if len(rejoined) > 0 && matchState.Game != nil {
		mh.broadcastMatchState(ctx, matchState, dispatcher, logger, rejoined)
	}

	return matchState
}

// MatchLeave is called when one or more players leave the match.
// Seats are kept during a game so the player can reconnect.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	var events []app.Event
	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		events = append(events, app.Event{Kind: app.EventPlayerLeft, Payload: app.PlayerLeftPayload{UserID: userID}})

		if matchState.Phase == domain.PhasePlaying {
			continue
		}
		if seat, seated := domain.SeatOf(&matchState.Seats, userID); seated {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
		}
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no connected humans.")
		return nil
	}

	if newOwner := findFirstHumanSeat(matchState.Seats[:]); newOwner != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwner
		logger.Debug("MatchLeave: Owner set to seat %d.", newOwner)
	}

	mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case domain.OpCodeStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case domain.OpCodeThrow:
			mh.handleThrow(ctx, matchState, dispatcher, logger, msg)
		case domain.OpCodeSelectPiece:
			mh.handleSelectPiece(ctx, matchState, dispatcher, logger, msg)
		case domain.OpCodeSelectCell:
			mh.handleSelectCell(ctx, matchState, dispatcher, logger, msg)
		case domain.OpCodeRequestNewGame:
			mh.handleRequestNewGame(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat, _ := domain.SeatOf(&state.Seats, senderID) // -1 when not seated

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d)", senderID, senderSeat, state.OwnerSeat)

	if state.Phase == domain.PhasePlaying {
		mh.sendError(state, dispatcher, logger, senderID, errCodeConflict, "game already running")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, errCodeForbidden, "only the match owner can start")
		return
	}
	if occupied := domain.CountOccupied(&state.Seats); occupied < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", occupied, app.MinPlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, errCodeBadRequest, app.ErrTooFewPlayers.Error())
		return
	}

	game, events, err := state.App.StartGame([2]string(state.Seats), state.BaseBet)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}

	state.Game = game
	state.Phase = domain.PhasePlaying
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game %s started, base bet %d.", game.ID, state.BaseBet)
}

func (mh *matchHandler) handleThrow(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	mh.act(ctx, state, dispatcher, logger, msg.GetUserId(), "handleThrow", func(team domain.Team) ([]app.Event, error) {
		return mh.throw(state, team)
	})
}

func (mh *matchHandler) handleSelectPiece(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	req, err := decodeRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleSelectPiece: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, err.Error())
		return
	}
	piece, ok := req.GetFields()["piece"]
	if !ok {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, "piece is required")
		return
	}
	if _, isNumber := piece.GetKind().(*structpb.Value_NumberValue); !isNumber {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, domain.ErrInvalidPieceID.Error())
		return
	}
	id, err := domain.PieceIDFromNumber(piece.GetNumberValue())
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, err.Error())
		return
	}
	mh.act(ctx, state, dispatcher, logger, msg.GetUserId(), "handleSelectPiece", func(team domain.Team) ([]app.Event, error) {
		return state.App.SelectPiece(state.Game, team, id)
	})
}

func (mh *matchHandler) handleSelectCell(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	req, err := decodeRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleSelectCell: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, err.Error())
		return
	}
	cell, ok := domain.ParseCell(req.GetFields()["cell"].GetStringValue())
	if !ok {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), errCodeBadRequest, domain.ErrInvalidCellID.Error())
		return
	}
	mh.act(ctx, state, dispatcher, logger, msg.GetUserId(), "handleSelectCell", func(team domain.Team) ([]app.Event, error) {
		return state.App.SelectCell(state.Game, team, cell)
	})
}

func (mh *matchHandler) handleRequestNewGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Phase != domain.PhaseEnded {
		mh.sendError(state, dispatcher, logger, senderID, errCodeConflict, "no finished game to reset")
		return
	}
	if seat, _ := domain.SeatOf(&state.Seats, senderID); seat < 0 || seat != state.OwnerSeat {
		mh.sendError(state, dispatcher, logger, senderID, errCodeForbidden, "only the match owner can reset")
		return
	}
	state.Game = nil
	state.Phase = domain.PhaseLobby
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(ctx, state, dispatcher, logger, nil)
}

// act runs a turn operation for userID's team and dispatches the resulting events.
func (mh *matchHandler) act(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, handler string, op func(team domain.Team) ([]app.Event, error)) {
	if state.Game == nil {
		logger.Warn("%s: Game not started.", handler)
		mh.sendError(state, dispatcher, logger, userID, errCodeConflict, "game not started")
		return
	}
	team, ok := state.Game.TeamOfUser(userID)
	if !ok {
		mh.sendError(state, dispatcher, logger, userID, errCodeForbidden, "not seated in this game")
		return
	}
	events, err := op(team)
	if err != nil {
		logger.Warn("%s: User %s (team %s) rejected: %v", handler, userID, team, err)
		mh.sendError(state, dispatcher, logger, userID, errorCode(err), err.Error())
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) throw(state *MatchState, team domain.Team) ([]app.Event, error) {
	th := state.Sticks.Throw()
	return state.App.SubmitThrow(state.Game, team, th.Outcome, th.IsBackDo())
}

// errorCode classifies service errors for clients.
func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return errCodeForbidden
	case errors.Is(err, app.ErrGameOver),
		errors.Is(err, app.ErrNotAwaitingThrow),
		errors.Is(err, app.ErrNotAwaitingSelection),
		errors.Is(err, app.ErrEmptyPendingQueue):
		return errCodeConflict
	case errors.Is(err, app.ErrPieceNotSelectable),
		errors.Is(err, app.ErrCellNotSelectable),
		errors.Is(err, app.ErrTooFewPlayers),
		errors.Is(err, app.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidPieceID),
		errors.Is(err, domain.ErrInvalidCellID):
		return errCodeBadRequest
	default:
		return errCodeInternal
	}
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Give a lone human an opponent after the auto-fill delay.
	if state.Phase == domain.PhaseLobby {
		if state.GetHumanPlayerCount() == 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				mh.fillWithBot(state, dispatcher, logger)
				mh.updateLabel(state, dispatcher, logger)
				mh.broadcastMatchState(ctx, state, dispatcher, logger, nil)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot turns in-game.
	if state.Phase != domain.PhasePlaying || state.Game == nil {
		return
	}
	currentUserID := state.Game.ActiveUser()
	if !isBotUserId(currentUserID) {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay
		if spread := state.BotMaxDelay - state.BotMinDelay; spread > 0 {
			delay += state.random().Intn(spread + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", currentUserID, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	// Each decision gets its own delay so clients can follow the bot.
	state.BotWaitUntil = 0

	agent, err := state.agent(currentUserID)
	if err != nil {
		logger.Error("processBots: Failed to create agent for %s: %v", currentUserID, err)
		return
	}
	move, err := agent.Play(state.Game)
	if err != nil {
		logger.Warn("processBots: Bot %s fell back to its first legal choice: %v", currentUserID, err)
	}

	team := state.Game.Turn.ActiveTeam
	var events []app.Event
	switch move.Action {
	case bot.ActionThrow:
		events, err = mh.throw(state, team)
	case bot.ActionSelectPiece:
		events, err = state.App.SelectPiece(state.Game, team, move.Piece)
	case bot.ActionSelectCell:
		events, err = state.App.SelectCell(state.Game, team, move.Cell)
	default:
		return
	}
	if err != nil {
		logger.Error("processBots: Bot %s move %+v rejected: %v", currentUserID, move, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) fillWithBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	seat, ok := domain.LowestAvailableSeat(&state.Seats)
	if !ok {
		return
	}
	identity := bot.GetBotIdentity(state.random().Intn(1 << 16))
	if !isBotUserId(identity.UserID) {
		logger.Warn("processBots: No bot identities loaded, cannot fill seat %d.", seat)
		return
	}
	state.Seats[seat] = identity.UserID
	if _, err := state.agent(identity.UserID); err != nil {
		logger.Error("processBots: Failed to create bot agent for %s: %v", identity.UserID, err)
	}
	logger.Info("processBots: Added bot %s (%s) to seat %d", identity.DisplayName, identity.UserID, seat)
}

// agent returns the agent driving a bot seat, creating it on first use.
func (ms *MatchState) agent(userID string) (*bot.Agent, error) {
	if a, ok := ms.Bots[userID]; ok {
		return a, nil
	}
	a, err := bot.NewAgent(userID, rand.New(rand.NewSource(ms.random().Int63())))
	if err != nil {
		return nil, err
	}
	if ms.Bots == nil {
		ms.Bots = make(map[string]*bot.Agent)
	}
	ms.Bots[userID] = a
	return a, nil
}

func (ms *MatchState) random() *rand.Rand {
	if ms.rng == nil {
		ms.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return ms.rng
}

// dispatchEvents sends events to clients, feeds bot memories and settles finished games.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		for _, agent := range state.Bots {
			agent.OnGameEvent(ev)
		}
		mh.broadcastEvent(state, dispatcher, logger, ev)

		if ev.Kind == app.EventGameEnded {
			mh.finishGame(ctx, state, dispatcher, logger)
		}
	}
}

func (mh *matchHandler) finishGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.Phase = domain.PhaseEnded
	state.BotWaitUntil = 0
	if state.Economy != nil && state.Game != nil {
		updates, err := app.Settle(ctx, state.Economy, state.Game, isBotUserId)
		if err != nil {
			logger.Error("finishGame: Failed to settle game %s: %v", state.Game.ID, err)
		} else {
			logger.Info("finishGame: Settled game %s with %d wallet updates.", state.Game.ID, len(updates))
		}
	}
	mh.updateLabel(state, dispatcher, logger)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, data, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to encode event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted events whose recipients are all offline or bots go nowhere.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to dispatch event %v: %v", ev.Kind, err)
	}
}

type seatView struct {
	UserID      string `json:"userId"`
	Seat        int    `json:"seat"`
	Team        string `json:"team"`
	DisplayName string `json:"displayName"`
	IsOwner     bool   `json:"isOwner"`
	IsBot       bool   `json:"isBot"`
	Balance     int64  `json:"balance"`
}

type matchView struct {
	Phase     domain.Phase     `json:"phase"`
	BaseBet   int64            `json:"baseBet"`
	OwnerSeat int              `json:"ownerSeat"`
	Tick      int64            `json:"tick"`
	Players   []seatView       `json:"players"`
	Game      *domain.Snapshot `json:"game,omitempty"`
}

// broadcastMatchState sends seats, balances and the game snapshot. Nil presences means everyone.
func (mh *matchHandler) broadcastMatchState(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	view := matchView{
		Phase:     state.Phase,
		BaseBet:   state.BaseBet,
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		Players:   []seatView{},
	}
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		sv := seatView{
			UserID:      userID,
			Seat:        i,
			Team:        domain.Team(i).String(),
			DisplayName: userID,
			IsOwner:     i == state.OwnerSeat,
			IsBot:       isBotUserId(userID),
		}
		if p, ok := state.Presences[userID]; ok {
			sv.DisplayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userID); name != "" {
			sv.DisplayName = name
		}
		if state.Economy != nil {
			balance, err := state.Economy.GetBalance(ctx, userID)
			if err != nil {
				logger.Warn("broadcastMatchState: Could not read balance of %s: %v", userID, err)
			}
			sv.Balance = balance
		}
		view.Players = append(view.Players, sv)
	}
	if state.Game != nil {
		snap := state.App.Snapshot(state.Game)
		view.Game = &snap
	}

	data, err := encodeJSON(view)
	if err != nil {
		logger.Error("broadcastMatchState: Failed to encode: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(domain.OpCodeSnapshot, data, presences, nil, true); err != nil {
		logger.Error("broadcastMatchState: Failed to dispatch: %v", err)
	}
}

// sendError sends a GameError message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	data, err := encodeFields(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to marshal GameError: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(domain.OpCodeError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send GameError to %s: %v", userID, err)
	}
}

// matchLabel renders the label matchmaking queries filter on.
func matchLabel(state *MatchState) (string, error) {
	l := domain.ComputeLabel(state.Phase, &state.Seats, state.BaseBet)
	s, err := structpb.NewStruct(map[string]interface{}{
		"open":     l.Open,
		"game":     l.Game,
		"phase":    l.Phase,
		"base_bet": l.BaseBet,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminating, grace %d seconds", graceSeconds)
	return state
}

// MatchSignal answers "team:<userID>" with the team letter of a seated user, empty otherwise.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	const teamPrefix = "team:"
	if len(data) <= len(teamPrefix) || data[:len(teamPrefix)] != teamPrefix {
		return state, ""
	}
	seat, ok := domain.SeatOf(&matchState.Seats, data[len(teamPrefix):])
	if !ok {
		return state, ""
	}
	return state, domain.Team(seat).String()
}
