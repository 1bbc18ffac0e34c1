package httpws

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"yutnori/internal/app"
	"yutnori/internal/bot"
	"yutnori/internal/config"
	"yutnori/internal/domain"
)

// maxBotSteps bounds the decisions a bot seat takes in one request.
const maxBotSteps = 64

// Thrower produces stick throws for the active team.
type Thrower interface {
	Throw() app.Throw
}

// Options configures a local hot-seat server.
type Options struct {
	Seed   int64
	Config *config.GameConfig
	// Sticks overrides the configured stick source.
	Sticks Thrower
}

// Server runs a single game for players sharing one screen, with an optional bot seat.
type Server struct {
	mu      sync.Mutex
	app     *app.Service
	sticks  Thrower
	cfg     *config.GameConfig
	rng     *rand.Rand
	game    *domain.Game
	agent   *bot.Agent
	hub     *Hub
	logger  *zap.Logger
	baseBet int64
}

func NewServer(opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	service := app.NewService(rand.New(rand.NewSource(rng.Int63())))
	raw := opts.Config.GoldenEffectWeights()
	weights := make(map[domain.GoldenEffect]int, len(raw))
	for _, effect := range domain.GoldenEffects {
		if w, ok := raw[string(effect)]; ok {
			weights[effect] = w
		}
	}
	service.SetGoldenWeights(weights)

	sticks := opts.Sticks
	if sticks == nil {
		flat, nak := opts.Config.StickOdds()
		sticks = app.NewSticks(rand.New(rand.NewSource(rng.Int63())), flat, nak)
	}
	return &Server{
		app:     service,
		sticks:  sticks,
		cfg:     opts.Config,
		rng:     rng,
		hub:     NewHub(),
		logger:  logger,
		baseBet: opts.Config.BaseBet(""),
	}
}

// Run pumps websocket broadcasts until done is closed.
func (s *Server) Run(done <-chan struct{}) {
	s.hub.Run(done)
}

// Router returns the HTTP handler serving the REST API and the event stream.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/state", s.handleState)
	r.Post("/api/games", s.handleNewGame)
	r.Post("/api/throw", s.handleThrow)
	r.Post("/api/select/piece", s.handleSelectPiece)
	r.Post("/api/select/cell", s.handleSelectCell)
	r.Get("/ws", s.serveWS)
	return r
}

type newGameRequest struct {
	Players [2]string `json:"players"`
	// Bot names a difficulty ("easy", "greedy") for a bot playing team B.
	Bot     string `json:"bot"`
	Tier    string `json:"tier"`
	BaseBet int64  `json:"base_bet"`
}

type throwRequest struct {
	Outcome string `json:"outcome"`
}

type selectPieceRequest struct {
	Piece *int `json:"piece"`
}

type selectCellRequest struct {
	Cell string `json:"cell"`
}

type stateResponse struct {
	BaseBet int64            `json:"base_bet"`
	Game    *domain.Snapshot `json:"game"`
}

type actionResponse struct {
	Events []wsMessage      `json:"events"`
	State  *domain.Snapshot `json:"state"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, stateResponse{BaseBet: s.baseBet, Game: s.snapshot()})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
	}
	if req.Players[0] == "" {
		req.Players[0] = "player-a"
	}
	var agent *bot.Agent
	if req.Bot != "" {
		level, err := bot.ParseBotLevel(req.Bot)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		strategy, err := bot.NewBrain(level, rand.New(rand.NewSource(s.rng.Int63())))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		req.Players[1] = "bot-" + req.Bot
		agent = &bot.Agent{ID: req.Players[1], Name: "Yut Bot", Strategy: strategy}
	} else if req.Players[1] == "" {
		req.Players[1] = "player-b"
	}
	baseBet := req.BaseBet
	if baseBet <= 0 {
		baseBet = s.cfg.BaseBet(req.Tier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	game, events, err := s.app.StartGame(req.Players, baseBet)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	s.game, s.agent, s.baseBet = game, agent, baseBet
	s.observe(events)
	s.logger.Info("game started",
		zap.String("game_id", game.ID),
		zap.Strings("players", req.Players[:]),
		zap.Int64("base_bet", baseBet),
		zap.Bool("bot", agent != nil),
	)
	s.respond(w, events)
}

func (s *Server) handleThrow(w http.ResponseWriter, r *http.Request) {
	var req throwRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
	}
	s.act(w, func(game *domain.Game) ([]app.Event, error) {
		team := game.Turn.ActiveTeam
		if req.Outcome == "" {
			th := s.sticks.Throw()
			return s.app.SubmitThrow(game, team, th.Outcome, th.IsBackDo())
		}
		outcome, ok := domain.ParseOutcome(req.Outcome)
		if !ok {
			return nil, app.ErrInvalidOutcome
		}
		return s.app.SubmitThrow(game, team, outcome, false)
	})
}

func (s *Server) handleSelectPiece(w http.ResponseWriter, r *http.Request) {
	var req selectPieceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Piece == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "piece is required"})
		return
	}
	id, err := domain.PieceIDFromNumber(float64(*req.Piece))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.act(w, func(game *domain.Game) ([]app.Event, error) {
		return s.app.SelectPiece(game, game.Turn.ActiveTeam, id)
	})
}

func (s *Server) handleSelectCell(w http.ResponseWriter, r *http.Request) {
	var req selectCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	cell, ok := domain.ParseCell(req.Cell)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": domain.ErrInvalidCellID.Error()})
		return
	}
	s.act(w, func(game *domain.Game) ([]app.Event, error) {
		return s.app.SelectCell(game, game.Turn.ActiveTeam, cell)
	})
}

// act applies one move for the active team, then lets the bot seat catch up.
func (s *Server) act(w http.ResponseWriter, op func(game *domain.Game) ([]app.Event, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no game started"})
		return
	}
	if s.agent != nil && s.game.ActiveUser() == s.agent.ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": app.ErrNotYourTurn.Error()})
		return
	}
	events, err := op(s.game)
	if err != nil {
		s.logger.Warn("move rejected", zap.String("game_id", s.game.ID), zap.Error(err))
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	s.observe(events)
	events = append(events, s.playBot()...)
	s.respond(w, events)
}

// playBot drives the bot seat until it hands the turn back or the game ends.
func (s *Server) playBot() []app.Event {
	if s.agent == nil {
		return nil
	}
	var out []app.Event
	for i := 0; i < maxBotSteps && s.game.Phase == domain.PhasePlaying && s.game.ActiveUser() == s.agent.ID; i++ {
		move, err := s.agent.Play(s.game)
		if err != nil {
			s.logger.Warn("bot fell back to first legal choice", zap.Error(err))
		}
		team := s.game.Turn.ActiveTeam
		var events []app.Event
		switch move.Action {
		case bot.ActionThrow:
			th := s.sticks.Throw()
			events, err = s.app.SubmitThrow(s.game, team, th.Outcome, th.IsBackDo())
		case bot.ActionSelectPiece:
			events, err = s.app.SelectPiece(s.game, team, move.Piece)
		case bot.ActionSelectCell:
			events, err = s.app.SelectCell(s.game, team, move.Cell)
		default:
			return out
		}
		if err != nil {
			s.logger.Error("bot move rejected", zap.String("game_id", s.game.ID), zap.Int("action", int(move.Action)), zap.Error(err))
			return out
		}
		s.observe(events)
		out = append(out, events...)
	}
	return out
}

func (s *Server) observe(events []app.Event) {
	if s.agent == nil {
		return
	}
	for _, ev := range events {
		s.agent.OnGameEvent(ev)
	}
}

// respond publishes events to the websocket stream and returns them with the new state.
func (s *Server) respond(w http.ResponseWriter, events []app.Event) {
	resp := actionResponse{Events: make([]wsMessage, 0, len(events)), State: s.snapshot()}
	for _, ev := range events {
		msg, err := eventMessage(ev)
		if err != nil {
			s.logger.Error("encode event", zap.String("kind", string(ev.Kind)), zap.Error(err))
			continue
		}
		if ev.Kind == app.EventGameEnded {
			s.logger.Info("game ended", zap.String("game_id", s.game.ID), zap.String("winner", s.game.Winner.String()))
		}
		resp.Events = append(resp.Events, msg)
		s.hub.Publish(msg)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) snapshot() *domain.Snapshot {
	if s.game == nil {
		return nil
	}
	snap := s.app.Snapshot(s.game)
	return &snap
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: s.hub, send: make(chan []byte, 32)}
	s.hub.Register(client)

	s.mu.Lock()
	client.sendJSON(wsMessage{Type: "state", Payload: mustMarshal(stateResponse{BaseBet: s.baseBet, Game: s.snapshot()})})
	s.mu.Unlock()

	go func() {
		defer conn.Close()
		_ = writeWSWithHeartbeat(conn, client.send)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.Unregister(client)
			return
		}
	}
}

func eventMessage(ev app.Event) (wsMessage, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return wsMessage{}, err
	}
	return wsMessage{Type: string(ev.Kind), Payload: payload}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return http.StatusForbidden
	case errors.Is(err, app.ErrGameOver),
		errors.Is(err, app.ErrNotAwaitingThrow),
		errors.Is(err, app.ErrNotAwaitingSelection),
		errors.Is(err, app.ErrEmptyPendingQueue):
		return http.StatusConflict
	case errors.Is(err, app.ErrPieceNotSelectable),
		errors.Is(err, app.ErrCellNotSelectable),
		errors.Is(err, app.ErrTooFewPlayers),
		errors.Is(err, app.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidPieceID),
		errors.Is(err, domain.ErrInvalidCellID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
