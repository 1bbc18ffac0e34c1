package nakama

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"yutnori/internal/app"
	"yutnori/internal/domain"
)

// eventOpCodes maps app events to the op codes clients listen on.
var eventOpCodes = map[app.EventKind]int64{
	app.EventPlayerJoined:     domain.OpCodePlayerJoined,
	app.EventPlayerLeft:       domain.OpCodePlayerLeft,
	app.EventGameStarted:      domain.OpCodeMatchStarted,
	app.EventThrowResolved:    domain.OpCodeThrowResolved,
	app.EventPieceSelected:    domain.OpCodePieceSelected,
	app.EventPieceMoved:       domain.OpCodePieceMoved,
	app.EventCapture:          domain.OpCodeCapture,
	app.EventStacked:          domain.OpCodeStacked,
	app.EventGoalIn:           domain.OpCodeGoalIn,
	app.EventGoldenBonus:      domain.OpCodeGoldenBonus,
	app.EventBonusThrow:       domain.OpCodeBonusThrow,
	app.EventOutcomeForfeited: domain.OpCodeOutcomeForfeited,
	app.EventTurnEnd:          domain.OpCodeTurnEnd,
	app.EventGameEnded:        domain.OpCodeGameEnded,
	app.EventAwaiting:         domain.OpCodeAwaiting,
}

// encodeEvent converts an app event to its op code and wire bytes.
func encodeEvent(ev app.Event) (int64, []byte, error) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	fields, err := eventFields(ev)
	if err != nil {
		return 0, nil, err
	}
	data, err := encodeFields(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return opCode, data, nil
}

func encodeFields(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// encodeJSON re-encodes a JSON-tagged value as a protobuf Struct.
func encodeJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeRequest reads a client message. Empty messages decode to an empty struct.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if len(data) == 0 {
		return req, nil
	}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func eventFields(ev app.Event) (map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.PlayerJoinedPayload:
		return map[string]interface{}{"userId": p.UserID, "seat": p.Seat}, nil
	case app.PlayerLeftPayload:
		return map[string]interface{}{"userId": p.UserID}, nil
	case app.GameStartedPayload:
		return map[string]interface{}{
			"gameId":     p.GameID,
			"players":    []interface{}{p.Players[0], p.Players[1]},
			"activeTeam": p.ActiveTeam.String(),
			"goldenCell": p.GoldenCell.Label(),
			"baseBet":    p.BaseBet,
		}, nil
	case app.ThrowResolvedPayload:
		return map[string]interface{}{
			"team":    p.Team.String(),
			"outcome": p.Outcome.String(),
			"banked":  outcomeList(p.Banked),
			"pending": outcomeList(p.Pending),
		}, nil
	case app.PieceSelectedPayload:
		return map[string]interface{}{
			"team":  p.Team.String(),
			"piece": int(p.Piece),
			"stack": pieceList(p.Stack),
			"legal": moveOptionList(p.Legal),
		}, nil
	case app.PieceMovedPayload:
		return map[string]interface{}{
			"team":        p.Result.Team.String(),
			"outcome":     p.Outcome.String(),
			"goalIn":      p.GoalIn,
			"moved":       pieceList(p.Result.Moved),
			"from":        p.Result.From.Label(),
			"to":          p.Result.To.Label(),
			"captured":    pieceList(p.Result.Captured),
			"stackedWith": pieceList(p.Result.StackedWith),
		}, nil
	case app.CapturePayload:
		return map[string]interface{}{
			"capturedIds": pieceList(p.CapturedIDs),
			"byTeam":      p.ByTeam.String(),
			"cell":        p.Cell.Label(),
		}, nil
	case app.StackedPayload:
		return map[string]interface{}{
			"team":  p.Team.String(),
			"cell":  p.Cell.Label(),
			"stack": pieceList(p.Stack),
		}, nil
	case app.GoalInPayload:
		return map[string]interface{}{
			"pieceIds":         pieceList(p.PieceIDs),
			"team":             p.Team.String(),
			"newFinishedCount": p.NewFinishedCount,
		}, nil
	case app.GoldenBonusPayload:
		return map[string]interface{}{
			"pieceId":       int(p.PieceID),
			"team":          p.Team.String(),
			"effect":        string(p.Effect),
			"cell":          p.Cell.Label(),
			"newGoldenCell": p.NewGoldenCell.Label(),
		}, nil
	case app.BonusThrowPayload:
		return map[string]interface{}{"team": p.Team.String(), "reason": string(p.Reason)}, nil
	case app.OutcomeForfeitedPayload:
		return map[string]interface{}{"team": p.Team.String(), "outcomes": outcomeList(p.Outcomes)}, nil
	case app.TurnEndPayload:
		return map[string]interface{}{
			"previousTeam":   p.PreviousTeam.String(),
			"nextTeam":       p.NextTeam.String(),
			"nextTurnUserId": p.NextTurnUserID,
		}, nil
	case app.GameEndedPayload:
		changes := make(map[string]interface{}, len(p.BalanceChanges))
		for userID, amount := range p.BalanceChanges {
			changes[userID] = amount
		}
		return map[string]interface{}{
			"winner":         p.Winner.String(),
			"winnerUserId":   p.WinnerUserID,
			"finishedCount":  []interface{}{p.FinishedCount[0], p.FinishedCount[1]},
			"balanceChanges": changes,
			"shutout":        p.Shutout,
		}, nil
	case app.AwaitingPayload:
		fields := map[string]interface{}{
			"team":            p.Team.String(),
			"userId":          p.UserID,
			"kind":            string(p.Kind),
			"legalPieces":     pieceOptionList(p.LegalPieces),
			"legalCells":      moveOptionList(p.LegalCells),
			"throwsAvailable": p.ThrowsAvailable,
			"pending":         outcomeList(p.Pending),
		}
		if p.Piece != nil {
			fields["piece"] = int(*p.Piece)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("unexpected payload %T for %s", ev.Payload, ev.Kind)
	}
}

// structpb only accepts []interface{} for list values.

func pieceList(ids []domain.PieceID) []interface{} {
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, int(id))
	}
	return out
}

func outcomeList(outcomes []domain.Outcome) []interface{} {
	out := make([]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.String())
	}
	return out
}

func moveOptionList(opts []domain.MoveOption) []interface{} {
	out := make([]interface{}, 0, len(opts))
	for _, o := range opts {
		out = append(out, map[string]interface{}{
			"outcome":      o.Outcome.String(),
			"cell":         o.Destination.Label(),
			"goalIn":       o.GoalIn,
			"arrivesReady": o.ArrivesReady,
		})
	}
	return out
}

func pieceOptionList(opts []domain.PieceOption) []interface{} {
	out := make([]interface{}, 0, len(opts))
	for _, o := range opts {
		out = append(out, map[string]interface{}{
			"id":              int(o.ID),
			"cell":            o.Position.Label(),
			"stack":           pieceList(o.Stack),
			"goalInAvailable": o.GoalInAvailable,
		})
	}
	return out
}
