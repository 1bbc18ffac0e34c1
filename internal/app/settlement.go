package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"yutnori/internal/domain"
	"yutnori/internal/ports"
)

// ErrMatchNotEnded is returned when settling a game that has no winner yet.
var ErrMatchNotEnded = errors.New("match not ended")

// SettlementUpdates turns a finished game into wallet updates for human players.
// isBot may be nil when no seat is a bot.
func SettlementUpdates(game *domain.Game, isBot func(userID string) bool) ([]ports.WalletUpdate, error) {
	if game.Phase != domain.PhaseEnded || !game.HasWinner {
		return nil, ErrMatchNotEnded
	}
	settlement := game.CalculateSettlement()
	updates := make([]ports.WalletUpdate, 0, len(settlement.BalanceChanges))
	for userID, amount := range settlement.BalanceChanges {
		if isBot != nil && isBot(userID) {
			continue
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: userID,
			Amount: amount,
			Metadata: map[string]interface{}{
				"reason":  "yut_settlement",
				"game_id": game.ID,
				"shutout": settlement.Shutout,
			},
		})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].UserID < updates[j].UserID })
	return updates, nil
}

// Settle applies the settlement of a finished game through economy.
func Settle(ctx context.Context, economy ports.EconomyPort, game *domain.Game, isBot func(userID string) bool) ([]ports.WalletUpdate, error) {
	updates, err := SettlementUpdates(game, isBot)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, nil
	}
	if err := economy.UpdateBalances(ctx, updates); err != nil {
		return nil, fmt.Errorf("settle game %s: %w", game.ID, err)
	}
	return updates, nil
}
