package ports

import "context"

// Currency is the wallet key used for bets and payouts.
const Currency = "gold"

// WalletUpdate represents a single currency change for a user.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort settles Yut bets against player wallets.
type EconomyPort interface {
	// GetBalance retrieves the current gold balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies the wallet changes of a finished game.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
