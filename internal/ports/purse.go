package ports

import "context"

// StartingPursePort grants the starting purse at most once per user.
type StartingPursePort interface {
	// GrantStartingPurseOnce credits amount gold the first time it is called for userID.
	// Returns granted=false when the purse was already granted.
	GrantStartingPurseOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error)
}
