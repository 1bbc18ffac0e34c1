package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"yutnori/internal/ports"
)

const (
	startingPurseCollection = "onboarding"
	startingPurseKey        = "starting_purse_v1"
)

// NakamaStartingPurseAdapter grants the starting purse with one storage marker write and
// one wallet update in the same transaction.
type NakamaStartingPurseAdapter struct {
	nk  runtime.NakamaModule
	now func() time.Time
}

// NewNakamaStartingPurseAdapter creates a new starting purse adapter.
func NewNakamaStartingPurseAdapter(nk runtime.NakamaModule) *NakamaStartingPurseAdapter {
	return &NakamaStartingPurseAdapter{nk: nk, now: time.Now}
}

// GrantStartingPurseOnce credits amount gold unless the marker already exists.
func (a *NakamaStartingPurseAdapter) GrantStartingPurseOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	value, err := json.Marshal(map[string]interface{}{
		"amount":     amount,
		"granted_at": a.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal starting purse marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{{
		Collection:      startingPurseCollection,
		Key:             startingPurseKey,
		UserID:          userID,
		Value:           string(value),
		Version:         "*", // only create, never overwrite
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}}
	walletUpdates := []*runtime.WalletUpdate{{
		UserID:    userID,
		Changeset: map[string]int64{ports.Currency: amount},
		Metadata:  metadata,
	}}

	if _, _, err := a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant starting purse: %w", err)
	}
	return true, nil
}

var _ ports.StartingPursePort = (*NakamaStartingPurseAdapter)(nil)
