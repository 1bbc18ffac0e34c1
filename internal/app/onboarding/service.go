package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"yutnori/internal/ports"
)

// DefaultStartingGold is granted once to every new account so it can cover its first bets.
const DefaultStartingGold int64 = 5000

// Result captures non-fatal onboarding outcomes.
type Result struct {
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// StartingGoldGranted is false when the purse had already been granted earlier.
	StartingGoldGranted bool
}

// Service handles post-auth onboarding for new players.
type Service struct {
	accounts     ports.AccountPort
	purse        ports.StartingPursePort
	rng          *rand.Rand
	startingGold int64
}

// NewService constructs an onboarding service. rng may be nil to use a time-seeded
// default; a non-positive startingGold uses DefaultStartingGold.
func NewService(accounts ports.AccountPort, purse ports.StartingPursePort, rng *rand.Rand, startingGold int64) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if startingGold <= 0 {
		startingGold = DefaultStartingGold
	}
	return &Service{
		accounts:     accounts,
		purse:        purse,
		rng:          rng,
		startingGold: startingGold,
	}
}

// OnboardNewUser names a new account and grants its starting purse.
// Profile updates are best-effort; a failed purse grant is returned as an error.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.purse == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{DisplayName: s.generatePlayerName()}
	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		result.ProfileUpdateErr = err
	}

	granted, err := s.purse.GrantStartingPurseOnce(ctx, userID, s.startingGold, map[string]interface{}{
		"reason": "starting_purse",
	})
	if err != nil {
		return result, fmt.Errorf("failed to grant starting purse: %w", err)
	}
	result.StartingGoldGranted = granted
	return result, nil
}

func (s *Service) generatePlayerName() string {
	adjectives := []string{"Swift", "Lucky", "Bold", "Nimble", "Golden", "Quiet", "Sly", "Steady", "Bright", "Daring"}
	pieces := []string{"Horse", "Stick", "Runner", "Rider", "Pony", "Mal", "Racer", "Colt", "Yut", "Stallion"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	piece := pieces[s.rng.Intn(len(pieces))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, piece, num)
}
