package app

import (
	"math/rand"
	"time"

	"yutnori/internal/domain"
)

// StickCount is the number of yut sticks thrown together.
const StickCount = 4

// markedStick is the stick whose flat face turns a Do into a Back-do.
const markedStick = 0

// Throw is the physical result of one stick throw.
type Throw struct {
	Flat    [StickCount]bool
	Outcome domain.Outcome
}

// IsBackDo reports whether the throw moves backward.
func (t Throw) IsBackDo() bool { return t.Outcome == domain.OutcomeBackDo }

// Sticks is the randomness source standing in for a physical throw.
type Sticks struct {
	rng *rand.Rand
	// FlatProbability is the chance that a single stick lands flat side up.
	FlatProbability float64
	// NakProbability is the chance that a stick leaves the mat, which voids the throw.
	NakProbability float64
}

// NewSticks returns a stick source. A nil rng is replaced with a time-seeded one;
// out-of-range probabilities fall back to 0.5 flat and no Nak.
func NewSticks(rng *rand.Rand, flatProbability, nakProbability float64) *Sticks {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if flatProbability <= 0 || flatProbability >= 1 {
		flatProbability = 0.5
	}
	if nakProbability < 0 || nakProbability >= 1 {
		nakProbability = 0
	}
	return &Sticks{rng: rng, FlatProbability: flatProbability, NakProbability: nakProbability}
}

// Throw flips the four sticks and reads the outcome.
func (s *Sticks) Throw() Throw {
	var t Throw
	if s.NakProbability > 0 && s.rng.Float64() < s.NakProbability {
		t.Outcome = domain.OutcomeNak
		return t
	}
	for i := range t.Flat {
		t.Flat[i] = s.rng.Float64() < s.FlatProbability
	}
	t.Outcome = ReadSticks(t.Flat)
	return t
}

// ReadSticks converts stick faces to an outcome. One flat stick is a Do, or a Back-do
// when it is the marked stick; no flat stick is a Mo.
func ReadSticks(flat [StickCount]bool) domain.Outcome {
	n := 0
	for _, f := range flat {
		if f {
			n++
		}
	}
	switch n {
	case 1:
		if flat[markedStick] {
			return domain.OutcomeBackDo
		}
		return domain.OutcomeDo
	case 2:
		return domain.OutcomeGae
	case 3:
		return domain.OutcomeGeol
	case 4:
		return domain.OutcomeYut
	default:
		return domain.OutcomeMo
	}
}
