package domain

import "fmt"

// Outcome is the resolved result of one stick throw.
type Outcome int8

const (
	OutcomeNak Outcome = iota
	OutcomeDo
	OutcomeGae
	OutcomeGeol
	OutcomeYut
	OutcomeMo
	OutcomeBackDo
)

var outcomeNames = [...]string{
	OutcomeNak:    "nak",
	OutcomeDo:     "do",
	OutcomeGae:    "gae",
	OutcomeGeol:   "geol",
	OutcomeYut:    "yut",
	OutcomeMo:     "mo",
	OutcomeBackDo: "backdo",
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool { return o >= OutcomeNak && o <= OutcomeBackDo }

// Steps returns how far the outcome moves a piece. Back-do is -1, Nak is 0.
func (o Outcome) Steps() int {
	switch o {
	case OutcomeDo:
		return 1
	case OutcomeGae:
		return 2
	case OutcomeGeol:
		return 3
	case OutcomeYut:
		return 4
	case OutcomeMo:
		return 5
	case OutcomeBackDo:
		return -1
	default:
		return 0
	}
}

// GrantsThrow reports whether the outcome earns another throw on its own.
func (o Outcome) GrantsThrow() bool { return o == OutcomeYut || o == OutcomeMo }

// GrantsCaptureBonus reports whether a capture made with this outcome earns a bonus throw.
// Yut and Mo already carry their own extra throw.
func (o Outcome) GrantsCaptureBonus() bool {
	switch o {
	case OutcomeDo, OutcomeGae, OutcomeGeol, OutcomeBackDo:
		return true
	}
	return false
}

// Forward reports whether the outcome moves a piece ahead along the track.
func (o Outcome) Forward() bool { return o.Steps() > 0 }

func (o Outcome) String() string {
	if !o.Valid() {
		return fmt.Sprintf("outcome(%d)", int8(o))
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid outcome %d", int8(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	parsed, ok := ParseOutcome(string(b))
	if !ok {
		return fmt.Errorf("unknown outcome %q", string(b))
	}
	*o = parsed
	return nil
}

// ParseOutcome resolves an outcome name such as "geol" or "backdo".
func ParseOutcome(name string) (Outcome, bool) {
	for i, n := range outcomeNames {
		if n == name {
			return Outcome(i), true
		}
	}
	return OutcomeNak, false
}
