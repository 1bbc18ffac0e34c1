package domain

// GoldenEffect is the bonus granted to a stack that lands exactly on the golden cell.
type GoldenEffect string

const (
	// GoldenBonusThrow grants one more throw once the pending queue drains.
	GoldenBonusThrow GoldenEffect = "bonus_throw"
	// GoldenFreeDo appends a Do to the pending queue.
	GoldenFreeDo GoldenEffect = "free_do"
	// GoldenFreeGae appends a Gae to the pending queue.
	GoldenFreeGae GoldenEffect = "free_gae"
)

// GoldenEffects lists every effect in draw order.
var GoldenEffects = []GoldenEffect{GoldenBonusThrow, GoldenFreeDo, GoldenFreeGae}

// Random is the randomness the domain draws from. *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
}

// RollGoldenCell picks a new golden cell among the stations other than Home, avoiding
// occupied stations while any free one remains.
func RollGoldenCell(rng Random, s *PieceStore) Cell {
	var free, all []Cell
	for c := Cell(1); c < TrackCells; c++ {
		all = append(all, c)
		if !s.Occupied(c) {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		free = all
	}
	return free[rng.Intn(len(free))]
}

// PickGoldenEffect draws an effect with the given weights. Missing or non-positive
// weights never win; if every weight is zero the effects are drawn uniformly.
func PickGoldenEffect(rng Random, weights map[GoldenEffect]int) GoldenEffect {
	total := 0
	for _, e := range GoldenEffects {
		if w := weights[e]; w > 0 {
			total += w
		}
	}
	if total == 0 {
		return GoldenEffects[rng.Intn(len(GoldenEffects))]
	}
	roll := rng.Intn(total)
	for _, e := range GoldenEffects {
		w := weights[e]
		if w <= 0 {
			continue
		}
		if roll < w {
			return e
		}
		roll -= w
	}
	return GoldenEffects[len(GoldenEffects)-1]
}
