package ranking

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/pkg/solver"
)

// RankInfeasible marks DMUs that were never ranked because a round failed.
const RankInfeasible = -1

// RoundFunc observes a peel-the-onion round after its efficient DMUs have
// been ranked. res is only valid for the duration of the call.
type RoundFunc func(rank int, res *model.Result, ranked []string)

// PeelOption configures PeelTheOnion.
type PeelOption func(*peelConfig)

type peelConfig struct {
	onRound RoundFunc
}

// WithRoundObserver registers f to be called after every round.
func WithRoundObserver(f RoundFunc) PeelOption {
	return func(c *peelConfig) { c.onRound = f }
}

// PeelTheOnion ranks the DMUs of m's comparison set. Each round solves the
// model over the DMUs still unranked, gives the current rank to the
// efficient ones and removes them. It returns the first round's Result,
// the rank of every DMU and whether every round was solved to optimality.
//
// A round with a non-optimal DMU stops the run: the first Result and the
// ranks assigned so far are returned with ok set to false. The model's
// comparison set is restored on every exit path.
func PeelTheOnion(ctx context.Context, m model.Model, env model.Env, opts ...PeelOption) (first *model.Result, ranks map[string]int, ok bool, err error) {
	cfg := &peelConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := logging.FromContext(ctx)

	original := m.Comparison()
	defer m.SetComparison(original)

	ranks = make(map[string]int, len(original))
	for _, code := range original {
		ranks[code] = RankInfeasible
	}

	working := slices.Clone(original)
	for rank := 1; len(working) > 0; rank++ {
		m.SetComparison(working)
		res, err := model.RunFor(ctx, m, env, working)
		if err != nil {
			_ = first.Release()
			return nil, ranks, false, err
		}
		if first == nil {
			first = res
		}

		efficient, solved := classify(res, working)
		if !solved {
			logger.Info("Peel-the-onion stopped on a non-optimal DMU", "rank", rank)
			releaseRound(first, res)
			return first, ranks, false, nil
		}
		if len(efficient) == 0 {
			// Nobody left on a frontier: the rest share the current rank.
			for _, code := range working {
				ranks[code] = rank
			}
			notify(cfg, rank, res, working)
			releaseRound(first, res)
			break
		}
		for _, code := range efficient {
			ranks[code] = rank
		}
		notify(cfg, rank, res, efficient)
		releaseRound(first, res)

		working = slices.DeleteFunc(working, func(code string) bool { return ranks[code] == rank })
		logger.V(logging.DEBUG).Info("Peeled frontier", "rank", rank, "efficient", len(efficient), "remaining", len(working))
	}
	return first, ranks, true, nil
}

// classify returns the efficient DMUs in data order, and false if any DMU
// was not solved to optimality.
func classify(res *model.Result, working []string) ([]string, bool) {
	var efficient []string
	for _, code := range working {
		if st, ok := res.Primary.Status(code); !ok || st != solver.StatusOptimal {
			return nil, false
		}
		if res.Primary.IsEfficient(code) {
			efficient = append(efficient, code)
		}
	}
	return efficient, true
}

func notify(cfg *peelConfig, rank int, res *model.Result, ranked []string) {
	if cfg.onRound != nil {
		cfg.onRound(rank, res, slices.Clone(ranked))
	}
}

func releaseRound(first, res *model.Result) {
	if res != first {
		_ = res.Release()
	}
}

// SortedByRank returns the ranked DMU codes ordered by rank and then by
// their order in codes. Unranked DMUs come last.
func SortedByRank(ranks map[string]int, codes []string) []string {
	out := slices.Clone(codes)
	key := func(code string) int {
		if r := ranks[code]; r != RankInfeasible {
			return r
		}
		return math.MaxInt
	}
	slices.SortStableFunc(out, func(a, b string) int { return cmp.Compare(key(a), key(b)) })
	return out
}
