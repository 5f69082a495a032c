package criteria

import "sort"

// Result is the weighting outcome for a single criterion.
type Result struct {
	index     int
	criterion string
	weight    float64
	score     float64
	rank      int
}

// New creates a criterion result. index is the criterion's position in the request.
func New(index int, criterion string, weight, score float64, rank int) Result {
	return Result{index: index, criterion: criterion, weight: weight, score: score, rank: rank}
}

// Index returns the criterion's position in the request.
func (r *Result) Index() int { return r.index }

// Criterion returns the criterion text (empty for vector-only requests without labels).
func (r *Result) Criterion() string { return r.criterion }

// Weight returns the final weight.
func (r *Result) Weight() float64 { return r.weight }

// Score returns the raw similarity score.
func (r *Result) Score() float64 { return r.score }

// Rank returns the 1-based position by descending weight.
func (r *Result) Rank() int { return r.rank }

// Ranks assigns 1-based ranks by descending weight. Equal weights keep input order, so the
// earlier index gets the better rank.
func Ranks(weights []float64) []int {
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	ranks := make([]int, len(weights))
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// SortByRank orders results by rank ascending, in place.
func SortByRank(results []Result) {
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].rank < results[b].rank
	})
}
