package retriever

import (
	"math"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/vector"
)

// mmrSelect picks k candidate positions by maximal marginal relevance. The
// first pick is the candidate most similar to the query; each following pick
// maximizes lambda*sim(c, query) - (1-lambda)*max sim(c, selected). lambda=1
// reduces to pure similarity order, lambda=0 to pure diversity. Vectors are
// unit-normalized, so inner product is cosine similarity.
func mmrSelect(query []float32, candidates [][]float32, lambda float64, k int) []int {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	querySim := make([]float64, n)
	for i, c := range candidates {
		querySim[i] = float64(vector.InnerProduct(query, c))
	}

	selected := make([]int, 0, k)
	picked := make([]bool, n)
	// maxSelSim[i] tracks the highest similarity between candidate i and any
	// selected candidate, updated incrementally after each pick.
	maxSelSim := make([]float64, n)
	for i := range maxSelSim {
		maxSelSim[i] = math.Inf(-1)
	}

	best := 0
	for i := 1; i < n; i++ {
		if querySim[i] > querySim[best] {
			best = i
		}
	}
	selected = append(selected, best)
	picked[best] = true

	for len(selected) < k {
		last := selected[len(selected)-1]
		for i := 0; i < n; i++ {
			if picked[i] {
				continue
			}
			sim := float64(vector.InnerProduct(candidates[i], candidates[last]))
			if sim > maxSelSim[i] {
				maxSelSim[i] = sim
			}
		}

		next := -1
		var nextScore float64
		for i := 0; i < n; i++ {
			if picked[i] {
				continue
			}
			score := lambda*querySim[i] - (1-lambda)*maxSelSim[i]
			if next == -1 || score > nextScore {
				next = i
				nextScore = score
			}
		}
		if next == -1 {
			break
		}
		selected = append(selected, next)
		picked[next] = true
	}
	return selected
}
