// Package critweight weights evaluation criteria by their semantic relevance to a question.
//
// Each criterion is scored by the similarity of its embedding to the question embedding.
// Scores are turned into a distribution (softmax or min-max), clamped into a weight range
// while keeping the sum at 1, and optionally rounded so the rounded weights still sum to 1.
//
// # Precomputed vectors
//
//	res, _ := critweight.Compute(query, vectors,
//	    critweight.WithMetric("cosine"),
//	    critweight.WithBounds(0.05, 0.45),
//	    critweight.WithLabels([]string{"Team", "Finance", "Market"}),
//	)
//	for _, w := range res.Weights {
//	    fmt.Println(w.Rank, w.Criterion, w.Weight)
//	}
//
// # Texts with an embedding provider
//
//	calc, _ := critweight.New(critweight.WithEmbedder(myEmbedder))
//	res, _ := calc.Calculate(ctx, "What drives success?", "Business",
//	    []string{"Team", "Finance", "Market"})
package critweight
