package docqa

import "github.com/siherrmann/docqa/model"

// ConfidenceFunc scores how well the retrieved chunks support an answer.
// Input is the threshold-filtered retrieval in descending similarity order;
// output must be in [0, 1].
type ConfidenceFunc func(results []*model.RetrievalResult) float64

// MeanTopK returns a confidence function that averages the similarity of
// the k best retrieved chunks, or of all of them when fewer were retrieved.
// The result is clamped to [0, 1].
func MeanTopK(k int) ConfidenceFunc {
	return func(results []*model.RetrievalResult) float64 {
		if len(results) == 0 || k <= 0 {
			return 0
		}

		n := k
		if len(results) < n {
			n = len(results)
		}

		sum := 0.0
		for _, result := range results[:n] {
			sum += result.Similarity
		}

		confidence := sum / float64(n)
		if confidence < 0 {
			return 0
		}
		if confidence > 1 {
			return 1
		}
		return confidence
	}
}
