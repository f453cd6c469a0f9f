// Package scoring combines per-question scores into proposal-level results.
// Everything here is a plain computation over its arguments: no errors, no
// I/O, all decisions pushed to call sites.
package scoring

import "github.com/bcgov/digital-marketplace-sub005/internal/models"

// AggregateQuestionScore converts a set of question scores into a percentage
// of the maximum available across the given questions. A question with no
// recorded score adds nothing to the numerator but its maximum still counts
// in the denominator, so unscored questions count against the proponent.
// ok is false when the questions carry no score weight at all, in which case
// the caller should surface "no score" rather than a zero.
func AggregateQuestionScore(scores []models.QuestionScore, questions []models.Question) (percentage float64, ok bool) {
	byOrder := make(map[int]float64, len(scores))
	for _, s := range scores {
		byOrder[s.Order] = s.Score
	}

	var actual, max float64
	for _, q := range questions {
		max += q.MaxScore
		if score, scored := byOrder[q.Order]; scored {
			actual += score
		}
	}

	if max == 0 {
		return 0, false
	}
	return actual / max * 100, true
}

// BelowMinimum reports whether a question's score falls short of its minimum.
// Questions without a minimum, and questions that were never scored, are
// never below minimum. Used for warnings only; it does not block submission.
func BelowMinimum(question models.Question, score *float64) bool {
	if question.MinimumScore == nil || score == nil {
		return false
	}
	return *score < *question.MinimumScore
}

// Summarize computes the highest and running-average score across proposals
// in a single pass. The average is maintained incrementally as
// (average*i + score)/(i+1) with i the position in the input list; entries
// with no score (or a zero score) are skipped without advancing the mean.
func Summarize(scores []*float64) (highest, average float64) {
	for i, score := range scores {
		if score == nil || *score == 0 {
			continue
		}
		if *score > highest {
			highest = *score
		}
		average = (average*float64(i) + *score) / float64(i+1)
	}
	return highest, average
}
