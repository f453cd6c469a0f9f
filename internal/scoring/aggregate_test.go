package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcgov/digital-marketplace-sub005/internal/models"
)

func questions(maxScores ...float64) []models.Question {
	result := make([]models.Question, 0, len(maxScores))
	for i, max := range maxScores {
		result = append(result, models.Question{Order: i, MaxScore: max})
	}
	return result
}

func TestAggregateQuestionScoreFullMarks(t *testing.T) {
	qs := questions(5, 10, 15)
	scores := []models.QuestionScore{
		{Order: 0, Score: 5},
		{Order: 1, Score: 10},
		{Order: 2, Score: 15},
	}

	got, ok := AggregateQuestionScore(scores, qs)
	require.True(t, ok)
	require.Equal(t, 100.0, got)
}

func TestAggregateQuestionScoreOrderIndependent(t *testing.T) {
	qs := questions(5, 10, 15)
	forward := []models.QuestionScore{
		{Order: 0, Score: 3},
		{Order: 1, Score: 6},
		{Order: 2, Score: 9},
	}
	reversed := []models.QuestionScore{
		{Order: 2, Score: 9},
		{Order: 0, Score: 3},
		{Order: 1, Score: 6},
	}

	a, ok := AggregateQuestionScore(forward, qs)
	require.True(t, ok)
	b, ok := AggregateQuestionScore(reversed, qs)
	require.True(t, ok)
	require.Equal(t, a, b)
	require.InDelta(t, 60.0, a, 1e-9)
}

func TestAggregateQuestionScoreUnscoredCountsAgainst(t *testing.T) {
	qs := questions(10, 10)
	scores := []models.QuestionScore{{Order: 0, Score: 10}}

	got, ok := AggregateQuestionScore(scores, qs)
	require.True(t, ok)
	require.Equal(t, 50.0, got)
}

func TestAggregateQuestionScoreNoQuestions(t *testing.T) {
	got, ok := AggregateQuestionScore(nil, nil)
	require.False(t, ok)
	require.Equal(t, 0.0, got)

	got, ok = AggregateQuestionScore([]models.QuestionScore{}, []models.Question{})
	require.False(t, ok)
	require.Equal(t, 0.0, got)
}

func TestBelowMinimum(t *testing.T) {
	min := 3.0
	score := 2.0
	passing := 4.0

	require.True(t, BelowMinimum(models.Question{MinimumScore: &min}, &score))
	require.False(t, BelowMinimum(models.Question{MinimumScore: &min}, &passing))
	require.False(t, BelowMinimum(models.Question{MinimumScore: &min}, nil))
	require.False(t, BelowMinimum(models.Question{}, &score))
}

func TestSummarize(t *testing.T) {
	a, b, c := 60.0, 90.0, 75.0
	highest, average := Summarize([]*float64{&a, &b, &c})
	require.Equal(t, 90.0, highest)
	require.InDelta(t, 75.0, average, 1e-9)
}

func TestSummarizeSkipsMissingWithoutAdvancing(t *testing.T) {
	// A nil entry keeps the running mean but the next scored entry divides by
	// its own position.
	b := 80.0
	highest, average := Summarize([]*float64{nil, &b})
	require.Equal(t, 80.0, highest)
	require.InDelta(t, 40.0, average, 1e-9)

	zero := 0.0
	highest, average = Summarize([]*float64{&zero, &b})
	require.Equal(t, 80.0, highest)
	require.InDelta(t, 40.0, average, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	highest, average := Summarize(nil)
	require.Equal(t, 0.0, highest)
	require.Equal(t, 0.0, average)
}
