// Package scoring holds the arithmetic of an interview: per-question bounds,
// the aggregate score, skill rating validation and the pass threshold.
package scoring

import (
	"fmt"
	"math"
)

const (
	// DefaultQuestionTotal is the maximum score of a single question.
	DefaultQuestionTotal = 5.0
	// DefaultPassThreshold is the minimum final score that passes an interview.
	DefaultPassThreshold = 7.0
	// InterviewScale is the upper bound of a final interview score.
	InterviewScale = 10.0

	MinSkillRating = 1
	MaxSkillRating = 5
)

// Item is one scored question.
type Item struct {
	Obtained float64
	Total    float64
}

// BoundQuestionScore clamps a raw model score into [0, total].
func BoundQuestionScore(raw, total float64) float64 {
	if total <= 0 || math.IsNaN(raw) {
		return 0
	}
	return math.Max(0, math.Min(raw, total))
}

// AggregateInterviewScore scales the obtained points of all items to
// [0, InterviewScale], rounded to two decimals. It is zero when no points
// were available.
func AggregateInterviewScore(items []Item) float64 {
	var obtained, total float64
	for _, item := range items {
		obtained += item.Obtained
		total += item.Total
	}
	if total <= 0 {
		return 0
	}
	return Round2(obtained / total * InterviewScale)
}

// BoundModelScore clamps an overall model score into [0, InterviewScale].
func BoundModelScore(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	return Round2(math.Max(0, math.Min(raw, InterviewScale)))
}

// AggregateSkillRating rounds a model-provided rating to an integer and
// rejects values outside [MinSkillRating, MaxSkillRating].
func AggregateSkillRating(skill string, rating float64) (int, error) {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0, fmt.Errorf("skill %q: rating is not a number", skill)
	}
	rounded := int(math.Round(rating))
	if rounded < MinSkillRating || rounded > MaxSkillRating {
		return 0, fmt.Errorf("skill %q: rating %v outside [%d, %d]", skill, rating, MinSkillRating, MaxSkillRating)
	}
	return rounded, nil
}

// IsPassed reports whether a final score meets the threshold. A
// non-positive threshold falls back to DefaultPassThreshold.
func IsPassed(finalScore, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}
	return finalScore >= threshold
}

// Percentage expresses a final score as a percentage of InterviewScale.
func Percentage(finalScore float64) float64 {
	return Round2(finalScore / InterviewScale * 100)
}

// Difficulty is what the question generator needs to pitch questions at the
// right level.
type Difficulty struct {
	CandidateYears int
	RequiredYears  int
}

// DifficultyInputs returns the experience pair used to calibrate question difficulty.
func DifficultyInputs(candidateYears, requiredYears int) Difficulty {
	return Difficulty{CandidateYears: max(candidateYears, 0), RequiredYears: max(requiredYears, 0)}
}

// Gap is how many years the candidate is short of the requirement, never negative.
func (d Difficulty) Gap() int {
	return max(d.RequiredYears-d.CandidateYears, 0)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
