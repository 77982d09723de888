// Package ai defines the provider-neutral types returned by match scoring
// and career guidance oracles.
package ai

// MatchAssessment is the outcome of scoring a freelancer against a job
type MatchAssessment struct {
	Score       int    `json:"match_score"`
	Explanation string `json:"explanation"`

	// Fallback is true when the score came from skill overlap instead of
	// the model.
	Fallback bool `json:"fallback,omitempty"`

	// Raw holds the unparsed model response for debugging
	Raw string `json:"-"`
}
