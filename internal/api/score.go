package api

// Keyphrase is a phrase ranked by its relevance to the text it was
// extracted from.
type Keyphrase struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// ScoreResult is the outcome of one pipeline run. Score and
// MissingKeywords are only meaningful together.
type ScoreResult struct {
	// Score is the best chunk similarity scaled to [0, 100] and
	// rounded to two decimals.
	Score float64 `json:"ats_score"`

	// MissingKeywords holds target keyphrases absent from the candidate,
	// ordered by their relevance to the target.
	MissingKeywords []string `json:"missing_skills"`
}

func EmptyScoreResult() ScoreResult {
	return ScoreResult{
		Score:           0,
		MissingKeywords: []string{},
	}
}
