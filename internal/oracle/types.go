package oracle

import "context"

// #region score-source

// ScoreSource tags how a StageScore was produced.
type ScoreSource string

const (
	// SourceParsed means the oracle returned well-formed JSON.
	SourceParsed ScoreSource = "parsed"
	// SourceFallback means the response was missing or malformed and a
	// conservative default was substituted.
	SourceFallback ScoreSource = "fallback"
)

// #endregion score-source

// #region stage-score

// StageScore is the oracle's verdict for one stage evaluation.
type StageScore struct {
	Score        float64
	QualityLevel string
	Issues       []string
	Suggestions  []string
	Metrics      map[string]float64
	Source       ScoreSource
}

// Fallback constructs the conservative default score used when the oracle
// is unreachable or its response cannot be parsed.
func Fallback(score float64, reason string) StageScore {
	return StageScore{
		Score:   score,
		Issues:  []string{reason},
		Metrics: map[string]float64{},
		Source:  SourceFallback,
	}
}

// #endregion stage-score

// #region scorer

// Scorer abstracts the external evaluation oracle.
type Scorer interface {
	Score(ctx context.Context, rubric string) (StageScore, error)
}

// #endregion scorer
