package quality

// #region imports
import (
	"fmt"
	"strings"

	"github.com/yzamari/viral-videos-sub000/internal/stage"
)

// #endregion

// #region fallback-scores

// fallbackScores are the conservative defaults substituted when the oracle
// response is missing or malformed. Script stages trust the upstream writer
// more than media stages; sync and effects are the least observable.
var fallbackScores = map[stage.Stage]float64{
	stage.ScriptDraft:      0.7,
	stage.ScriptValidated:  0.7,
	stage.AudioGenerated:   0.6,
	stage.VideoGenerated:   0.6,
	stage.AudioVideoSynced: 0.5,
	stage.EffectsApplied:   0.5,
	stage.QualityEnhanced:  0.6,
	stage.FinalComposed:    0.6,
}

func fallbackScoreFor(st stage.Stage) float64 {
	if v, ok := fallbackScores[st]; ok {
		return v
	}
	return 0.5
}

// #endregion fallback-scores

// #region criteria

// stageCriteria names what the oracle should judge per stage.
var stageCriteria = map[stage.Stage]string{
	stage.ScriptDraft:      "narrative coherence, pacing, and suitability for a short video",
	stage.ScriptValidated:  "consistency of the validated script with its draft and absence of contradictions",
	stage.AudioGenerated:   "audio clarity, narration quality, and match between actual and target duration",
	stage.VideoGenerated:   "visual quality, scene continuity, and fidelity to the script",
	stage.AudioVideoSynced: "alignment of audio narration with the video timeline",
	stage.EffectsApplied:   "appropriateness and subtlety of applied effects and transitions",
	stage.QualityEnhanced:  "improvement over the pre-enhancement cut without introduced artifacts",
	stage.FinalComposed:    "overall composite quality of the finished video as delivered",
}

// #endregion criteria

// #region build-rubric

const rubricSchema = `{"score": number in [0,1], "quality_level": string, "issues": [string], "suggestions": [string], "metrics": {string: number}}`

// BuildRubric composes the oracle prompt for one stage evaluation.
func BuildRubric(st stage.Stage, art Artifacts) string {
	criteria, ok := stageCriteria[st]
	if !ok {
		criteria = "overall quality of the stage output"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a strict quality reviewer for an automated video pipeline. ")
	fmt.Fprintf(&b, "Evaluate the %s stage on: %s. ", st, criteria)
	fmt.Fprintf(&b, "Respond strictly with JSON matching this schema: %s. No prose.\n", rubricSchema)

	if art.ScriptText != "" {
		fmt.Fprintf(&b, "Script:\n%s\n", art.ScriptText)
	}
	if len(art.MediaRefs) > 0 {
		fmt.Fprintf(&b, "Artifacts: %s\n", strings.Join(art.MediaRefs, ", "))
	}
	if art.TargetDurationSecs > 0 {
		fmt.Fprintf(&b, "Target duration: %.1fs", art.TargetDurationSecs)
		if art.ActualDurationSecs > 0 {
			fmt.Fprintf(&b, ", actual duration: %.1fs", art.ActualDurationSecs)
		}
		b.WriteString("\n")
	}
	if art.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", art.Notes)
	}
	return b.String()
}

// #endregion build-rubric
