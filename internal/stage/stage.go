package stage

// #region stages

// Stage identifies one discrete step of the content-generation pipeline.
type Stage string

const (
	ScriptDraft      Stage = "script_draft"
	ScriptValidated  Stage = "script_validated"
	AudioGenerated   Stage = "audio_generated"
	VideoGenerated   Stage = "video_generated"
	AudioVideoSynced Stage = "audio_video_synced"
	EffectsApplied   Stage = "effects_applied"
	QualityEnhanced  Stage = "quality_enhanced"
	FinalComposed    Stage = "final_composed"
)

// #endregion stages

// #region order

// order is the pipeline sequence. FinalComposed is terminal.
var order = []Stage{
	ScriptDraft,
	ScriptValidated,
	AudioGenerated,
	VideoGenerated,
	AudioVideoSynced,
	EffectsApplied,
	QualityEnhanced,
	FinalComposed,
}

// All returns the pipeline stages in execution order.
func All() []Stage {
	out := make([]Stage, len(order))
	copy(out, order)
	return out
}

// #endregion order

// #region accessors

// Index returns the stage's position in the pipeline, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s names a known pipeline stage.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Next returns the stage following s, or false at the end of the pipeline.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(order) {
		return "", false
	}
	return order[i+1], true
}

// Terminal reports whether s is the final pipeline stage.
func (s Stage) Terminal() bool {
	return s == FinalComposed
}

// #endregion accessors
