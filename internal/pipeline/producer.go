package pipeline

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/yzamari/viral-videos-sub000/internal/backend"
	"github.com/yzamari/viral-videos-sub000/internal/orchestrator"
	"github.com/yzamari/viral-videos-sub000/internal/quality"
	"github.com/yzamari/viral-videos-sub000/internal/stage"
)

// #endregion

// #region clip-producer

// ClipProducer produces stage artifacts for a short generated video about a
// single topic. Script stages are synthesized locally; media stages go
// through the retry orchestrator to the generation backend. Generation
// exhaustion never fails the pipeline; the affected stage gets a placeholder
// reference and the gate scores it accordingly.
type ClipProducer struct {
	orch         *orchestrator.Orchestrator
	gen          backend.Generator
	topic        string
	style        string
	durationSecs float64

	script   string
	audioRef string
	videoRef string
}

// ClipOptions configures a clip producer.
type ClipOptions struct {
	Orchestrator *orchestrator.Orchestrator
	Generator    backend.Generator
	Topic        string
	Style        string
	DurationSecs float64
}

// NewClipProducer validates options and builds a producer.
func NewClipProducer(opts ClipOptions) (*ClipProducer, error) {
	if opts.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	duration := opts.DurationSecs
	if duration <= 0 {
		duration = 30
	}
	style := opts.Style
	if style == "" {
		style = "cinematic"
	}
	return &ClipProducer{
		orch:         opts.Orchestrator,
		gen:          opts.Generator,
		topic:        opts.Topic,
		style:        style,
		durationSecs: duration,
	}, nil
}

var _ Producer = (*ClipProducer)(nil)

// #endregion clip-producer

// #region produce

// Produce builds the artifacts for one stage attempt.
func (p *ClipProducer) Produce(ctx context.Context, st stage.Stage, attempt int) (quality.Artifacts, error) {
	switch st {
	case stage.ScriptDraft:
		p.script = p.draftScript(attempt)
	case stage.ScriptValidated:
		p.script = tightenScript(p.script)
	case stage.AudioGenerated:
		p.audioRef = p.generateMedia(ctx, st, p.audioPrompt())
	case stage.VideoGenerated:
		p.videoRef = p.generateMedia(ctx, st, p.videoPrompt())
	case stage.AudioVideoSynced, stage.EffectsApplied, stage.QualityEnhanced, stage.FinalComposed:
		// Assembly stages operate on the already-produced media references.
	default:
		return quality.Artifacts{}, fmt.Errorf("unknown stage %q", st)
	}

	return quality.Artifacts{
		ScriptText:         p.script,
		MediaRefs:          p.mediaRefs(),
		TargetDurationSecs: p.durationSecs,
		ActualDurationSecs: p.durationSecs,
		Notes:              fmt.Sprintf("topic=%s style=%s attempt=%d", p.topic, p.style, attempt),
	}, nil
}

// Enhance rewrites the script with the gate's suggestions appended as
// directives. Media stages cannot be partially enhanced; their artifacts are
// returned unchanged.
func (p *ClipProducer) Enhance(ctx context.Context, st stage.Stage, needed []string) (quality.Artifacts, error) {
	if st == stage.ScriptDraft || st == stage.ScriptValidated {
		p.script = p.script + "\n\nRevisions applied: " + strings.Join(needed, "; ")
	}
	return quality.Artifacts{
		ScriptText:         p.script,
		MediaRefs:          p.mediaRefs(),
		TargetDurationSecs: p.durationSecs,
		ActualDurationSecs: p.durationSecs,
		Notes:              fmt.Sprintf("topic=%s style=%s enhanced", p.topic, p.style),
	}, nil
}

// #endregion produce

// #region media

// generateMedia runs one generation request through the retry orchestrator.
// On exhaustion it logs the failure history and returns a placeholder
// reference so downstream stages still have something to assemble.
func (p *ClipProducer) generateMedia(ctx context.Context, st stage.Stage, prompt string) string {
	requestID := string(st) + "-" + uuid.New().String()

	res := p.orch.Execute(ctx, requestID, prompt, func(ctx context.Context, request string) (string, error) {
		art, err := p.gen.Generate(ctx, backend.Request{
			Prompt:       request,
			Style:        p.style,
			DurationSecs: p.durationSecs,
			AspectRatio:  "16:9",
		})
		if err != nil {
			return "", err
		}
		return art.URL, nil
	})

	if res.Success {
		return res.Result
	}
	log.Printf("[PIPE] %s generation exhausted after %d attempts (%v), using placeholder", st, res.Attempts, res.FailureTypes)
	return fmt.Sprintf("placeholder://%s/%s", st, requestID)
}

// #endregion media

// #region prompts

func (p *ClipProducer) draftScript(attempt int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Short %s video about %s, about %.0f seconds.\n\n", p.style, p.topic, p.durationSecs)
	b.WriteString("Opening: a striking visual hook that introduces the topic.\n")
	b.WriteString("Middle: three quick scenes developing the idea with concrete imagery.\n")
	b.WriteString("Closing: a memorable final frame and a one-line takeaway.\n")
	if attempt > 0 {
		fmt.Fprintf(&b, "\nRewrite %d: sharper pacing, more specific imagery, stronger hook.\n", attempt)
	}
	return b.String()
}

func tightenScript(script string) string {
	lines := strings.Split(script, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}
	return strings.Join(kept, "\n")
}

func (p *ClipProducer) audioPrompt() string {
	return fmt.Sprintf("Narration and ambient soundtrack for a %s video about %s. %s", p.style, p.topic, firstLine(p.script))
}

func (p *ClipProducer) videoPrompt() string {
	return fmt.Sprintf("%s footage about %s. %s", p.style, p.topic, firstLine(p.script))
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func (p *ClipProducer) mediaRefs() []string {
	var refs []string
	if p.audioRef != "" {
		refs = append(refs, p.audioRef)
	}
	if p.videoRef != "" {
		refs = append(refs, p.videoRef)
	}
	return refs
}

// #endregion prompts
