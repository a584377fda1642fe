// Package detector orchestrates the inference pipeline: raw audio bytes
// → normalized waveform → feature vector → spoof verdict.
//
// The pipeline is strictly linear and synchronous. A Detector holds no
// per-request state; the only process-wide state is the model, which is
// loaded once, passed in by reference and never mutated. Any stage
// failure aborts the call and surfaces that stage's error to the caller
// unchanged; there is never a fallback verdict.
package detector

import (
	"context"
	"fmt"
	"log"

	"github.com/voiceguard-ai/voiceguard/pkg/audio"
	"github.com/voiceguard-ai/voiceguard/pkg/classifier"
	"github.com/voiceguard-ai/voiceguard/pkg/features"
	"github.com/voiceguard-ai/voiceguard/pkg/speech"
	"github.com/voiceguard-ai/voiceguard/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds configuration for the detector.
type Config struct {
	// Threshold is the decision boundary on the spoof probability:
	// confidence >= Threshold yields the "spoofed" label.
	Threshold float32

	Ingest   audio.IngestConfig
	Features features.Config
}

// DefaultConfig returns the pinned pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.5,
		Ingest:    audio.DefaultIngestConfig(),
		Features:  features.DefaultConfig(),
	}
}

// IsValid validates the detector configuration, including the cross-
// component invariant that ingestion normalizes to the rate the
// extractor expects.
func (c Config) IsValid() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("invalid Threshold: %f", c.Threshold)
	}
	if err := c.Ingest.IsValid(); err != nil {
		return err
	}
	if err := c.Features.IsValid(); err != nil {
		return err
	}
	if c.Ingest.TargetSampleRate != c.Features.SampleRate {
		return fmt.Errorf("ingest rate %d does not match feature rate %d",
			c.Ingest.TargetSampleRate, c.Features.SampleRate)
	}
	return nil
}

// Detector runs the full inference pipeline. Safe for concurrent use:
// the model serializes its own session access and everything else is
// read-only after construction.
type Detector struct {
	cfg       Config
	ingestor  *audio.Ingestor
	extractor *features.Extractor
	model     classifier.Model
	gate      speech.Gate
}

// New creates a detector around a loaded model. gate is optional and
// may be nil; when present it contributes speech-ratio metadata to
// results. The model's input shape is checked against the extractor's
// output dimension at construction so a mismatched artifact fails fast
// instead of on the first request.
func New(cfg Config, model classifier.Model, gate speech.Gate) (*Detector, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}

	ingestor, err := audio.NewIngestor(cfg.Ingest)
	if err != nil {
		return nil, err
	}
	extractor, err := features.NewExtractor(cfg.Features)
	if err != nil {
		return nil, err
	}

	if model.Dimension() != extractor.Dimension() {
		return nil, fmt.Errorf("%w: model expects %d, extractor produces %d",
			classifier.ErrShapeMismatch, model.Dimension(), extractor.Dimension())
	}

	return &Detector{
		cfg:       cfg,
		ingestor:  ingestor,
		extractor: extractor,
		model:     model,
		gate:      gate,
	}, nil
}

// Threshold returns the configured decision threshold.
func (d *Detector) Threshold() float32 {
	return d.cfg.Threshold
}

// Ingestor exposes the detector's ingestor so callers holding raw PCM
// can normalize it before AnalyzeWaveform.
func (d *Detector) Ingestor() *audio.Ingestor {
	return d.ingestor
}

// Analyze decodes raw audio bytes in the declared format and runs the
// full pipeline, returning a verdict plus acoustic metadata.
func (d *Detector) Analyze(ctx context.Context, data []byte, format string) (*Result, error) {
	ctx, span := trace.StartStage(ctx, "ingest",
		attribute.String(trace.AttrAudioFormat, format),
		attribute.Int(trace.AttrAudioDataSize, len(data)),
	)
	w, err := d.ingestor.Ingest(data, format)
	if err != nil {
		trace.RecordError(span, err)
		span.End()
		return nil, err
	}
	span.SetAttributes(
		attribute.Int(trace.AttrAudioSampleRate, w.SampleRate),
		attribute.Int64(trace.AttrAudioDurationMs, w.Duration().Milliseconds()),
	)
	span.End()

	return d.AnalyzeWaveform(ctx, w)
}

// AnalyzeWaveform runs the pipeline on an already normalized waveform
// (mono, target sample rate). This is the entry point for audio that
// arrives as raw PCM, e.g. from the browser recorder or a local capture
// device.
func (d *Detector) AnalyzeWaveform(ctx context.Context, w *audio.Waveform) (*Result, error) {
	result := &Result{}

	// Acoustic metadata is advisory: it never fails and never gates the
	// verdict.
	_, span := trace.StartStage(ctx, "profile")
	result.Profile = audio.ComputeProfile(w)
	span.End()

	if d.gate != nil {
		_, span := trace.StartStage(ctx, "gate")
		ratio, err := d.gate.SpeechRatio(w)
		if err != nil {
			// Advisory metadata only: log and continue.
			log.Printf("[Detector] speech gate failed: %v", err)
			trace.RecordError(span, err)
		} else {
			result.SpeechRatio = &ratio
			span.SetAttributes(attribute.Float64(trace.AttrSpeechRatio, ratio))
		}
		span.End()
	}

	_, span = trace.StartStage(ctx, "extract")
	vec, err := d.extractor.Extract(w)
	if err != nil {
		trace.RecordError(span, err)
		span.End()
		return nil, err
	}
	span.SetAttributes(attribute.Int(trace.AttrFeatureDim, len(vec)))
	span.End()

	_, span = trace.StartStage(ctx, "classify")
	score, err := d.model.Score(vec)
	if err != nil {
		trace.RecordError(span, err)
		span.End()
		return nil, err
	}

	result.Verdict = NewVerdict(score, d.cfg.Threshold)
	trace.RecordVerdict(span, string(result.Verdict.Label), result.Verdict.Confidence)
	span.End()

	return result, nil
}
