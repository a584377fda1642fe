package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used by the detection pipeline.
const (
	AttrRequestID = "request.id"

	AttrAudioFormat     = "audio.format"
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioChannels   = "audio.channels"
	AttrAudioDataSize   = "audio.data_size"
	AttrAudioDurationMs = "audio.duration_ms"

	AttrFeatureDim = "features.dimension"

	AttrVerdictLabel      = "verdict.label"
	AttrVerdictConfidence = "verdict.confidence"
	AttrSpeechRatio       = "speech.ratio"
)

// AudioAttrs creates attributes describing an audio payload.
func AudioAttrs(format string, sampleRate, channels, dataSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAudioFormat, format),
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioChannels, channels),
		attribute.Int(AttrAudioDataSize, dataSize),
	}
}

// StartAnalyze creates the root span for one detection request.
func StartAnalyze(ctx context.Context, requestID, format string, dataSize int) (context.Context, trace.Span) {
	return StartSpan(ctx, "detector.analyze",
		trace.WithAttributes(
			attribute.String(AttrRequestID, requestID),
			attribute.String(AttrAudioFormat, format),
			attribute.Int(AttrAudioDataSize, dataSize),
		),
	)
}

// StartStage creates a span for a single pipeline stage
// (ingest, profile, gate, extract, classify).
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "detector."+stage, trace.WithAttributes(attrs...))
}

// RecordError records an error on a span and marks it failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordVerdict annotates a span with the final verdict.
func RecordVerdict(span trace.Span, label string, confidence float32) {
	span.SetAttributes(
		attribute.String(AttrVerdictLabel, label),
		attribute.Float64(AttrVerdictConfidence, float64(confidence)),
	)
}
