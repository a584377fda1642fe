package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSine generates a mono sine wave at the given frequency.
func makeSine(freq float64, amp float32, durSec float64, sampleRate int) []float32 {
	n := int(durSec * float64(sampleRate))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return samples
}

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()
	g, err := NewIngestor(DefaultIngestConfig())
	require.NoError(t, err)
	return g
}

func TestIngestWAVRoundtrip(t *testing.T) {
	g := newTestIngestor(t)

	orig := makeSine(440, 0.5, 1.0, 16000)
	data, err := EncodeWAV(orig, 16000)
	require.NoError(t, err)

	w, err := g.Ingest(data, "wav")
	require.NoError(t, err)

	assert.Equal(t, 16000, w.SampleRate)
	assert.Equal(t, 1, w.Channels)
	require.Equal(t, len(orig), len(w.Samples))

	// 16-bit quantization allows a small round-trip error.
	for i := 0; i < len(orig); i += 997 {
		assert.InDelta(t, orig[i], w.Samples[i], 1e-3)
	}
}

func TestIngestAcceptsFormatAliases(t *testing.T) {
	g := newTestIngestor(t)
	data, err := EncodeWAV(makeSine(200, 0.3, 0.5, 16000), 16000)
	require.NoError(t, err)

	for _, format := range []string{"wav", ".WAV", "audio/wav", "audio/x-wav", "wave"} {
		_, err := g.Ingest(data, format)
		assert.NoError(t, err, "format %q", format)
	}
}

func TestIngestResamplesToTargetRate(t *testing.T) {
	g := newTestIngestor(t)

	data, err := EncodeWAV(makeSine(200, 0.4, 1.0, 8000), 8000)
	require.NoError(t, err)

	w, err := g.Ingest(data, "wav")
	require.NoError(t, err)
	assert.Equal(t, 16000, w.SampleRate)

	// Duration is preserved exactly: 1s in, 1s out.
	assert.Equal(t, 16000, len(w.Samples))
}

func TestResamplePreservesDuration(t *testing.T) {
	// Clips that meet the 1-second minimum at the source rate must still
	// meet it after resampling; the filter tail must not be dropped.
	for _, srcRate := range []int{8000, 22050, 44100, 48000} {
		w := &Waveform{Samples: makeSine(200, 0.4, 1.0, srcRate), SampleRate: srcRate, Channels: 1}
		out, err := Resample(w, 16000)
		require.NoError(t, err, "from %d Hz", srcRate)
		assert.Equal(t, 16000, len(out.Samples), "from %d Hz", srcRate)
		assert.Equal(t, 16000, out.SampleRate)
	}
}

func TestIngestMalformedInput(t *testing.T) {
	g := newTestIngestor(t)

	garbage := []byte("definitely not an audio container, just text bytes.....")
	for _, format := range []string{"wav", "mp3", "flac", "ogg"} {
		_, err := g.Ingest(garbage, format)
		assert.ErrorIs(t, err, ErrDecode, "format %q", format)
	}
}

func TestIngestEmptyInput(t *testing.T) {
	g := newTestIngestor(t)
	_, err := g.Ingest(nil, "wav")
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	g := newTestIngestor(t)
	_, err := g.Ingest([]byte{0x00, 0x01}, "aiff")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIngestSilenceIsValid(t *testing.T) {
	g := newTestIngestor(t)

	data, err := EncodeWAV(make([]float32, 16000), 16000)
	require.NoError(t, err)

	w, err := g.Ingest(data, "wav")
	require.NoError(t, err)
	assert.Equal(t, 16000, len(w.Samples))
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"wav", "wav"},
		{".WAV", "wav"},
		{"Wave", "wav"},
		{"audio/x-wav", "wav"},
		{"audio/mpeg", "mp3"},
		{"MP3", "mp3"},
		{"audio/ogg; codecs=vorbis", "ogg"},
		{"oga", "ogg"},
		{".flac", "flac"},
		{"aiff", "aiff"},
	}
	for _, tt := range tests {
		if got := NormalizeFormat(tt.in); got != tt.want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewIngestorInvalidConfig(t *testing.T) {
	_, err := NewIngestor(IngestConfig{TargetSampleRate: 0})
	assert.Error(t, err)
}

func TestErrorsAreDistinct(t *testing.T) {
	for _, pair := range [][2]error{
		{ErrDecode, ErrEmptyAudio},
		{ErrDecode, ErrUnsupportedFormat},
		{ErrEmptyAudio, ErrUnsupportedFormat},
	} {
		if errors.Is(pair[0], pair[1]) {
			t.Errorf("%v should not match %v", pair[0], pair[1])
		}
	}
}
