package audio

import (
	"bytes"
	"os"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeFLACStereo builds a 16-bit stereo FLAC clip with verbatim
// subframes, so the decode path can be tested against known samples.
func encodeFLACStereo(t *testing.T, left, right []int32, sampleRate int) []byte {
	t.Helper()

	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  65535,
		SampleRate:    uint32(sampleRate),
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      uint64(len(left)),
	}
	enc, err := flac.NewEncoder(&buf, info)
	require.NoError(t, err)

	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(len(left)),
			SampleRate:        uint32(sampleRate),
			Channels:          frame.ChannelsLR,
			BitsPerSample:     16,
		},
		Subframes: []*frame.Subframe{
			{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: left, NSamples: len(left)},
			{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: right, NSamples: len(right)},
		},
	}
	require.NoError(t, enc.WriteFrame(f))
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestDecodeFLAC(t *testing.T) {
	const n = 4096
	left := make([]int32, n)
	right := make([]int32, n)
	for i := range left {
		left[i] = 16384  // +0.5
		right[i] = -8192 // -0.25
	}
	data := encodeFLACStereo(t, left, right, 22050)

	w, err := decodeFLAC(data)
	require.NoError(t, err)

	assert.Equal(t, 22050, w.SampleRate)
	assert.Equal(t, 2, w.Channels)
	require.Equal(t, 2*n, len(w.Samples))

	// Channels come out interleaved L,R,L,R with full-scale mapping.
	assert.InDelta(t, 0.5, w.Samples[0], 1e-4)
	assert.InDelta(t, -0.25, w.Samples[1], 1e-4)
	assert.InDelta(t, 0.5, w.Samples[2*100], 1e-4)
	assert.InDelta(t, -0.25, w.Samples[2*100+1], 1e-4)
}

func TestIngestFLAC(t *testing.T) {
	const n = 22050 // 1s
	left := make([]int32, n)
	right := make([]int32, n)
	for i := range left {
		left[i] = 16384
		right[i] = -8192
	}
	data := encodeFLACStereo(t, left, right, 22050)

	g := newTestIngestor(t)
	w, err := g.Ingest(data, "flac")
	require.NoError(t, err)

	assert.Equal(t, 16000, w.SampleRate)
	assert.Equal(t, 1, w.Channels)
	assert.Equal(t, 16000, len(w.Samples))

	// Downmix averages the channels: (0.5 - 0.25) / 2 = 0.125. Check away
	// from the clip edges where the resampling filter rings.
	for i := 4000; i < 12000; i += 500 {
		assert.InDelta(t, 0.125, w.Samples[i], 0.01, "sample %d", i)
	}
}

func TestDecodeMP3(t *testing.T) {
	data, err := os.ReadFile("testdata/silence.mp3")
	require.NoError(t, err)

	w, err := decodeMP3(data)
	require.NoError(t, err)

	// go-mp3 always emits 16-bit stereo regardless of the source stream.
	assert.Equal(t, 44100, w.SampleRate)
	assert.Equal(t, 2, w.Channels)

	// 40 frames of 1152 samples each.
	assert.GreaterOrEqual(t, w.NumFrames(), 39*1152)
	assert.LessOrEqual(t, w.NumFrames(), 40*1152)

	for _, s := range w.Samples {
		require.LessOrEqual(t, float64(s), 1e-3)
		require.GreaterOrEqual(t, float64(s), -1e-3)
	}
}

func TestIngestMP3(t *testing.T) {
	data, err := os.ReadFile("testdata/silence.mp3")
	require.NoError(t, err)

	g := newTestIngestor(t)
	w, err := g.Ingest(data, "mp3")
	require.NoError(t, err)

	assert.Equal(t, 16000, w.SampleRate)
	assert.Equal(t, 1, w.Channels)
	// ~1.045s of source audio survives normalization.
	assert.Greater(t, len(w.Samples), 16000)
	assert.Less(t, len(w.Samples), 17000)
}

func TestDecodeOGG(t *testing.T) {
	data, err := os.ReadFile("testdata/tone.ogg")
	require.NoError(t, err)

	w, err := decodeOGG(data)
	require.NoError(t, err)

	assert.Equal(t, 44100, w.SampleRate)
	assert.Equal(t, 1, w.Channels)
	assert.Equal(t, 44100, len(w.Samples), "exactly 1s of samples")

	// The clip peaks near -1.6 dBFS; a scale error would shift this.
	var peak float32
	for _, s := range w.Samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
	}
	assert.InDelta(t, 0.829, peak, 0.02)
}

func TestIngestOGG(t *testing.T) {
	data, err := os.ReadFile("testdata/tone.ogg")
	require.NoError(t, err)

	g := newTestIngestor(t)
	w, err := g.Ingest(data, "ogg")
	require.NoError(t, err)

	assert.Equal(t, 16000, w.SampleRate)
	assert.Equal(t, 1, w.Channels)
	assert.Equal(t, 16000, len(w.Samples))
}
