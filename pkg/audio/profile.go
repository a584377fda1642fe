package audio

import "math"

// Profile summarizes acoustic characteristics of a waveform for display
// alongside a verdict. These describe how the signal sounds, not who is
// speaking, and play no part in classification.
type Profile struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	NumSamples      int     `json:"num_samples"`
	PeakAmplitude   float64 `json:"peak_amplitude"`
	// AvgEnergy is the mean frame RMS over the clip.
	AvgEnergy float64 `json:"avg_energy"`
	// AvgPitchHz is the mean fundamental frequency over voiced frames,
	// estimated in the 50-300 Hz speech band. Zero when no voiced frame
	// was found.
	AvgPitchHz float64 `json:"avg_pitch_hz"`
}

const (
	pitchMinHz = 50.0
	pitchMaxHz = 300.0

	// Frames below this RMS are treated as silence for pitch tracking.
	voicingEnergyFloor = 1e-3
	// Minimum normalized autocorrelation peak to call a frame voiced.
	voicingCorrFloor = 0.5
)

// ComputeProfile extracts the acoustic profile of a mono waveform.
// It never fails: degenerate input yields a zeroed profile.
func ComputeProfile(w *Waveform) Profile {
	p := Profile{
		SampleRate: w.SampleRate,
		NumSamples: len(w.Samples),
	}
	if w.SampleRate <= 0 || len(w.Samples) == 0 {
		return p
	}
	p.DurationSeconds = float64(len(w.Samples)) / float64(w.SampleRate)

	for _, s := range w.Samples {
		if a := math.Abs(float64(s)); a > p.PeakAmplitude {
			p.PeakAmplitude = a
		}
	}

	// Frame-wise RMS: 25ms frames, 10ms shift.
	frameLen := w.SampleRate * 25 / 1000
	frameShift := w.SampleRate * 10 / 1000
	if frameLen < 1 || frameShift < 1 {
		return p
	}

	var rmsSum float64
	var rmsCount int
	for off := 0; off+frameLen <= len(w.Samples); off += frameShift {
		rmsSum += frameRMS(w.Samples[off : off+frameLen])
		rmsCount++
	}
	if rmsCount == 0 {
		// Clip shorter than one frame: fall back to whole-clip RMS.
		rmsSum = frameRMS(w.Samples)
		rmsCount = 1
	}
	p.AvgEnergy = rmsSum / float64(rmsCount)

	p.AvgPitchHz = averagePitch(w)
	return p
}

func frameRMS(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// averagePitch estimates the mean fundamental frequency over voiced
// frames using normalized autocorrelation, searching lags that map to
// the 50-300 Hz band.
func averagePitch(w *Waveform) float64 {
	minLag := int(float64(w.SampleRate) / pitchMaxHz)
	maxLag := int(float64(w.SampleRate) / pitchMinHz)
	if minLag < 1 {
		minLag = 1
	}

	// Each analysis frame must cover two full periods of the lowest
	// trackable pitch.
	frameLen := 2 * maxLag
	frameShift := w.SampleRate * 20 / 1000
	if frameShift < 1 {
		frameShift = 1
	}
	if len(w.Samples) < frameLen {
		return 0
	}

	var pitchSum float64
	var voiced int
	for off := 0; off+frameLen <= len(w.Samples); off += frameShift {
		frame := w.Samples[off : off+frameLen]
		if frameRMS(frame) < voicingEnergyFloor {
			continue
		}
		if f := framePitch(frame, minLag, maxLag, w.SampleRate); f > 0 {
			pitchSum += f
			voiced++
		}
	}
	if voiced == 0 {
		return 0
	}
	return pitchSum / float64(voiced)
}

func framePitch(frame []float32, minLag, maxLag, sampleRate int) float64 {
	n := len(frame)
	var energy float64
	for _, s := range frame {
		energy += float64(s) * float64(s)
	}
	if energy == 0 {
		return 0
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag && lag < n; lag++ {
		var corr float64
		for i := 0; i+lag < n; i++ {
			corr += float64(frame[i]) * float64(frame[i+lag])
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr < voicingCorrFloor {
		return 0
	}
	return float64(sampleRate) / float64(bestLag)
}
