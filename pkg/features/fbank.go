package features

import (
	"math"
	"math/cmplx"
)

// fbank computes log mel filterbank energies from normalized float32
// samples. The window and mel filterbank are precomputed once so repeated
// extraction over the same configuration shares them.
type fbank struct {
	cfg        Config
	fftSize    int
	window     []float64
	filterbank [][]float64
}

func newFbank(cfg Config) *fbank {
	fftSize := nextPow2(cfg.FrameLength)
	return &fbank{
		cfg:        cfg,
		fftSize:    fftSize,
		window:     hammingWindow(cfg.FrameLength),
		filterbank: melFilterbank(cfg.NumMels, fftSize, cfg.SampleRate),
	}
}

// compute returns [numFrames][NumMels] log mel energies:
// pre-emphasis → overlapping Hamming-windowed frames → power spectrum
// via FFT → triangular mel filterbank → log with an energy floor.
func (f *fbank) compute(samples []float32) [][]float32 {
	n := len(samples)
	if n < f.cfg.FrameLength {
		return nil
	}

	// Pre-emphasis on a float64 working copy; the input waveform is
	// immutable.
	work := make([]float64, n)
	for i, s := range samples {
		work[i] = float64(s)
	}
	if f.cfg.PreEmphasis > 0 {
		for i := n - 1; i > 0; i-- {
			work[i] -= f.cfg.PreEmphasis * work[i-1]
		}
		work[0] *= 1.0 - f.cfg.PreEmphasis
	}

	numFrames := (n-f.cfg.FrameLength)/f.cfg.FrameShift + 1
	halfFFT := f.fftSize/2 + 1

	result := make([][]float32, numFrames)
	fftBuf := make([]complex128, f.fftSize)
	powerSpec := make([]float64, halfFFT)

	for fr := 0; fr < numFrames; fr++ {
		offset := fr * f.cfg.FrameShift

		for i := range fftBuf {
			fftBuf[i] = 0
		}
		for i := 0; i < f.cfg.FrameLength; i++ {
			fftBuf[i] = complex(work[offset+i]*f.window[i], 0)
		}

		fft(fftBuf)

		for k := 0; k < halfFFT; k++ {
			re := real(fftBuf[k])
			im := imag(fftBuf[k])
			powerSpec[k] = re*re + im*im
		}

		frame := make([]float32, f.cfg.NumMels)
		for m := 0; m < f.cfg.NumMels; m++ {
			var energy float64
			for k, w := range f.filterbank[m] {
				energy += w * powerSpec[k]
			}
			if energy < f.cfg.EnergyFloor {
				energy = f.cfg.EnergyFloor
			}
			frame[m] = float32(math.Log(energy))
		}
		result[fr] = frame
	}

	return result
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank builds triangular mel filters as [numMels][halfFFT]
// weights spanning 0 Hz to Nyquist.
func melFilterbank(numMels, fftSize, sampleRate int) [][]float64 {
	halfFFT := fftSize/2 + 1

	melLow := hzToMel(0)
	melHigh := hzToMel(float64(sampleRate) / 2)

	melPoints := make([]float64, numMels+2)
	for i := range melPoints {
		melPoints[i] = melLow + float64(i)*(melHigh-melLow)/float64(numMels+1)
	}

	binIndices := make([]int, numMels+2)
	for i := range melPoints {
		hz := melToHz(melPoints[i])
		binIndices[i] = int(math.Floor(hz * float64(fftSize) / float64(sampleRate)))
		if binIndices[i] >= halfFFT {
			binIndices[i] = halfFFT - 1
		}
	}

	fb := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		fb[m] = make([]float64, halfFFT)
		left := binIndices[m]
		center := binIndices[m+1]
		right := binIndices[m+2]

		for k := left; k <= center; k++ {
			if center > left {
				fb[m][k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k <= right; k++ {
			if right > center {
				fb[m][k] = float64(right-k) / float64(right-center)
			}
		}
	}
	return fb
}

// fft is an in-place radix-2 Cooley-Tukey FFT. len(x) must be a power
// of 2.
func fft(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		wn := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				u := x[start+k]
				t := w * x[start+k+half]
				x[start+k] = u + t
				x[start+k+half] = u - t
				w *= wn
			}
		}
	}
}
