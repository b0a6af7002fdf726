package analysis

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// Spectrum returns the one-sided power spectrum of series sampled every dt
// seconds. The mean is removed first so the zero bin only holds residue.
// freqs are in Hz.
func Spectrum(series []float64, dt float64) (freqs, power []float64, err error) {
	n := len(series)
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 samples, got %d: %w", n, dynamo.ErrParameterBounds)
	}
	if !(dt > 0) {
		return nil, nil, fmt.Errorf("sample spacing must be positive, got %v: %w", dt, dynamo.ErrParameterBounds)
	}

	centered := make([]float64, n)
	copy(centered, series)
	floats.AddConst(-stat.Mean(series, nil), centered)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c)
		power[i] = a * a
	}
	return freqs, power, nil
}

// DominantFrequency is the frequency of the strongest non-zero bin of
// Spectrum. A constant series has no dominant frequency and returns 0.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	freqs, power, err := Spectrum(series, dt)
	if err != nil {
		return 0, err
	}
	if len(power) < 2 || floats.Max(power[1:]) == 0 {
		return 0, nil
	}
	return freqs[1+floats.MaxIdx(power[1:])], nil
}
