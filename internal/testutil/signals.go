package testutil

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// ComplexTone returns n samples of amp·exp(j·2π·freq·t) at the given rate.
func ComplexTone(n int, freq, rate, amp float64) []complex128 {
	out := make([]complex128, n)
	step := 2 * math.Pi * freq / rate
	for i := range out {
		out[i] = cmplx.Rect(amp, step*float64(i))
	}
	return out
}

// RealTone returns n samples of amp·cos(2π·freq·t) at the given rate.
func RealTone(n int, freq, rate, amp float64) []float64 {
	out := make([]float64, n)
	step := 2 * math.Pi * freq / rate
	for i := range out {
		out[i] = amp * math.Cos(step*float64(i))
	}
	return out
}

// Interleave flattens complex samples into I/Q pairs.
func Interleave(s []complex128) []float64 {
	out := make([]float64, 2*len(s))
	for i, v := range s {
		out[2*i] = real(v)
		out[2*i+1] = imag(v)
	}
	return out
}

// RealParts returns the real component of every sample.
func RealParts(s []complex128) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = real(v)
	}
	return out
}

// ImagParts returns the imaginary component of every sample.
func ImagParts(s []complex128) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = imag(v)
	}
	return out
}

// ComplexNoise returns n samples of unit-variance complex Gaussian noise from a
// fixed seed, so tests are reproducible.
func ComplexNoise(n int, seed uint64) []complex128 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(rng.NormFloat64()*math.Sqrt2/2, rng.NormFloat64()*math.Sqrt2/2)
	}
	return out
}

// Spectrum is an averaged power spectrum in FFT bin order.
type Spectrum struct {
	Power []float64
	Rate  float64
}

// BinFreq returns the signed frequency of bin k in Hz.
func (s Spectrum) BinFreq(k int) float64 {
	n := len(s.Power)
	if k >= n/2 {
		k -= n
	}
	return float64(k) * s.Rate / float64(n)
}

// BandPower sums the power of every bin whose |frequency| lies in [lo, hi).
func (s Spectrum) BandPower(lo, hi float64) float64 {
	var sum float64
	for k, p := range s.Power {
		f := math.Abs(s.BinFreq(k))
		if f >= lo && f < hi {
			sum += p
		}
	}
	return sum
}

// BandMean is BandPower divided by the number of contributing bins.
func (s Spectrum) BandMean(lo, hi float64) float64 {
	var (
		sum   float64
		count int
	)
	for k, p := range s.Power {
		f := math.Abs(s.BinFreq(k))
		if f >= lo && f < hi {
			sum += p
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// WelchSpectrum averages Hann-windowed periodograms of 50% overlapping
// segments of length fftSize.
func WelchSpectrum(x []complex128, fftSize int, rate float64) Spectrum {
	fft := fourier.NewCmplxFFT(fftSize)
	power := make([]float64, fftSize)
	seg := make([]complex128, fftSize)
	coeffs := make([]complex128, fftSize)
	bin := make([]float64, fftSize)

	segments := 0
	for start := 0; start+fftSize <= len(x); start += fftSize / 2 {
		copy(seg, x[start:start+fftSize])
		window.HannComplex(seg)
		fft.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			bin[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		floats.Add(power, bin)
		segments++
	}

	if segments > 0 {
		floats.Scale(1/float64(segments), power)
	}

	return Spectrum{Power: power, Rate: rate}
}
