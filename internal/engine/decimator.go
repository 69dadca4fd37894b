package engine

// Decimator keeps every factor-th sample of a stream. The position of the
// next kept sample carries over between calls, so splitting the input into
// blocks of any size gives the same output.
type Decimator struct {
	factor int
	skip   int // samples to drop before the next kept one
}

// NewDecimator creates a decimator. Factors below 1 are treated as 1.
func NewDecimator(factor int) *Decimator {
	d := &Decimator{}
	d.SetFactor(factor)
	return d
}

// Factor returns the decimation factor.
func (d *Decimator) Factor() int {
	return d.factor
}

// SetFactor changes the factor at the current position.
func (d *Decimator) SetFactor(factor int) {
	if factor < 1 {
		factor = 1
	}
	d.factor = factor
	if d.skip >= factor {
		d.skip = factor - 1
	}
}

// Reset restarts decimation so the next sample is kept.
func (d *Decimator) Reset() {
	d.skip = 0
}

// Process appends the kept samples of src to dst.
//
// After M samples in total, ceil(M/factor) samples have been kept.
func (d *Decimator) Process(dst, src []complex128) []complex128 {
	if d.factor == 1 {
		return append(dst, src...)
	}

	i := d.skip
	for ; i < len(src); i += d.factor {
		dst = append(dst, src[i])
	}
	d.skip = i - len(src)

	return dst
}

// OutputLen returns how many samples Process would keep from n inputs.
func (d *Decimator) OutputLen(n int) int {
	if n <= d.skip {
		return 0
	}
	return (n-d.skip-1)/d.factor + 1
}
