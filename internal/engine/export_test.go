package engine

// Export internal state for testing.
// This file uses the _test.go suffix so it's only included in test builds.

// ExportedKernelSpectrum returns the scaled kernel spectrum of a framer.
func (o *OverlapSave) ExportedKernelSpectrum() []complex128 {
	return o.kernelFFT
}

// ExportedBuffered returns the number of samples in the frame buffer,
// history included.
func (o *OverlapSave) ExportedBuffered() int {
	return o.buf.Available()
}
