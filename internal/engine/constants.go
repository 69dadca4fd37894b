package engine

import "math"

const (
	twoPi = 2 * math.Pi

	// Initial frame buffer capacity, in FFT blocks
	frameBufferBlocks = 2

	// Interleaved I/Q values per complex sample
	valuesPerComplex = 2
)
