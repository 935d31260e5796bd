// Package spectrum turns time-domain blocks into magnitude spectra and
// groups spectrum bins into contiguous bands.
//
// FFTs are delegated to algo-fft; this package owns plan lifetime, the
// real-to-complex packing and the one-sided magnitude extraction.
package spectrum
