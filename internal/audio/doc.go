// Package audio provides the PCM primitives the synchronization engine works
// on: a mono clip model, WAV decode/encode over go-audio, silence-boundary
// scanning, RMS energy envelopes, and a WSOLA pitch-preserving time-stretch.
package audio
