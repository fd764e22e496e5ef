// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates and PCM layouts
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling. Reader wraps a PCM byte
// stream and also maps bit depth and channel count.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	outputSize := r.Resample(inputSamples, outputSamples)
//
//	conv, err := resample.NewReader(file, fileFormat, speakerFormat)
package resample
