// ABOUTME: I2S bus adapter package
// ABOUTME: Exposes an I2S-shaped bus as a sample byte stream
// Package i2s adapts a full-duplex I2S bus to byte streams.
//
// Bus mirrors the stereo half of a microcontroller I2S peripheral. Stream
// carries 32-bit stereo frames (8 bytes, left word first) in both
// directions so it can be both the source and the sink of stream.Copy.
package i2s
