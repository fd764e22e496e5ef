// ABOUTME: Storage volume package over an afero filesystem
// ABOUTME: Recording files and the music library live on a Volume
// Package storage models the card the sketch records to and plays from.
//
// A Volume is rooted at a directory of any afero.Fs, so tests run on a
// MemMapFs and the CLI on the host filesystem.
package storage
