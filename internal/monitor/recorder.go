// ABOUTME: Per-session WAV recorder for the monitor
// ABOUTME: Decodes PCM or Opus chunks and appends them to a WAV file
package monitor

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/Sendspin/duplex-go/internal/storage"
	"github.com/Sendspin/duplex-go/pkg/audio"
	"github.com/Sendspin/duplex-go/pkg/audio/decode"
	"github.com/Sendspin/duplex-go/pkg/audio/encode"
	"github.com/Sendspin/duplex-go/pkg/protocol"
)

type recorder struct {
	id     string
	path   string
	codec  string
	format audio.Format
	file   afero.File
	wav    *encode.WAVWriter

	// opus only
	decoder decode.Decoder
	encoder encode.Encoder

	frames int64
}

func newRecorder(volume *storage.Volume, name, id string, start *protocol.StreamStart) (*recorder, error) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: start.SampleRate,
		Channels:   start.Channels,
		BitDepth:   start.BitDepth,
	}

	r := &recorder{id: id, path: name, codec: start.Codec, format: format}

	switch start.Codec {
	case "pcm":
	case "opus":
		format.BitDepth = 16
		r.format = format
		dec, err := decode.NewOpus(audio.Format{Codec: "opus", SampleRate: format.SampleRate, Channels: format.Channels})
		if err != nil {
			return nil, err
		}
		enc, err := encode.NewPCM(format)
		if err != nil {
			return nil, err
		}
		r.decoder, r.encoder = dec, enc
	default:
		return nil, fmt.Errorf("unsupported codec: %q", start.Codec)
	}

	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream format: %w", err)
	}

	f, err := volume.Create(name)
	if err != nil {
		return nil, err
	}
	wav, err := encode.NewWAVWriter(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file, r.wav = f, wav
	return r, nil
}

func (r *recorder) write(data []byte) error {
	if r.decoder != nil {
		samples, err := r.decoder.Decode(data)
		if err != nil {
			return err
		}
		if data, err = r.encoder.Encode(samples); err != nil {
			return err
		}
	}

	if _, err := r.wav.Write(data); err != nil {
		return err
	}
	r.frames += int64(len(data) / r.format.FrameSize())
	return nil
}

// finish patches the WAV header and closes the file. Opus sessions keep
// the padding of their last frame.
func (r *recorder) finish(expected int64, complete bool) (Session, error) {
	err := errors.Join(r.wav.Close(), r.file.Close())
	if r.decoder != nil {
		err = errors.Join(err, r.decoder.Close(), r.encoder.Close())
	}

	return Session{
		ID:       r.id,
		Path:     r.path,
		Codec:    r.codec,
		Frames:   r.frames,
		Expected: expected,
		Complete: complete && err == nil,
	}, err
}
