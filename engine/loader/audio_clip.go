package loader

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
)

// AudioClip is a fully decoded sound held in memory so it can be looped and restarted.
type AudioClip struct {
	ID     uuid.UUID
	Name   string
	Buffer *beep.Buffer
}

// Duration returns the clip length.
func (c *AudioClip) Duration() time.Duration {
	return c.Buffer.Format().SampleRate.D(c.Buffer.Len())
}

// DecodeMP3 decodes an MP3 stream into an AudioClip. The reader is closed.
//
// Parameters:
//   - rc: the encoded stream
//   - name: the clip label
//
// Returns:
//   - *AudioClip: the decoded clip
//   - error: error if the stream is not valid MP3
func DecodeMP3(rc io.ReadCloser, name string) (*AudioClip, error) {
	stream, format, err := mp3.Decode(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to decode mp3 %q: %w", name, err)
	}
	defer stream.Close()

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mp3 %q: %w", name, err)
	}
	return &AudioClip{ID: uuid.New(), Name: name, Buffer: buf}, nil
}
