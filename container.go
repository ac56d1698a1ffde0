package player

import (
	"context"
	"time"
)

// AudioFormat describes a PCM format negotiated with the audio device:
// interleaved signed 16-bit samples at SampleRate, Channels channels.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// VideoDecoderBackend constructs, flushes, drains, and releases the
// underlying video decoder for one stream. The interface carries no
// threading option; the reisen-backed implementation opens the stream
// with reisen's defaults and sets no decoder thread count.
type VideoDecoderBackend interface {
	Open() error
	Close() error

	// Flush releases in-flight decoder state, required on seek.
	Flush() error

	// Drain returns any frames buffered inside the decoder once its
	// input packet queue has closed, corresponding to submitting a
	// terminal empty "drain" packet.
	Drain() ([]*Frame, error)
}

// AudioDecoderBackend is the audio-stream counterpart of
// VideoDecoderBackend.
type AudioDecoderBackend interface {
	Open() error
	Close() error
	Flush() error
	Drain() ([]*Frame, error)
}

// Container is a narrow, already-opened handle to a media source: the
// Coordinator obtains one via ContainerOpener.Open (which also probes for
// MediaInfo), then hands it to the Demuxer and decoder stages.
type Container interface {
	// ReadPacket returns the next packet from any stream (video, audio,
	// or otherwise), or io.EOF once the source is exhausted. The
	// Demuxer discards packets belonging to streams it didn't select.
	ReadPacket() (*Packet, error)

	// Seek asks the container to seek to the keyframe at or before
	// targetMs. The caller (Demuxer) is responsible for clamping to
	// [0, duration].
	Seek(targetMs int64) error

	// Close releases the source and all stream handles.
	Close() error

	// VideoDecoder/AudioDecoder return the per-stream decoder backend,
	// or nil if MediaInfo reported no such stream.
	VideoDecoder() VideoDecoderBackend
	AudioDecoder() AudioDecoderBackend
}

// ContainerOpener opens a media source by path, probing its streams.
// Implemented by internal/container/reisen for real files; tests supply
// a fake.
type ContainerOpener interface {
	Open(ctx context.Context, path string) (Container, MediaInfo, error)
}

// VideoSurface is the external collaborator the VideoRenderer presents
// decoded frames to.
type VideoSurface interface {
	// Present uploads a frame to the surface, recreating any backing
	// texture if dimensions changed, and letterboxes to preserve aspect
	// ratio within the current viewport.
	Present(frame *Frame) error

	// Reset clears the surface to black. Called when the VideoRenderer
	// is closed; for media without a video stream no VideoRenderer
	// exists, so the surface is neither presented to nor reset.
	Reset() error
}

// AudioDevice is the external collaborator the AudioRenderer feeds via a
// platform-driven pull callback. Open wires reader as the source of PCM
// samples for that callback; the device calls reader.Read on its own
// goroutine for as long as it is started.
type AudioDevice interface {
	Open(reader AudioReader, requested AudioFormat) (AudioFormat, error)
	Start() error
	Stop() error
	Close() error
	SetVolume(volume float64)
}

// AudioReader is the pull-callback surface an AudioDevice pulls samples
// from. It is satisfied by io.Reader; declared separately so this package
// doesn't need to import "io" just to describe the contract.
type AudioReader interface {
	Read(p []byte) (n int, err error)
}

// dequeueTimeout bounds how long a decoder stage blocks on an empty input
// queue before re-checking pause/stop.
const dequeueTimeout = 20 * time.Millisecond

// backpressureSleep is how long the Demuxer sleeps when a target queue is
// full, rather than blocking on enqueue.
const backpressureSleep = 10 * time.Millisecond

// idleSleep is how long a renderer sleeps when its input queue is
// momentarily empty.
const idleSleep = 10 * time.Millisecond
