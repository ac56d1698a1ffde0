package player

import pipelineerrors "github.com/vireo-player/core/internal/errors"

// Typed errors surfaced by the public API. These re-export
// internal/errors' types as aliases under the names the Coordinator's
// control API uses, so callers of this package never need to import
// internal/errors directly.
type (
	OpenError             = pipelineerrors.OpenError
	NoPlayableStreamError = pipelineerrors.NoPlayableStreamError
	DecoderError          = pipelineerrors.DecoderError
	DeviceError           = pipelineerrors.DeviceError
	SeekError             = pipelineerrors.SeekError
	TransientError        = pipelineerrors.TransientError
	QueueClosedError      = pipelineerrors.QueueClosedError
)

// IsTransient reports whether err is a TransientError (decoder Again/Eof
// or a single bad frame); such errors are logged and playback continues.
func IsTransient(err error) bool { return pipelineerrors.IsTransient(err) }

// IsQueueClosed reports whether err is a QueueClosedError.
func IsQueueClosed(err error) bool { return pipelineerrors.IsQueueClosed(err) }

// errNotLoaded is returned by Start when no media has been opened yet.
type errNotLoaded struct{}

func (errNotLoaded) Error() string { return "start: no media loaded" }

// ErrNotLoaded is returned by Coordinator.Start before any successful
// OpenMedia call.
var ErrNotLoaded error = errNotLoaded{}
