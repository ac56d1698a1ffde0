// Package player implements a demux-decode-render media pipeline with
// audio-mastered audio/video synchronization: a Demuxer reads packets from
// a container into bounded queues, a VideoDecoder and AudioDecoder drain
// those queues into decoded-frame queues, and a VideoRenderer/AudioRenderer
// pair presents frames to external collaborators (a video surface and an
// audio device) while keeping video locked to the audio clock.
//
// The package depends only on narrow interfaces (Container, VideoSurface,
// AudioDevice, ...) for everything outside the pipeline itself; concrete
// adapters live under internal/ and bind those interfaces to real
// third-party libraries.
package player
