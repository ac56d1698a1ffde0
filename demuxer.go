package player

import (
	"errors"
	"io"
	"time"

	pipelineerrors "github.com/vireo-player/core/internal/errors"
)

// Demuxer reads packets from an already-opened Container and dispatches
// them to the matching packet queue, discarding packets for streams it
// didn't select. Grounded on the demux worker of the system this pipeline
// is modeled on: a full/empty back-pressure sleep loop, end-of-stream
// self-pause, and a clamped keyframe seek.
type Demuxer struct {
	*stageBase

	container   Container
	info        MediaInfo
	videoQueue  *PacketQueue // nil if info.HasVideo is false
	audioQueue  *PacketQueue // nil if info.HasAudio is false
	onError     func(error)
	logger      Logger
}

// NewDemuxer constructs a Demuxer already wired to an opened container.
// videoQueue/audioQueue should be nil when the corresponding stream is
// absent from info.
func NewDemuxer(container Container, info MediaInfo, videoQueue, audioQueue *PacketQueue, onError func(error), logger Logger) *Demuxer {
	return &Demuxer{
		stageBase: newStageBase(),
		container: container,
		info:      info,
		videoQueue: videoQueue,
		audioQueue: audioQueue,
		onError:   onError,
		logger:    logger,
	}
}

// Close releases the container. Idempotent.
func (d *Demuxer) Close() error {
	if d.container == nil {
		return nil
	}
	err := d.container.Close()
	d.container = nil
	return err
}

// Seek clamps targetMs to [0, duration] and asks the container to seek to
// the keyframe at or before it. Does not touch any queue; clearing queues
// is the Coordinator's responsibility.
func (d *Demuxer) Seek(targetMs int64) error {
	if d.container == nil {
		return &pipelineerrors.SeekError{TargetMs: targetMs}
	}
	target := clampInt64(targetMs, 0, d.info.DurationMs)
	if err := d.container.Seek(target); err != nil {
		return &pipelineerrors.SeekError{TargetMs: target, Err: err}
	}
	return nil
}

// Start launches the demuxer's goroutine.
func (d *Demuxer) Start() { d.run(d.process) }

func (d *Demuxer) process() {
	videoFull := d.videoQueue != nil && d.videoQueue.IsFull()
	audioFull := d.audioQueue != nil && d.audioQueue.IsFull()
	if videoFull || audioFull {
		time.Sleep(backpressureSleep)
		return
	}

	pkt, err := d.container.ReadPacket()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if d.videoQueue != nil {
				d.videoQueue.SetFinished()
			}
			if d.audioQueue != nil {
				d.audioQueue.SetFinished()
			}
			d.Pause()
			return
		}
		if d.onError != nil {
			d.onError(&pipelineerrors.TransientError{Op: "read_packet", Err: err})
		}
		d.Pause()
		return
	}
	if pkt == nil {
		return
	}

	switch pkt.Kind {
	case StreamVideo:
		if d.videoQueue == nil || pkt.StreamIndex != d.info.VideoStreamIndex {
			return
		}
		if err := d.videoQueue.Enqueue(pkt); err != nil && d.logger != nil {
			d.logger.Printf("demuxer: dropping video packet: %v", err)
		}
	case StreamAudio:
		if d.audioQueue == nil || pkt.StreamIndex != d.info.AudioStreamIndex {
			return
		}
		if err := d.audioQueue.Enqueue(pkt); err != nil && d.logger != nil {
			d.logger.Printf("demuxer: dropping audio packet: %v", err)
		}
	}
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
