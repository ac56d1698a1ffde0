package player

import (
	pipelineerrors "github.com/vireo-player/core/internal/errors"
)

// VideoDecoder drains a PacketQueue of video packets into a FrameQueue of
// decoded frames via a VideoDecoderBackend.
type VideoDecoder struct {
	*stageBase

	backend VideoDecoderBackend
	input   *PacketQueue
	output  *FrameQueue
	onError func(error)
	logger  Logger
}

func NewVideoDecoder(backend VideoDecoderBackend, input *PacketQueue, output *FrameQueue, onError func(error), logger Logger) *VideoDecoder {
	return &VideoDecoder{
		stageBase: newStageBase(),
		backend:   backend,
		input:     input,
		output:    output,
		onError:   onError,
		logger:    logger,
	}
}

// Open constructs the underlying decoder through the backend; decoder
// threading is left to the backend's defaults.
func (vd *VideoDecoder) Open() error {
	if err := vd.backend.Open(); err != nil {
		return &pipelineerrors.DecoderError{Op: "open_video", Err: err}
	}
	return nil
}

// Close flushes and releases the decoder; the output queue transitions
// to finished.
func (vd *VideoDecoder) Close() error {
	err := vd.backend.Close()
	vd.output.SetFinished()
	if err != nil {
		return &pipelineerrors.DecoderError{Op: "close_video", Err: err}
	}
	return nil
}

// Flush releases in-flight decoder state and clears the output queue.
// Required on seek.
func (vd *VideoDecoder) Flush() error {
	if err := vd.backend.Flush(); err != nil {
		return &pipelineerrors.DecoderError{Op: "flush_video", Err: err}
	}
	vd.output.Clear()
	return nil
}

func (vd *VideoDecoder) Start() { vd.run(vd.process) }

func (vd *VideoDecoder) process() {
	pkt, ok, err := vd.input.Dequeue(dequeueTimeout)
	if err != nil {
		// Input closed and drained: submit the terminal drain, push
		// any residual frames, then finish and self-pause.
		frames, derr := vd.backend.Drain()
		for _, f := range frames {
			if e := vd.output.Enqueue(f); e != nil && vd.logger != nil {
				vd.logger.Printf("video decoder: dropping drained frame: %v", e)
			}
		}
		if derr != nil && vd.onError != nil {
			vd.onError(&pipelineerrors.TransientError{Op: "drain_video", Err: derr})
		}
		vd.output.SetFinished()
		vd.Pause()
		return
	}
	if !ok {
		return // timed out waiting for a packet; re-check pause/stop
	}

	frame, produced, derr := pkt.Decode()
	if derr != nil {
		if vd.onError != nil {
			vd.onError(&pipelineerrors.TransientError{Op: "decode_video", Err: derr})
		}
		return
	}
	if !produced || frame == nil {
		return
	}
	if e := vd.output.Enqueue(frame); e != nil && vd.logger != nil {
		vd.logger.Printf("video decoder: dropping decoded frame: %v", e)
	}
}
