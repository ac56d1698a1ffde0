package player

import (
	pipelineerrors "github.com/vireo-player/core/internal/errors"
)

// AudioDecoder is the audio-stream counterpart of VideoDecoder: same
// shape, separate backend interface type. Neither backend is given
// decoder threading options.
type AudioDecoder struct {
	*stageBase

	backend AudioDecoderBackend
	input   *PacketQueue
	output  *FrameQueue
	onError func(error)
	logger  Logger
}

func NewAudioDecoder(backend AudioDecoderBackend, input *PacketQueue, output *FrameQueue, onError func(error), logger Logger) *AudioDecoder {
	return &AudioDecoder{
		stageBase: newStageBase(),
		backend:   backend,
		input:     input,
		output:    output,
		onError:   onError,
		logger:    logger,
	}
}

func (ad *AudioDecoder) Open() error {
	if err := ad.backend.Open(); err != nil {
		return &pipelineerrors.DecoderError{Op: "open_audio", Err: err}
	}
	return nil
}

func (ad *AudioDecoder) Close() error {
	err := ad.backend.Close()
	ad.output.SetFinished()
	if err != nil {
		return &pipelineerrors.DecoderError{Op: "close_audio", Err: err}
	}
	return nil
}

func (ad *AudioDecoder) Flush() error {
	if err := ad.backend.Flush(); err != nil {
		return &pipelineerrors.DecoderError{Op: "flush_audio", Err: err}
	}
	ad.output.Clear()
	return nil
}

func (ad *AudioDecoder) Start() { ad.run(ad.process) }

func (ad *AudioDecoder) process() {
	pkt, ok, err := ad.input.Dequeue(dequeueTimeout)
	if err != nil {
		frames, derr := ad.backend.Drain()
		for _, f := range frames {
			if e := ad.output.Enqueue(f); e != nil && ad.logger != nil {
				ad.logger.Printf("audio decoder: dropping drained frame: %v", e)
			}
		}
		if derr != nil && ad.onError != nil {
			ad.onError(&pipelineerrors.TransientError{Op: "drain_audio", Err: derr})
		}
		ad.output.SetFinished()
		ad.Pause()
		return
	}
	if !ok {
		return
	}

	frame, produced, derr := pkt.Decode()
	if derr != nil {
		if ad.onError != nil {
			ad.onError(&pipelineerrors.TransientError{Op: "decode_audio", Err: derr})
		}
		return
	}
	if !produced || frame == nil {
		return
	}
	if e := ad.output.Enqueue(frame); e != nil && ad.logger != nil {
		ad.logger.Printf("audio decoder: dropping decoded frame: %v", e)
	}
}
