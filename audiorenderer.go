package player

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/vireo-player/core/internal/bufpool"
	pipelineerrors "github.com/vireo-player/core/internal/errors"
	"github.com/vireo-player/core/internal/resample"
)

// resamplerKey identifies when the AudioRenderer's resampler must be
// rebuilt: input format, sample rate, channel count, and channel layout
// together form the cache key.
type resamplerKey struct {
	sampleFormat  SampleFormat
	sampleRate    int
	channels      int
	channelLayout string
}

// AudioRenderer consumes decoded audio frames, converts them to the
// device's negotiated output format, and feeds the audio device through
// a pull callback (AudioRenderer itself implements the Read side of
// that callback). It is the sole writer of the master Clock.
//
// The renderer's own goroutine (driven by stageBase) does no audio I/O:
// that work happens entirely inside Read, invoked on the device's own
// driver goroutine. The goroutine exists only so the
// renderer participates in the pause/stop lifecycle protocol uniformly
// with the other stages.
type AudioRenderer struct {
	*stageBase

	input  *FrameQueue
	clock  *Clock
	device AudioDevice
	pool   *bufpool.Pool

	output AudioFormat

	// mu guards every field below, shared with the device's pull
	// callback goroutine — the only place besides the Clock's own
	// internal synchronization where the callback touches shared
	// state.
	mu          sync.Mutex
	volume      float64
	leftover    []byte // remaining unconsumed view into leftoverBuf
	leftoverBuf []byte // pool-owned backing buffer for leftover, nil if leftover aliases frame data directly
	resampler   *resample.Resampler
	resamplerK  resamplerKey
}

func NewAudioRenderer(input *FrameQueue, clock *Clock, device AudioDevice, pool *bufpool.Pool) *AudioRenderer {
	return &AudioRenderer{
		stageBase: newStageBase(),
		input:     input,
		clock:     clock,
		device:    device,
		pool:      pool,
		volume:    1.0,
	}
}

// Open negotiates the device's output format against requested, returning
// whatever the device settles on.
func (ar *AudioRenderer) Open(requested AudioFormat) (AudioFormat, error) {
	effective, err := ar.device.Open(ar, requested)
	if err != nil {
		return AudioFormat{}, &pipelineerrors.DeviceError{Op: "open_audio_device", Err: err}
	}
	ar.mu.Lock()
	ar.output = effective
	ar.mu.Unlock()
	return effective, nil
}

// Close stops and releases the audio device.
func (ar *AudioRenderer) Close() error {
	_ = ar.device.Stop()

	ar.mu.Lock()
	if ar.leftoverBuf != nil {
		ar.pool.Put(ar.leftoverBuf)
		ar.leftoverBuf = nil
		ar.leftover = nil
	}
	ar.mu.Unlock()

	if err := ar.device.Close(); err != nil {
		return &pipelineerrors.DeviceError{Op: "close_audio_device", Err: err}
	}
	return nil
}

// SetVolume sets the scalar gain applied to samples in the callback.
// volume must be in [0, 1].
func (ar *AudioRenderer) SetVolume(volume float64) {
	ar.mu.Lock()
	ar.volume = volume
	ar.mu.Unlock()
	ar.device.SetVolume(volume)
}

func (ar *AudioRenderer) Start() {
	if err := ar.device.Start(); err != nil {
		_ = err // not reported anywhere; the stage goroutine runs regardless
	}
	ar.run(ar.process)
}

// process is a near no-op: it only exists so the stage lifecycle
// protocol (pause/stop) applies uniformly. The real work happens in
// Read, called by the device on its own goroutine.
func (ar *AudioRenderer) process() {
	time.Sleep(idleSleep)
}

// Read is the pull callback: the device calls this to fill buf with
// exactly len(buf) bytes before returning.
func (ar *AudioRenderer) Read(buf []byte) (int, error) {
	if ar.IsPaused() || !ar.IsRunning() {
		clearBytes(buf)
		return len(buf), nil
	}

	ar.mu.Lock()
	defer ar.mu.Unlock()

	written := 0
	for written < len(buf) {
		if len(ar.leftover) == 0 {
			if !ar.noLockFillLeftover() {
				break // nothing more available right now: fill silence
			}
		}
		n := copy(buf[written:], ar.leftover)
		ar.leftover = ar.leftover[n:]
		written += n
	}

	if written < len(buf) {
		clearBytes(buf[written:])
	}

	applyVolume(buf, ar.volume)
	return len(buf), nil
}

// noLockFillLeftover dequeues the next audio frame (non-blocking),
// converts it to the output format, updates the master clock from its
// PTS, and stashes the converted bytes in ar.leftover. Returns false if
// no frame was available.
//
// The previous leftover buffer, if pool-owned, is returned to the pool
// here: by this point it has been fully drained by Read, so reusing it
// for the incoming frame is exactly the allocation this pool exists to
// avoid.
//
// Precondition: ar.mu held.
func (ar *AudioRenderer) noLockFillLeftover() bool {
	if ar.leftoverBuf != nil {
		ar.pool.Put(ar.leftoverBuf)
		ar.leftoverBuf = nil
	}

	frame, ok, _ := ar.input.TryDequeue()
	if !ok || frame == nil {
		return false
	}

	ar.leftover = ar.noLockConvert(frame)

	if frame.TimeBase.Den != 0 {
		ar.clock.Set(frame.PTSSeconds())
	}
	return true
}

// noLockConvert resamples frame's PCM data to ar.output's rate and remixes
// it to ar.output's channel count if either differs, rebuilding the cached
// resampler whenever the (format, rate, channels, layout) key changes, or
// returns the frame's planar data directly when neither is required. When
// it converts, the result is drawn from ar.pool and stashed in
// ar.leftoverBuf so noLockFillLeftover can recycle it once drained; the
// no-conversion path returns the frame's own plane directly and leaves
// ar.leftoverBuf nil, since that buffer is owned by the decoder, not this
// renderer.
//
// Precondition: ar.mu held.
func (ar *AudioRenderer) noLockConvert(frame *Frame) []byte {
	var data []byte
	if len(frame.Planes) > 0 {
		data = frame.Planes[0]
	}

	if frame.SampleRate == ar.output.SampleRate && frame.Channels == ar.output.Channels {
		return data
	}

	converted := data
	if frame.SampleRate != ar.output.SampleRate {
		key := resamplerKey{
			sampleFormat:  frame.SampleFormat,
			sampleRate:    frame.SampleRate,
			channels:      frame.Channels,
			channelLayout: frame.ChannelLayout,
		}
		if ar.resampler == nil || key != ar.resamplerK {
			ar.resampler = resample.New(frame.SampleRate, ar.output.SampleRate, frame.Channels)
			ar.resamplerK = key
		}
		converted = ar.resampler.Process(converted)
	}
	if frame.Channels != ar.output.Channels {
		converted = resample.Remix(converted, frame.Channels, ar.output.Channels)
	}

	scratch := ar.pool.Get(len(converted))
	copy(scratch, converted)
	ar.leftoverBuf = scratch
	return scratch
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// applyVolume multiplies interleaved S16LE samples in place by volume.
func applyVolume(buf []byte, volume float64) {
	if volume == 1.0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		s := int16(binary.LittleEndian.Uint16(buf[i : i+2]))
		v := float64(s) * volume
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(buf[i:i+2], uint16(int16(v)))
	}
}
