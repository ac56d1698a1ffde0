package player

import (
	"context"
	"sync"
	"time"

	"github.com/vireo-player/core/internal/bufpool"
	pipelineerrors "github.com/vireo-player/core/internal/errors"
)

// stopGracePeriod bounds how long Stop waits for every stage's goroutine
// to exit before giving up (testable property 11).
const stopGracePeriod = 2 * time.Second

// Coordinator is the single owner of every queue, the Clock, and every
// stage. It exposes the external control API and enforces the playback
// state machine.
type Coordinator struct {
	mu sync.Mutex

	opener       ContainerOpener
	videoSurface VideoSurface
	audioDevice  AudioDevice
	logger       Logger

	events chan Event

	state      State
	voiceState VoiceState
	mediaInfo  MediaInfo
	volume     float64

	container Container
	hasVideo  bool
	hasAudio  bool

	videoPacketQueue *PacketQueue
	audioPacketQueue *PacketQueue
	videoFrameQueue  *FrameQueue
	audioFrameQueue  *FrameQueue
	clock            *Clock

	demuxer       *Demuxer
	videoDecoder  *VideoDecoder
	audioDecoder  *AudioDecoder
	videoRenderer *VideoRenderer
	audioRenderer *AudioRenderer

	initialized bool
}

// NewCoordinator constructs a Coordinator. videoSurface and audioDevice
// are held even for audio-only or video-only media; they are simply never
// opened/started for the stream kind that's absent.
func NewCoordinator(opener ContainerOpener, videoSurface VideoSurface, audioDevice AudioDevice, logger Logger) *Coordinator {
	if logger == nil {
		logger = pkgLogger
	}
	return &Coordinator{
		opener:       opener,
		videoSurface: videoSurface,
		audioDevice:  audioDevice,
		logger:       logger,
		events:       make(chan Event, 32),
		volume:       1.0,
	}
}

// Events returns the channel of state/error/info notifications. The
// caller is responsible for draining it; a full buffer causes emit to
// drop the oldest pending notification rather than block a stage.
func (c *Coordinator) Events() <-chan Event { return c.events }

func (c *Coordinator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- ev:
		default:
		}
	}
}

// OpenMedia probes path for MediaInfo and closes whatever was previously
// open first, making it idempotent with respect to a prior open whether
// this call succeeds or fails.
func (c *Coordinator) OpenMedia(ctx context.Context, path string) (MediaInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.noLockStop()
	c.setStateLocked(Stopped)

	container, info, err := c.opener.Open(ctx, path)
	if err != nil {
		wrapped := &pipelineerrors.OpenError{Op: "open_media", Err: err}
		c.emit(Event{Kind: EventError, ErrKind: "OpenFailed", ErrMessage: wrapped.Error()})
		return MediaInfo{}, wrapped
	}
	if !info.HasVideo && !info.HasAudio {
		_ = container.Close()
		wrapped := &pipelineerrors.NoPlayableStreamError{Path: path}
		c.emit(Event{Kind: EventError, ErrKind: "NoPlayableStream", ErrMessage: wrapped.Error()})
		return MediaInfo{}, wrapped
	}

	c.container = container
	c.mediaInfo = info
	c.hasVideo = info.HasVideo
	c.hasAudio = info.HasAudio
	c.initialized = false

	c.emit(Event{Kind: EventMediaInfoReady, MediaInfo: info})
	return info, nil
}

// Start moves Stopped -> Playing, constructing the pipeline on first use.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.container == nil {
		return ErrNotLoaded
	}
	if c.state == Playing {
		return nil
	}

	if !c.initialized {
		c.buildPipelineLocked()
		c.initialized = true
	}

	c.clock.Init()

	if c.hasVideo {
		if err := c.videoDecoder.Open(); err != nil {
			c.emitErrorLocked("DecoderInitFailed", err)
			c.noLockStop()
			c.setStateLocked(Stopped)
			return err
		}
	}
	if c.hasAudio {
		if err := c.audioDecoder.Open(); err != nil {
			c.emitErrorLocked("DecoderInitFailed", err)
			c.noLockStop()
			c.setStateLocked(Stopped)
			return err
		}
		if _, err := c.audioRenderer.Open(AudioFormat{
			SampleRate: c.mediaInfo.AudioSampleRate,
			Channels:   c.mediaInfo.AudioChannels,
		}); err != nil {
			// Degraded mode: video (if any) continues without audio.
			c.emitErrorLocked("DeviceOpenFailed", err)
			c.hasAudio = false
			if c.audioFrameQueue != nil {
				c.audioFrameQueue.SetFinished()
			}
			if c.audioPacketQueue != nil {
				c.audioPacketQueue.SetFinished()
			}
			if !c.hasVideo {
				c.setStateLocked(Stopped)
				return err
			}
		}
	}

	c.demuxer.Start()
	if c.hasVideo {
		c.videoDecoder.Start()
	}
	if c.hasAudio {
		c.audioDecoder.Start()
	}
	if c.hasVideo {
		c.videoRenderer.Start()
	}
	if c.hasAudio {
		c.audioRenderer.Start()
	}

	c.setStateLocked(Playing)
	return nil
}

// Pause moves Playing -> Paused; no-op otherwise.
func (c *Coordinator) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return nil
	}
	c.pauseStagesLocked()
	c.setStateLocked(Paused)
	return nil
}

// Resume moves Paused -> Playing; no-op otherwise.
func (c *Coordinator) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Paused {
		return nil
	}
	c.resumeStagesLocked()
	c.setStateLocked(Playing)
	return nil
}

// Seek pauses every stage, asks the Demuxer to seek, resets the Clock,
// flushes both decoders, clears both packet queues, then restores
// whichever of Playing/Paused the coordinator was in before the call —
// a seek issued while Paused leaves playback paused rather than
// resuming it.
func (c *Coordinator) Seek(targetMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Stopped {
		return &pipelineerrors.SeekError{TargetMs: targetMs}
	}
	wasPaused := c.state == Paused

	c.pauseStagesLocked()

	if err := c.demuxer.Seek(targetMs); err != nil {
		if !wasPaused {
			c.resumeStagesLocked()
		}
		return err
	}

	c.clock.Reset()

	if c.hasVideo {
		if err := c.videoDecoder.Flush(); err != nil {
			c.logger.Printf("seek: video decoder flush: %v", err)
		}
	}
	if c.hasAudio {
		if err := c.audioDecoder.Flush(); err != nil {
			c.logger.Printf("seek: audio decoder flush: %v", err)
		}
	}
	if c.videoPacketQueue != nil {
		c.videoPacketQueue.Clear()
	}
	if c.audioPacketQueue != nil {
		c.audioPacketQueue.Clear()
	}

	if !wasPaused {
		c.resumeStagesLocked()
	}
	return nil
}

// Stop moves any state to Stopped, quiescing every stage in dependency
// order and releasing all per-session resources.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noLockStop()
	c.setStateLocked(Stopped)
	return nil
}

// SetVolume sets the device gain (0..100) and derives VoiceState from it.
func (c *Coordinator) SetVolume(percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	c.volume = float64(percent) / 100.0

	if c.hasAudio && c.audioRenderer != nil {
		c.audioRenderer.SetVolume(c.volume)
	}

	newVoice := VoiceNormal
	if percent == 0 {
		newVoice = VoiceMute
	}
	if newVoice != c.voiceState {
		c.voiceState = newVoice
		c.emit(Event{Kind: EventVoiceStateChanged, VoiceState: newVoice})
	}
	return nil
}

// CurrentProgressSeconds returns the master clock's current value, or 0
// before any media has started playing.
func (c *Coordinator) CurrentProgressSeconds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock == nil {
		return 0
	}
	v := c.clock.Get()
	if v != v { // NaN
		return 0
	}
	return v
}

// DurationMs returns the current media's duration.
func (c *Coordinator) DurationMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mediaInfo.DurationMs
}

// State returns the current playback state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// --- internal ---

func (c *Coordinator) buildPipelineLocked() {
	if c.hasVideo {
		c.videoPacketQueue = NewPacketQueue(DefaultVideoPacketQueueCapacity)
		c.videoFrameQueue = NewFrameQueue(DefaultVideoFrameQueueCapacity)
	}
	if c.hasAudio {
		c.audioPacketQueue = NewPacketQueue(DefaultAudioPacketQueueCapacity)
		c.audioFrameQueue = NewFrameQueue(DefaultAudioFrameQueueCapacity)
	}
	c.clock = NewClock()

	c.demuxer = NewDemuxer(c.container, c.mediaInfo, c.videoPacketQueue, c.audioPacketQueue, c.onStageError, c.logger)

	if c.hasVideo {
		c.videoDecoder = NewVideoDecoder(c.container.VideoDecoder(), c.videoPacketQueue, c.videoFrameQueue, c.onStageError, c.logger)
		c.videoRenderer = NewVideoRenderer(c.videoFrameQueue, c.clock, c.videoSurface, c.onStageError)
	}
	if c.hasAudio {
		c.audioDecoder = NewAudioDecoder(c.container.AudioDecoder(), c.audioPacketQueue, c.audioFrameQueue, c.onStageError, c.logger)
		c.audioRenderer = NewAudioRenderer(c.audioFrameQueue, c.clock, c.audioDevice, bufpool.New())
		c.audioRenderer.SetVolume(c.volume)
	}
}

func (c *Coordinator) pauseStagesLocked() {
	if c.demuxer != nil {
		c.demuxer.Pause()
	}
	if c.videoDecoder != nil {
		c.videoDecoder.Pause()
	}
	if c.audioDecoder != nil {
		c.audioDecoder.Pause()
	}
	if c.videoRenderer != nil {
		c.videoRenderer.Pause()
	}
	if c.audioRenderer != nil {
		c.audioRenderer.Pause()
	}
}

func (c *Coordinator) resumeStagesLocked() {
	if c.demuxer != nil {
		c.demuxer.Resume()
	}
	if c.videoDecoder != nil {
		c.videoDecoder.Resume()
	}
	if c.audioDecoder != nil {
		c.audioDecoder.Resume()
	}
	if c.videoRenderer != nil {
		c.videoRenderer.Resume()
	}
	if c.audioRenderer != nil {
		c.audioRenderer.Resume()
	}
}

// noLockStop tears down the current session, if any. Safe to call when
// nothing is loaded.
func (c *Coordinator) noLockStop() {
	if c.container == nil {
		return
	}

	// Reverse of start order: renderers, then decoders, then demuxer.
	stages := []*stageBase{}
	if c.videoRenderer != nil {
		c.videoRenderer.Stop()
		stages = append(stages, c.videoRenderer.stageBase)
	}
	if c.audioRenderer != nil {
		c.audioRenderer.Stop()
		stages = append(stages, c.audioRenderer.stageBase)
	}
	if c.videoDecoder != nil {
		c.videoDecoder.Stop()
		stages = append(stages, c.videoDecoder.stageBase)
	}
	if c.audioDecoder != nil {
		c.audioDecoder.Stop()
		stages = append(stages, c.audioDecoder.stageBase)
	}
	if c.demuxer != nil {
		c.demuxer.Stop()
		stages = append(stages, c.demuxer.stageBase)
	}
	if c.videoPacketQueue != nil {
		c.videoPacketQueue.SetFinished()
	}
	if c.audioPacketQueue != nil {
		c.audioPacketQueue.SetFinished()
	}
	if c.videoFrameQueue != nil {
		c.videoFrameQueue.SetFinished()
	}
	if c.audioFrameQueue != nil {
		c.audioFrameQueue.SetFinished()
	}

	deadline := time.Now().Add(stopGracePeriod)
	for _, sb := range stages {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if !sb.WaitStopped(remaining) {
			c.logger.Printf("stop: a stage did not exit within the grace period")
		}
	}

	if c.videoRenderer != nil {
		if err := c.videoRenderer.Close(); err != nil {
			c.logger.Printf("stop: video renderer close: %v", err)
		}
	}
	if c.audioRenderer != nil {
		if err := c.audioRenderer.Close(); err != nil {
			c.logger.Printf("stop: audio renderer close: %v", err)
		}
	}
	if c.videoDecoder != nil {
		if err := c.videoDecoder.Close(); err != nil {
			c.logger.Printf("stop: video decoder close: %v", err)
		}
	}
	if c.audioDecoder != nil {
		if err := c.audioDecoder.Close(); err != nil {
			c.logger.Printf("stop: audio decoder close: %v", err)
		}
	}
	if c.demuxer != nil {
		if err := c.demuxer.Close(); err != nil {
			c.logger.Printf("stop: demuxer close: %v", err)
		}
	}

	c.container = nil
	c.hasVideo = false
	c.hasAudio = false
	c.initialized = false
	c.demuxer = nil
	c.videoDecoder = nil
	c.audioDecoder = nil
	c.videoRenderer = nil
	c.audioRenderer = nil
	c.videoPacketQueue = nil
	c.audioPacketQueue = nil
	c.videoFrameQueue = nil
	c.audioFrameQueue = nil
	c.clock = nil
}

func (c *Coordinator) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.emit(Event{Kind: EventStateChanged, State: s})
}

func (c *Coordinator) emitErrorLocked(kind string, err error) {
	c.emit(Event{Kind: EventError, ErrKind: kind, ErrMessage: err.Error()})
}

// onStageError is passed to every stage as their error callback. It
// reports the error but does not itself change state: persistent
// open/decoder-init failures are handled explicitly in Start; transient
// run-loop errors are expected to be logged and swallowed by the stage.
func (c *Coordinator) onStageError(err error) {
	kind := "TransientDecode"
	if pipelineerrors.IsQueueClosed(err) {
		kind = "QueueClosed"
	}
	c.mu.Lock()
	c.emit(Event{Kind: EventError, ErrKind: kind, ErrMessage: err.Error()})
	c.mu.Unlock()
}
