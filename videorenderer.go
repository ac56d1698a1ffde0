package player

import (
	"math"
	"time"
)

// DropThreshold and MaxSleep are the sync algorithm's tuning constants:
// frames more than DropThreshold behind the master clock are dropped
// rather than presented late; sleeps waiting to catch up are capped at
// MaxSleep so the stage stays responsive to pause/stop.
const (
	DropThreshold = 100 * time.Millisecond
	MaxSleep      = 10 * time.Millisecond
)

// VideoRenderer consumes decoded video frames in source order and
// presents surviving ones to a VideoSurface, syncing against the master
// Clock written by the AudioRenderer.
type VideoRenderer struct {
	*stageBase

	input   *FrameQueue
	clock   *Clock
	surface VideoSurface
	onError func(error)
}

func NewVideoRenderer(input *FrameQueue, clock *Clock, surface VideoSurface, onError func(error)) *VideoRenderer {
	return &VideoRenderer{
		stageBase: newStageBase(),
		input:     input,
		clock:     clock,
		surface:   surface,
		onError:   onError,
	}
}

// Close releases the surface by clearing it to black.
func (vr *VideoRenderer) Close() error {
	return vr.surface.Reset()
}

func (vr *VideoRenderer) Start() { vr.run(vr.process) }

func (vr *VideoRenderer) process() {
	frame, ok := vr.input.Peek()
	if !ok {
		if vr.input.IsFinished() && vr.input.IsEmpty() {
			vr.Pause()
			return
		}
		time.Sleep(idleSleep)
		return
	}

	master := vr.clock.Get()
	if math.IsNaN(master) {
		// No sync reference yet: present immediately.
		vr.consumeAndPresent(frame)
		return
	}

	target := frame.PTSSeconds()
	delta := target - master

	if delta > 0 {
		sleep := delta
		if sleep > MaxSleep.Seconds() {
			sleep = MaxSleep.Seconds()
		}
		time.Sleep(time.Duration(sleep * float64(time.Second)))
		return // re-evaluate next iteration without consuming
	}

	if delta < -DropThreshold.Seconds() {
		vr.input.RemoveHead() // drop: consume without presenting
		return
	}

	vr.consumeAndPresent(frame)
}

func (vr *VideoRenderer) consumeAndPresent(frame *Frame) {
	vr.input.RemoveHead()
	if err := vr.surface.Present(frame); err != nil && vr.onError != nil {
		vr.onError(err)
	}
}
