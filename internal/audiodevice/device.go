// Package audiodevice implements player.AudioDevice over
// github.com/hajimehoshi/ebiten/v2/audio, pulling PCM from a
// player.AudioReader on ebitengine's own audio goroutine.
package audiodevice

import (
	"errors"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	player "github.com/vireo-player/core"
)

// playerBufferSize is large enough to absorb scheduling jitter in the
// pull callback without introducing noticeable output latency.
const playerBufferSize = 200 * time.Millisecond

// deviceChannels is fixed: ebitengine's audio package only ever reads
// interleaved stereo S16LE from a player's io.Reader, whatever the
// source's native channel count. Open reports this unconditionally so
// the renderer above it knows to remix instead of assuming a match.
const deviceChannels = 2

var errNotOpened = errors.New("audiodevice: Start called before Open")

// Device adapts an ebiten/v2/audio player to player.AudioDevice.
//
// ebitengine only supports one audio.Context per process; Open reuses
// the current one if already created rather than constructing a second.
type Device struct {
	mu     sync.Mutex
	ctx    *audio.Context
	reader *readerAdapter
	player *audio.Player
	format player.AudioFormat
}

// New returns an unopened Device.
func New() *Device {
	return &Device{}
}

func (d *Device) Open(reader player.AudioReader, requested player.AudioFormat) (player.AudioFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx := audio.CurrentContext(); ctx != nil {
		d.ctx = ctx
	} else {
		d.ctx = audio.NewContext(requested.SampleRate)
	}
	// ebitengine's context sample rate is fixed at creation; report back
	// whatever the live context actually runs at so upstream resampling
	// (if any) can target it. Channel count is not negotiable at all:
	// audio.Player always reads interleaved stereo, so report that
	// regardless of what the source asked for.
	requested.SampleRate = d.ctx.SampleRate()
	requested.Channels = deviceChannels
	d.format = requested
	d.reader = &readerAdapter{reader: reader}
	return d.format, nil
}

func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil || d.reader == nil {
		return errNotOpened
	}

	p, err := d.ctx.NewPlayer(d.reader)
	if err != nil {
		return err
	}
	p.SetBufferSize(playerBufferSize)
	p.Play()
	d.player = p
	return nil
}

func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		_ = d.player.Pause()
	}
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		err := d.player.Close()
		d.player = nil
		d.reader = nil
		return err
	}
	return nil
}

func (d *Device) SetVolume(volume float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	if d.player != nil {
		d.player.SetVolume(volume)
	}
}

// readerAdapter wraps a player.AudioReader pull callback as an io.Reader
// so it can be handed to ebiten's audio player.
type readerAdapter struct {
	reader player.AudioReader
}

func (r *readerAdapter) Read(buf []byte) (int, error) {
	return r.reader.Read(buf)
}
