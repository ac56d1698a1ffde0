// Package reisen adapts github.com/erparts/reisen to the player package's
// Container/ContainerOpener/VideoDecoderBackend/AudioDecoderBackend
// interfaces.
package reisen

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/erparts/reisen"

	player "github.com/vireo-player/core"
)

// Opener implements player.ContainerOpener.
type Opener struct {
	Logger player.Logger
}

func (o Opener) Open(ctx context.Context, path string) (player.Container, player.MediaInfo, error) {
	media, err := reisen.NewMedia(path)
	if err != nil {
		return nil, player.MediaInfo{}, err
	}

	c := &container{media: media}
	var info player.MediaInfo

	videoStreams := media.VideoStreams()
	if len(videoStreams) > 0 {
		if len(videoStreams) > 1 && o.Logger != nil {
			o.Logger.Printf("reisen: %q has multiple video streams; defaulting to the first", filepath.Base(path))
		}
		vs := videoStreams[0]
		c.video = vs
		c.videoIndex = vs.Index()

		duration, err := vs.Duration()
		if err != nil {
			return nil, player.MediaInfo{}, fmt.Errorf("video stream duration: %w", err)
		}
		frNum, frDen := vs.FrameRate()

		info.HasVideo = true
		info.VideoStreamIndex = vs.Index()
		info.Width = vs.Width()
		info.Height = vs.Height()
		info.FrameRate = player.Rational{Num: int64(frNum), Den: int64(frDen)}
		info.VideoTimeBase = player.Rational{Num: 1, Den: 1000}
		if ms := duration.Milliseconds(); ms > info.DurationMs {
			info.DurationMs = ms
		}
	}

	audioStreams := media.AudioStreams()
	if len(audioStreams) > 0 {
		if len(audioStreams) > 1 && o.Logger != nil {
			o.Logger.Printf("reisen: %q has multiple audio streams; defaulting to the first", filepath.Base(path))
		}
		as := audioStreams[0]
		c.audio = as
		c.audioIndex = as.Index()

		duration, err := as.Duration()
		if err != nil {
			return nil, player.MediaInfo{}, fmt.Errorf("audio stream duration: %w", err)
		}
		channels := as.ChannelCount()

		info.HasAudio = true
		info.AudioStreamIndex = as.Index()
		info.AudioTimeBase = player.Rational{Num: 1, Den: 1000}
		info.AudioSampleRate = as.SampleRate()
		info.AudioChannels = channels
		info.AudioChannelLayout = channelLayoutName(channels)
		info.AudioSampleFormat = player.SampleFormatS16
		if ms := duration.Milliseconds(); ms > info.DurationMs {
			info.DurationMs = ms
		}
	}

	if !info.HasVideo && !info.HasAudio {
		return nil, player.MediaInfo{}, fmt.Errorf("reisen: %q has neither video nor audio streams", filepath.Base(path))
	}

	return c, info, nil
}

func channelLayoutName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// container wraps a single opened reisen.Media and its selected video/
// audio streams. Decode mode (media.OpenDecode, stream.Open) is entered
// lazily the first time either decoder backend is opened, since probing
// for MediaInfo in Opener.Open doesn't require it.
type container struct {
	mediaOnce sync.Once
	openErr   error
	media     *reisen.Media

	video      *reisen.VideoStream
	videoIndex int
	audio      *reisen.AudioStream
	audioIndex int
}

func (c *container) ensureDecodeOpen() error {
	c.mediaOnce.Do(func() {
		c.openErr = c.media.OpenDecode()
	})
	return c.openErr
}

func (c *container) ReadPacket() (*player.Packet, error) {
	packet, found, err := c.media.ReadPacket()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, io.EOF
	}

	switch packet.Type() {
	case reisen.StreamVideo:
		if c.video == nil || packet.StreamIndex() != c.videoIndex {
			return nil, nil
		}
		return player.NewPacket(player.StreamVideo, c.videoIndex, player.Rational{}, player.Rational{}, c.decodeVideo), nil
	case reisen.StreamAudio:
		if c.audio == nil || packet.StreamIndex() != c.audioIndex {
			return nil, nil
		}
		return player.NewPacket(player.StreamAudio, c.audioIndex, player.Rational{}, player.Rational{}, c.decodeAudio), nil
	default:
		return nil, nil
	}
}

func (c *container) decodeVideo() (*player.Frame, bool, error) {
	frame, found, err := c.video.ReadVideoFrame()
	if err != nil || !found || frame == nil {
		return nil, false, err
	}
	presOffset, err := frame.PresentationOffset()
	if err != nil {
		return nil, false, err
	}
	return &player.Frame{
		Kind:     player.StreamVideo,
		PTS:      presOffset.Milliseconds(),
		TimeBase: player.Rational{Num: 1, Den: 1000},
		PixFmt:   player.PixFmtRGBA,
		Width:    c.video.Width(),
		Height:   c.video.Height(),
		Planes:   [][]byte{frame.Data()},
	}, true, nil
}

func (c *container) decodeAudio() (*player.Frame, bool, error) {
	frame, found, err := c.audio.ReadAudioFrame()
	if err != nil || !found || frame == nil {
		return nil, false, err
	}
	presOffset, err := frame.PresentationOffset()
	if err != nil {
		return nil, false, err
	}
	channels := c.audio.ChannelCount()
	data := frame.Data()
	sampleCount := 0
	if channels > 0 {
		sampleCount = len(data) / (2 * channels)
	}
	return &player.Frame{
		Kind:          player.StreamAudio,
		PTS:           presOffset.Milliseconds(),
		TimeBase:      player.Rational{Num: 1, Den: 1000},
		SampleFormat:  player.SampleFormatS16,
		SampleRate:    c.audio.SampleRate(),
		Channels:      channels,
		ChannelLayout: channelLayoutName(channels),
		SampleCount:   sampleCount,
		Planes:        [][]byte{data},
	}, true, nil
}

// Seek rewinds both streams to targetMs. reisen has no combined-container
// seek; the two Rewind calls are not atomic with respect to each other.
func (c *container) Seek(targetMs int64) error {
	pos := time.Duration(targetMs) * time.Millisecond
	if c.video != nil {
		if err := c.video.Rewind(pos); err != nil {
			return err
		}
	}
	if c.audio != nil {
		if err := c.audio.Rewind(pos); err != nil {
			return err
		}
	}
	return nil
}

func (c *container) Close() error {
	if c.video != nil {
		_ = c.video.Close()
	}
	if c.audio != nil {
		_ = c.audio.Close()
	}
	if err := c.media.CloseDecode(); err != nil {
		return err
	}
	return c.media.Close()
}

func (c *container) VideoDecoder() player.VideoDecoderBackend {
	if c.video == nil {
		return nil
	}
	return &videoBackend{container: c}
}

func (c *container) AudioDecoder() player.AudioDecoderBackend {
	if c.audio == nil {
		return nil
	}
	return &audioBackend{container: c}
}

type videoBackend struct {
	container *container
}

func (b *videoBackend) Open() error {
	if err := b.container.ensureDecodeOpen(); err != nil {
		return err
	}
	return b.container.video.Open()
}

func (b *videoBackend) Close() error { return b.container.video.Close() }

// Flush is a no-op: container.Seek's Rewind call already resets the
// underlying decoder state; reisen exposes no separate codec-buffer
// flush.
func (b *videoBackend) Flush() error { return nil }

// Drain reports no residual frames: reisen couples read and decode into
// one call per packet with no explicit end-of-stream flush call, so there
// is nothing buffered inside the decoder to reclaim once the packet
// queue closes.
func (b *videoBackend) Drain() ([]*player.Frame, error) { return nil, nil }

type audioBackend struct {
	container *container
}

func (b *audioBackend) Open() error {
	if err := b.container.ensureDecodeOpen(); err != nil {
		return err
	}
	return b.container.audio.Open()
}

func (b *audioBackend) Close() error { return b.container.audio.Close() }

func (b *audioBackend) Flush() error { return nil }

func (b *audioBackend) Drain() ([]*player.Frame, error) { return nil, nil }
