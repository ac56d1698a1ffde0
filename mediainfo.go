package player

// MediaInfo is the result of a successful open: stream layout, timing,
// and codec parameters needed to wire up the pipeline.
type MediaInfo struct {
	DurationMs int64

	HasVideo         bool
	VideoStreamIndex int
	Width            int
	Height           int
	FrameRate        Rational
	VideoTimeBase    Rational

	HasAudio           bool
	AudioStreamIndex   int
	AudioTimeBase      Rational
	AudioSampleRate    int
	AudioChannelLayout string
	AudioChannels      int
	AudioSampleFormat  SampleFormat
}
