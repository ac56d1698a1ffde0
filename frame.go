package player

// PixFmt identifies a video frame's pixel layout.
type PixFmt uint8

const (
	PixFmtUnknown PixFmt = iota
	PixFmtYUV420P        // planar YUV 4:2:0, three planes
	PixFmtRGBA           // packed RGBA, one plane
)

// SampleFormat identifies an audio frame's sample encoding.
type SampleFormat uint8

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatS16             // interleaved signed 16-bit
)

// Frame is a decoded sample produced by a decoder stage and consumed by a
// renderer stage.
//
// Planes/Strides are kept generic rather than hard-coded to one packing so
// a different container adapter could supply true planar YUV without
// changing this type; the reisen-backed adapter used by this
// implementation always populates a single plane (PixFmtRGBA for video,
// SampleFormatS16 for audio), since libswscale/libswresample already do
// the conversion inside the container library.
type Frame struct {
	Kind StreamKind

	// PTS is verbatim from the decoder, in TimeBase units — never
	// re-stamped by this package.
	PTS      int64
	TimeBase Rational

	// Video fields.
	PixFmt  PixFmt
	Width   int
	Height  int
	Strides []int
	Planes  [][]byte

	// Audio fields.
	SampleFormat  SampleFormat
	SampleRate    int
	ChannelLayout string
	Channels      int
	SampleCount   int
}

// PTSSeconds converts PTS to seconds using TimeBase.
func (f *Frame) PTSSeconds() float64 {
	return float64(f.PTS) * f.TimeBase.Seconds()
}
