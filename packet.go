package player

// StreamKind identifies which elementary stream a Packet or Frame belongs
// to.
type StreamKind uint8

const (
	StreamVideo StreamKind = iota
	StreamAudio
)

func (k StreamKind) String() string {
	switch k {
	case StreamVideo:
		return "video"
	case StreamAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Packet is a compressed sample read from the container. Its payload is
// decoder-opaque: callers never see the underlying compressed bytes,
// only a one-shot Decode() that turns the packet into a Frame.
//
// The one-shot-closure shape exists because the container library backing
// this implementation couples "read next compressed unit" and "decode it"
// into adjacent calls on the same stream object, rather than exposing a
// standalone decodable packet handle that could be queued and decoded
// later by an unrelated call. Container adapters construct the closure at
// read time, bound to the stream that produced the packet.
type Packet struct {
	Kind        StreamKind
	StreamIndex int
	PTS         Rational
	DTS         Rational

	decode   func() (*Frame, bool, error)
	consumed bool
}

// NewPacket constructs a Packet. decode may be nil for packets that carry
// no decodable payload (none currently produced by the adapters, but kept
// possible for forward compatibility with container formats that emit
// side-data-only packets).
func NewPacket(kind StreamKind, streamIndex int, pts, dts Rational, decode func() (*Frame, bool, error)) *Packet {
	return &Packet{Kind: kind, StreamIndex: streamIndex, PTS: pts, DTS: dts, decode: decode}
}

// Decode invokes the packet's decode closure exactly once. Subsequent
// calls return (nil, false, nil). The returned bool reports whether a
// frame was produced; a decoder may legitimately consume a packet without
// emitting a frame (B-frame reordering, codec delay).
func (p *Packet) Decode() (*Frame, bool, error) {
	if p.consumed || p.decode == nil {
		return nil, false, nil
	}
	p.consumed = true
	return p.decode()
}
