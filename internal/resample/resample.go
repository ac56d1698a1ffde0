// Package resample converts interleaved signed 16-bit PCM between sample
// rates using linear interpolation. It exists because the container
// adapter (internal/container/reisen) decodes audio at the stream's native
// rate, but internal/audiodevice opens the output device at a fixed rate;
// the audio renderer resamples in between.
package resample

import "encoding/binary"

// Resampler converts interleaved S16LE PCM from one sample rate to another,
// preserving channel count. It keeps a fractional-position cursor and the
// last frame of input across calls so a stream of chunks resamples as if it
// were one continuous buffer.
type Resampler struct {
	srcRate, dstRate int
	channels         int

	// pos is the fractional read position into the pending input, in
	// source-sample units.
	pos float64

	// last holds one frame (per channel) carried over from the previous
	// call, used as the interpolation left-edge for the next call.
	last    []int16
	hasLast bool
}

// New builds a Resampler. Panics if srcRate, dstRate, or channels is not
// positive, since those are programmer errors (the caller always derives
// them from a probed MediaInfo and a fixed device configuration).
func New(srcRate, dstRate, channels int) *Resampler {
	if srcRate <= 0 || dstRate <= 0 || channels <= 0 {
		panic("resample: srcRate, dstRate and channels must be positive")
	}
	return &Resampler{
		srcRate:  srcRate,
		dstRate:  dstRate,
		channels: channels,
		last:     make([]int16, channels),
	}
}

// Ratio returns dstRate/srcRate.
func (r *Resampler) Ratio() float64 { return float64(r.dstRate) / float64(r.srcRate) }

// Reset clears carry-over state, so the next Process call starts a fresh
// interpolation window with no samples from earlier input.
func (r *Resampler) Reset() {
	r.pos = 0
	r.hasLast = false
	for i := range r.last {
		r.last[i] = 0
	}
}

// Process converts in (interleaved S16LE, r.channels channels) and returns
// interleaved S16LE output at dstRate. If srcRate == dstRate it returns in
// unchanged without copying.
func (r *Resampler) Process(in []byte) []byte {
	if r.srcRate == r.dstRate {
		return in
	}

	frameBytes := 2 * r.channels
	nIn := len(in) / frameBytes
	if nIn == 0 {
		return nil
	}

	frame := func(i int, ch int) int16 {
		if i < 0 {
			return r.last[ch]
		}
		off := i*frameBytes + ch*2
		return int16(binary.LittleEndian.Uint16(in[off : off+2]))
	}

	ratio := r.Ratio()
	step := 1.0 / ratio

	var out []byte
	pos := r.pos
	for {
		i0 := int(pos)
		if i0 >= nIn {
			break
		}
		frac := pos - float64(i0)
		buf := make([]byte, frameBytes)
		for ch := 0; ch < r.channels; ch++ {
			s0 := frame(i0-1, ch)
			s1 := frame(i0, ch)
			v := float64(s0) + (float64(s1)-float64(s0))*frac
			binary.LittleEndian.PutUint16(buf[ch*2:ch*2+2], uint16(int16(v)))
		}
		out = append(out, buf...)
		pos += step
	}

	r.pos = pos - float64(nIn)
	for ch := 0; ch < r.channels; ch++ {
		r.last[ch] = frame(nIn-1, ch)
	}
	r.hasLast = true

	return out
}

// Remix converts interleaved S16LE PCM between srcChannels and dstChannels.
// Only mono<->stereo are implemented, since those are the only directions
// the reisen/ebiten pairing this package serves can actually produce (a
// mono source feeding ebiten's stereo-only audio output, or vice versa);
// any other channel count pairing returns in unchanged.
func Remix(in []byte, srcChannels, dstChannels int) []byte {
	switch {
	case srcChannels == dstChannels:
		return in
	case srcChannels == 1 && dstChannels == 2:
		out := make([]byte, len(in)*2)
		for i, j := 0, 0; i+1 < len(in); i, j = i+2, j+4 {
			out[j], out[j+1] = in[i], in[i+1]
			out[j+2], out[j+3] = in[i], in[i+1]
		}
		return out
	case srcChannels == 2 && dstChannels == 1:
		out := make([]byte, len(in)/2)
		for i, j := 0, 0; i+3 < len(in); i, j = i+4, j+2 {
			l := int16(binary.LittleEndian.Uint16(in[i : i+2]))
			r := int16(binary.LittleEndian.Uint16(in[i+2 : i+4]))
			binary.LittleEndian.PutUint16(out[j:j+2], uint16(int16((int32(l)+int32(r))/2)))
		}
		return out
	default:
		return in
	}
}
