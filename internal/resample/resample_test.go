package resample

import (
	"encoding/binary"
	"testing"
)

func encodeS16(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(s))
	}
	return buf
}

func decodeS16(buf []byte) []int16 {
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return out
}

func TestProcessIdentityWhenRatesMatch(t *testing.T) {
	r := New(44100, 44100, 2)
	in := encodeS16([]int16{100, -100, 200, -200})
	out := r.Process(in)
	if len(out) != len(in) {
		t.Fatalf("expected passthrough, got len %d want %d", len(out), len(in))
	}
}

func TestProcessUpsamplesMono(t *testing.T) {
	r := New(8000, 16000, 1)
	in := encodeS16([]int16{0, 1000, 2000, 3000})
	out := decodeS16(r.Process(in))
	if len(out) < len(in) {
		t.Fatalf("expected upsample to produce more samples, got %d from %d", len(out), len(in))
	}
}

func TestProcessDownsamplesStereo(t *testing.T) {
	r := New(48000, 24000, 2)
	samples := make([]int16, 200)
	for i := range samples {
		samples[i] = int16(i)
	}
	out := decodeS16(r.Process(encodeS16(samples)))
	if len(out) == 0 || len(out) >= len(samples) {
		t.Fatalf("expected downsample to shrink sample count, got %d from %d", len(out), len(samples))
	}
	if len(out)%2 != 0 {
		t.Fatalf("expected interleaved stereo output to stay even-length, got %d", len(out))
	}
}

func TestResetClearsCarryOver(t *testing.T) {
	r := New(8000, 16000, 1)
	_ = r.Process(encodeS16([]int16{0, 1000, 2000, 3000}))
	r.Reset()
	if r.pos != 0 || r.hasLast {
		t.Fatalf("expected Reset to clear cursor and carry-over state")
	}
}

func TestProcessContinuityAcrossCalls(t *testing.T) {
	r := New(8000, 16000, 1)
	var all []int16
	chunks := [][]int16{
		{0, 1000},
		{2000, 3000},
		{1000, 0},
	}
	for _, c := range chunks {
		all = append(all, decodeS16(r.Process(encodeS16(c)))...)
	}
	if len(all) == 0 {
		t.Fatalf("expected non-empty output across chunked calls")
	}
}
