package player

import (
	"sync"
	"testing"
	"time"

	pipelineerrors "github.com/vireo-player/core/internal/errors"
)

func TestPacketQueueFIFO(t *testing.T) {
	q := NewPacketQueue(4)
	want := []*Packet{
		NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil),
		NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil),
		NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil),
	}
	for _, p := range want {
		if err := q.Enqueue(p); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	for i, p := range want {
		got, ok, err := q.Dequeue(time.Second)
		if err != nil || !ok {
			t.Fatalf("Dequeue[%d]: ok=%v err=%v", i, ok, err)
		}
		if got != p {
			t.Fatalf("Dequeue[%d] out of order", i)
		}
	}
}

func TestPacketQueueCapacityBound(t *testing.T) {
	q := NewPacketQueue(2)
	_ = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))
	_ = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))
	if q.Len() > 2 {
		t.Fatalf("len exceeded capacity: %d", q.Len())
	}

	blocked := make(chan struct{})
	go func() {
		_ = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatalf("enqueue on full queue should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	if _, _, err := q.Dequeue(time.Second); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatalf("blocked enqueue did not wake after a dequeue")
	}
}

func TestPacketQueueDrainsAfterFinished(t *testing.T) {
	q := NewPacketQueue(4)
	_ = q.Enqueue(NewPacket(StreamAudio, 1, Rational{}, Rational{}, nil))
	q.SetFinished()

	if _, ok, err := q.Dequeue(time.Second); !ok || err != nil {
		t.Fatalf("expected to drain the remaining item, ok=%v err=%v", ok, err)
	}

	start := time.Now()
	_, ok, err := q.Dequeue(time.Second)
	if ok || !pipelineerrors.IsQueueClosed(err) {
		t.Fatalf("expected Closed once drained, ok=%v err=%v", ok, err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("Dequeue on a finished+empty queue should return immediately, took %v", time.Since(start))
	}
}

func TestPacketQueueClearReleasesItems(t *testing.T) {
	q := NewPacketQueue(4)
	_ = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))
	_ = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after Clear, got len=%d", q.Len())
	}
	if q.IsFinished() {
		t.Fatalf("Clear must not affect finished")
	}
}

func TestPacketQueueEnqueueWakesOnSetFinished(t *testing.T) {
	q := NewPacketQueue(1)
	_ = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = q.Enqueue(NewPacket(StreamVideo, 0, Rational{}, Rational{}, nil))
	}()

	time.Sleep(20 * time.Millisecond)
	q.SetFinished()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("blocked enqueue did not wake on SetFinished")
	}
	if !pipelineerrors.IsQueueClosed(err) {
		t.Fatalf("expected QueueClosedError, got %v", err)
	}
}

func TestFrameQueuePeekThenRemoveHead(t *testing.T) {
	q := NewFrameQueue(4)
	f := &Frame{Kind: StreamVideo, PTS: 10}
	_ = q.Enqueue(f)

	peeked, ok := q.Peek()
	if !ok || peeked != f {
		t.Fatalf("Peek did not return the head frame")
	}
	if q.Len() != 1 {
		t.Fatalf("Peek must not remove the item")
	}

	removed, ok := q.RemoveHead()
	if !ok || removed != f {
		t.Fatalf("RemoveHead did not return the head frame")
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue empty after RemoveHead")
	}
}

func TestFrameQueueTryDequeueEmpty(t *testing.T) {
	q := NewFrameQueue(4)
	_, ok, err := q.TryDequeue()
	if ok || err != nil {
		t.Fatalf("expected empty/no-error on empty non-finished queue, ok=%v err=%v", ok, err)
	}
}
