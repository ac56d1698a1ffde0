package player

import "time"

// Default capacities.
const (
	DefaultVideoFrameQueueCapacity = 3
	DefaultAudioFrameQueueCapacity = 30
)

// FrameQueue is a bounded FIFO of owning handles to Frame, connecting a
// decoder stage to a renderer stage.
type FrameQueue struct {
	q *itemQueue[*Frame]
}

// NewFrameQueue creates a FrameQueue with the given capacity.
func NewFrameQueue(capacity int) *FrameQueue {
	return &FrameQueue{q: newItemQueue[*Frame](capacity)}
}

func (fq *FrameQueue) Enqueue(f *Frame) error { return fq.q.enqueue(f) }
func (fq *FrameQueue) Dequeue(timeout time.Duration) (*Frame, bool, error) { return fq.q.dequeue(timeout) }
func (fq *FrameQueue) TryDequeue() (*Frame, bool, error) { return fq.q.tryDequeue() }
func (fq *FrameQueue) Peek() (*Frame, bool) { return fq.q.peek() }
func (fq *FrameQueue) RemoveHead() (*Frame, bool) { return fq.q.removeHead() }
func (fq *FrameQueue) Clear() { fq.q.clear() }
func (fq *FrameQueue) SetFinished() { fq.q.setFinished() }
func (fq *FrameQueue) Len() int { return fq.q.len() }
func (fq *FrameQueue) IsEmpty() bool { return fq.q.isEmpty() }
func (fq *FrameQueue) IsFull() bool { return fq.q.isFull() }
func (fq *FrameQueue) IsFinished() bool { return fq.q.isFinished() }
