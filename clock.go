package player

import (
	"math"
	"sync"
	"time"
)

// Clock is the master presentation-time reference. The AudioRenderer is
// its only writer; the VideoRenderer reads it to decide whether to sleep,
// drop, or present a frame.
//
// Guarded with a plain RWMutex rather than a lock-free seqlock: the
// operation rate here (hundreds per second at most) doesn't justify the
// added complexity. This also fixes a latent
// data race present in the unguarded C++ original this type is modeled
// on, where pts/anchor were read and written from different threads
// without synchronization.
type Clock struct {
	mu         sync.RWMutex
	pts        float64
	anchoredAt time.Time
}

// NewClock returns an initialized (unset) Clock.
func NewClock() *Clock {
	c := &Clock{}
	c.Init()
	return c
}

// Init marks pts as undefined. Get() returns NaN until the next Set().
func (c *Clock) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pts = math.NaN()
	c.anchoredAt = time.Time{}
}

// Set records ptsSeconds stamped against the current wall-clock time.
func (c *Clock) Set(ptsSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pts = ptsSeconds
	c.anchoredAt = time.Now()
}

// Get returns pts + (now - anchor), or NaN if Set has never been called
// since the last Init/Reset.
func (c *Clock) Get() float64 {
	c.mu.RLock()
	pts := c.pts
	anchoredAt := c.anchoredAt
	c.mu.RUnlock()

	if math.IsNaN(pts) {
		return math.NaN()
	}
	return pts + time.Since(anchoredAt).Seconds()
}

// Reset invalidates the reference; equivalent to Init.
func (c *Clock) Reset() { c.Init() }
