package player

import (
	"sync"
	"time"
)

// stageBase is the shared lifecycle capability set every pipeline worker
// (Demuxer, *Decoder, *Renderer) embeds: Initialize/Start/Pause/Resume/
// Stop/IsRunning/IsPaused, one goroutine per stage.
//
// This generalizes a base worker type from the system the pipeline is
// modeled on: there, a thread base class drives a pause-aware loop with a
// mutex and a wait condition; here a goroutine plays the role of the OS
// thread and sync.Cond plays the role of the wait condition. Stop sets a
// flag and broadcasts rather than preempting — a stage currently inside a
// blocking call runs to its next yield point before observing the flag.
// Cancellation is cooperative, never forced.
type stageBase struct {
	mu   sync.Mutex
	cond *sync.Cond

	running bool
	paused  bool
	done    chan struct{}
}

func newStageBase() *stageBase {
	sb := &stageBase{}
	sb.cond = sync.NewCond(&sb.mu)
	return sb
}

// Initialize resets the stage to a fresh, not-yet-started state.
func (sb *stageBase) Initialize() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.running = false
	sb.paused = false
	sb.done = nil
}

// run launches the stage's goroutine, which repeatedly calls process
// until Stop. process should perform one bounded unit of work and return
// promptly so pause/stop are observed without excessive latency.
func (sb *stageBase) run(process func()) {
	sb.mu.Lock()
	sb.running = true
	sb.done = make(chan struct{})
	done := sb.done
	sb.mu.Unlock()

	go func() {
		defer close(done)
		for {
			sb.mu.Lock()
			for sb.paused && sb.running {
				sb.cond.Wait()
			}
			running := sb.running
			sb.mu.Unlock()
			if !running {
				return
			}
			process()
		}
	}()
}

// Pause sets the paused flag. The stage's goroutine blocks before its
// next process() call until Resume or Stop.
func (sb *stageBase) Pause() {
	sb.mu.Lock()
	sb.paused = true
	sb.mu.Unlock()
}

// Resume clears the paused flag and wakes the stage's goroutine.
func (sb *stageBase) Resume() {
	sb.mu.Lock()
	sb.paused = false
	sb.cond.Broadcast()
	sb.mu.Unlock()
}

// Stop signals the stage to exit its loop and wakes it if paused.
func (sb *stageBase) Stop() {
	sb.mu.Lock()
	sb.running = false
	sb.paused = false
	sb.cond.Broadcast()
	sb.mu.Unlock()
}

func (sb *stageBase) IsRunning() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.running
}

func (sb *stageBase) IsPaused() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.paused
}

// WaitStopped blocks until the stage's goroutine has exited or timeout
// elapses, returning false on timeout. Used by the Coordinator to bound
// the grace period on stop().
func (sb *stageBase) WaitStopped(timeout time.Duration) bool {
	sb.mu.Lock()
	done := sb.done
	sb.mu.Unlock()
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
