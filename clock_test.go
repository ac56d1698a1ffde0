package player

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestClockGetBeforeSetIsNaN(t *testing.T) {
	c := NewClock()
	if !math.IsNaN(c.Get()) {
		t.Fatalf("expected NaN before any Set, got %v", c.Get())
	}
}

func TestClockAdvancesWithWallClock(t *testing.T) {
	c := NewClock()
	c.Set(10.0)
	time.Sleep(50 * time.Millisecond)
	got := c.Get()
	want := 10.0 + 0.05
	if math.Abs(got-want) > 0.02 {
		t.Fatalf("Get() = %v, want close to %v", got, want)
	}
}

func TestClockResetInvalidates(t *testing.T) {
	c := NewClock()
	c.Set(5.0)
	c.Reset()
	if !math.IsNaN(c.Get()) {
		t.Fatalf("expected NaN after Reset, got %v", c.Get())
	}
}

func TestClockConcurrentSetGetNoTornValue(t *testing.T) {
	c := NewClock()
	c.Set(0)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		pts := 0.0
		for {
			select {
			case <-stop:
				return
			default:
				c.Set(pts)
				pts++
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		got := c.Get()
		if math.IsNaN(got) || math.IsInf(got, 0) {
			close(stop)
			wg.Wait()
			t.Fatalf("observed torn/invalid clock value: %v", got)
		}
	}
	close(stop)
	wg.Wait()
}
