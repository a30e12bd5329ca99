package querycache

import (
	"sync"
	"testing"
	"time"
)

func TestTrackerCounters(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordHit(time.Millisecond)
	tracker.RecordHit(time.Millisecond)
	tracker.RecordMiss(time.Millisecond)
	tracker.RecordEviction()
	tracker.RecordExpiration()
	tracker.RecordExpiration()

	if tracker.Hits() != 2 {
		t.Errorf("Expected 2 hits, got %d", tracker.Hits())
	}
	if tracker.Misses() != 1 {
		t.Errorf("Expected 1 miss, got %d", tracker.Misses())
	}
	if tracker.Evictions() != 1 {
		t.Errorf("Expected 1 eviction, got %d", tracker.Evictions())
	}
	if tracker.Expirations() != 2 {
		t.Errorf("Expected 2 expirations, got %d", tracker.Expirations())
	}
}

func TestTrackerHitRate(t *testing.T) {
	tracker := NewTracker()

	if rate := tracker.HitRate(); rate != 0.0 {
		t.Errorf("Expected hit rate 0 before any lookup, got %.3f", rate)
	}

	tracker.RecordHit(0)
	tracker.RecordHit(0)
	tracker.RecordHit(0)
	tracker.RecordMiss(0)

	if rate := tracker.HitRate(); rate != 0.75 {
		t.Errorf("Expected hit rate 0.75, got %.3f", rate)
	}
}

func TestTrackerAverageAccessTime(t *testing.T) {
	tracker := NewTracker()

	if avg := tracker.AverageAccessTime(); avg != 0 {
		t.Errorf("Expected zero average before any lookup, got %v", avg)
	}

	tracker.RecordHit(10 * time.Millisecond)
	tracker.RecordMiss(20 * time.Millisecond)

	if avg := tracker.AverageAccessTime(); avg != 15*time.Millisecond {
		t.Errorf("Expected average 15ms, got %v", avg)
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordHit(time.Millisecond)
	tracker.RecordMiss(time.Millisecond)
	tracker.RecordEviction()
	tracker.RecordExpiration()

	tracker.Reset()

	if tracker.Hits() != 0 || tracker.Misses() != 0 ||
		tracker.Evictions() != 0 || tracker.Expirations() != 0 {
		t.Error("Expected all counters zero after Reset")
	}
	if tracker.AverageAccessTime() != 0 {
		t.Errorf("Expected zero average after Reset, got %v", tracker.AverageAccessTime())
	}
}

func TestTrackerConcurrentRecording(t *testing.T) {
	tracker := NewTracker()

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if i%2 == 0 {
					tracker.RecordHit(time.Microsecond)
				} else {
					tracker.RecordMiss(time.Microsecond)
				}
			}
		}()
	}
	wg.Wait()

	total := tracker.Hits() + tracker.Misses()
	if total != goroutines*perGoroutine {
		t.Errorf("Expected %d total lookups, got %d", goroutines*perGoroutine, total)
	}
	if rate := tracker.HitRate(); rate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %.3f", rate)
	}
}
