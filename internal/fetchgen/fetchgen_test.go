package fetchgen

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	var tr Tracker

	first := tr.Begin()
	if !first.Current() {
		t.Fatal("first ticket should be current")
	}
	second := tr.Begin()
	if first.Current() {
		t.Fatal("first ticket should be stale after Begin")
	}
	if !second.Current() {
		t.Fatal("second ticket should be current")
	}
	if (Ticket{}).Current() {
		t.Fatal("zero ticket must never be current")
	}
}

func TestTracker_Concurrent(t *testing.T) {
	var tr Tracker
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Begin()
		}()
	}
	wg.Wait()

	last := tr.Begin()
	if last.Gen() != 51 || !last.Current() {
		t.Fatalf("gen = %d", last.Gen())
	}
}
