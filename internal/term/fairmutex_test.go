package term

import (
	"testing"
	"time"
)

func TestFairMutexTryLock(t *testing.T) {
	var m FairMutex
	if !m.TryLock() {
		t.Fatal("expected TryLock on unlocked mutex to succeed")
	}
	if m.TryLock() {
		t.Fatal("expected TryLock on held mutex to fail")
	}
	m.Unlock()
	m.Lock()
	m.Unlock()
}

func TestFairMutexArrivalOrder(t *testing.T) {
	var m FairMutex
	m.Lock()

	order := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			m.Lock()
			order <- i
			m.Unlock()
		}()
		// Let each waiter take its ticket before the next one starts.
		waitForTickets(t, &m, uint64(i+2))
	}
	m.Unlock()

	for want := 0; want < 3; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("expected waiter %d, got %d", want, got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for waiter")
		}
	}
}

func waitForTickets(t *testing.T, m *FairMutex, n uint64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		issued := m.next
		m.mu.Unlock()
		if issued >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d tickets", n)
}

func TestFairMutexUnlockUnlockedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var m FairMutex
	m.Unlock()
}
