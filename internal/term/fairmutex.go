package term

import "sync"

// FairMutex is a ticket lock: callers acquire it in arrival order.
// The zero value is unlocked.
type FairMutex struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
	once    sync.Once
}

func (m *FairMutex) init() {
	m.once.Do(func() { m.cond = sync.NewCond(&m.mu) })
}

// Lock blocks until every earlier caller has released the lock.
func (m *FairMutex) Lock() {
	m.init()
	m.mu.Lock()
	ticket := m.next
	m.next++
	for ticket != m.serving {
		m.cond.Wait()
	}
	m.mu.Unlock()
}

// TryLock acquires the lock only if nobody holds or waits for it.
func (m *FairMutex) TryLock() bool {
	m.init()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next != m.serving {
		return false
	}
	m.next++
	return true
}

// Unlock hands the lock to the next waiter.
func (m *FairMutex) Unlock() {
	m.init()
	m.mu.Lock()
	if m.serving == m.next {
		m.mu.Unlock()
		panic("term: unlock of unlocked FairMutex")
	}
	m.serving++
	m.mu.Unlock()
	m.cond.Broadcast()
}
