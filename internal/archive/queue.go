package archive

import "sync"

// Queue is a thread-safe ring of pending archive rows that doubles its
// capacity when full, so a slow database stalls inserts rather than the
// connection's read path.
type Queue struct {
	mu       sync.Mutex
	buf      []Row
	head     int
	tail     int
	count    int
	capacity int
	closed   bool

	pushed  int64
	popped  int64
	resizes int
}

// QueueStats describes queue activity.
type QueueStats struct {
	Pushed   int64
	Popped   int64
	Resizes  int
	Len      int
	Capacity int
}

// NewQueue creates a queue with the given initial capacity.
func NewQueue(initialCapacity int) *Queue {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Queue{
		buf:      make([]Row, initialCapacity),
		capacity: initialCapacity,
	}
}

// Push adds a row, growing the ring if it is full.
// Returns false if the queue is closed.
func (q *Queue) Push(r Row) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.count == q.capacity {
		q.grow()
	}

	q.buf[q.tail] = r
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	q.pushed++
	return true
}

// TryPop removes the oldest row without blocking.
func (q *Queue) TryPop() (Row, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Row{}, false
	}

	r := q.buf[q.head]
	q.buf[q.head] = Row{}
	q.head = (q.head + 1) % q.capacity
	q.count--
	q.popped++
	return r, true
}

// Close marks the queue closed. Pushes are rejected afterwards; rows
// already queued remain poppable.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Len returns the number of queued rows.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns a snapshot of queue activity.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Pushed:   q.pushed,
		Popped:   q.popped,
		Resizes:  q.resizes,
		Len:      q.count,
		Capacity: q.capacity,
	}
}

// grow doubles the ring, relinearizing the contents. Caller holds mu.
func (q *Queue) grow() {
	next := make([]Row, q.capacity*2)
	for i := 0; i < q.count; i++ {
		next[i] = q.buf[(q.head+i)%q.capacity]
	}
	q.buf = next
	q.head = 0
	q.tail = q.count
	q.capacity = len(next)
	q.resizes++
}
