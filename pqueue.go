package simnet

//
// Eight-level strict-priority FIFO queue
//

// queuedMessage is one entry held by a [PriorityQueue]: a message plus the
// output port it is destined for.
type queuedMessage struct {
	msg  *Message
	port string
}

// numPriorities is the number of strict-priority levels (0..=7).
const numPriorities = int(MaxPriority) + 1

// PriorityQueue holds up to eight FIFO buckets, one per [Priority] level,
// with O(1) enqueue and a cached total size. Dequeue always serves the
// highest non-empty bucket first (strict priority); within a bucket,
// messages leave in arrival order. The zero value is ready to use.
type PriorityQueue struct {
	buckets   [numPriorities][]queuedMessage
	totalSize int
}

// NewPriorityQueue returns an empty [PriorityQueue].
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{}
}

// Len returns the total number of queued messages across all priorities.
func (q *PriorityQueue) Len() int {
	return q.totalSize
}

// Empty returns true if the queue holds no messages.
func (q *PriorityQueue) Empty() bool {
	return q.totalSize == 0
}

// Enqueue appends msg, destined for port, to its priority's bucket.
func (q *PriorityQueue) Enqueue(msg *Message, port string) {
	q.buckets[msg.Priority] = append(q.buckets[msg.Priority], queuedMessage{msg: msg, port: port})
	q.totalSize++
}

// Dequeue removes and returns the message at the front of the
// highest-priority non-empty bucket, or (nil, "", false) if the queue is empty.
func (q *PriorityQueue) Dequeue() (*Message, string, bool) {
	for p := numPriorities - 1; p >= 0; p-- {
		bucket := q.buckets[p]
		if len(bucket) == 0 {
			continue
		}
		entry := bucket[0]
		q.buckets[p] = bucket[1:]
		q.totalSize--
		return entry.msg, entry.port, true
	}
	return nil, "", false
}

// PeekLowest returns the oldest message in the lowest-priority non-empty
// bucket, without removing it, or (0, nil, "", false) if the queue is empty.
func (q *PriorityQueue) PeekLowest() (Priority, *Message, string, bool) {
	for p := 0; p < numPriorities; p++ {
		bucket := q.buckets[p]
		if len(bucket) == 0 {
			continue
		}
		entry := bucket[0]
		return Priority(p), entry.msg, entry.port, true
	}
	return 0, nil, "", false
}

// PeekHighest returns the oldest message in the highest-priority non-empty
// bucket, without removing it, or (0, nil, "", false) if the queue is empty.
func (q *PriorityQueue) PeekHighest() (Priority, *Message, string, bool) {
	for p := numPriorities - 1; p >= 0; p-- {
		bucket := q.buckets[p]
		if len(bucket) == 0 {
			continue
		}
		entry := bucket[0]
		return Priority(p), entry.msg, entry.port, true
	}
	return 0, nil, "", false
}

// DropLowest removes and returns the oldest message in the lowest-priority
// non-empty bucket, or nil if the queue is empty. This is the
// priority-aware drop used when a full queue needs room for a
// higher-priority arrival.
func (q *PriorityQueue) DropLowest() *Message {
	for p := 0; p < numPriorities; p++ {
		bucket := q.buckets[p]
		if len(bucket) == 0 {
			continue
		}
		entry := bucket[0]
		q.buckets[p] = bucket[1:]
		q.totalSize--
		return entry.msg
	}
	return nil
}
