package engine

// unboundedQueue decouples enqueuing InputItems from dequeuing them using
// an internal growable buffer, so a send never blocks no matter how many
// items are already queued.
//
// This matters because a worker is both a producer onto the queue
// (enqueuing a processed directory's subdirectories, see process) and one
// of the only goroutines draining it: with a fixed-capacity channel, a
// worker can block sending into its own full queue with every other
// worker equally stuck, and no one left to receive. The original Python
// implementation sidesteps this entirely with an unbounded
// queue.Queue() (_examples/original_source/chkbit/context.py), whose
// put() never blocks; this type gives Go's worker pool the same
// guarantee.
type unboundedQueue struct {
	in  chan InputItem
	out chan InputItem
}

// newUnboundedQueue creates a queue and starts its buffering goroutine.
// Callers enqueue by sending on in and dequeue by ranging over out; in
// must be closed once no more items will be enqueued, after which out is
// drained of any remaining buffered items and then closed.
func newUnboundedQueue() *unboundedQueue {
	q := &unboundedQueue{
		in:  make(chan InputItem),
		out: make(chan InputItem),
	}
	go q.run()
	return q
}

func (q *unboundedQueue) run() {
	defer close(q.out)

	var buffer []InputItem
	for {
		if len(buffer) == 0 {
			item, ok := <-q.in
			if !ok {
				return
			}
			buffer = append(buffer, item)
			continue
		}

		select {
		case item, ok := <-q.in:
			if !ok {
				for _, pending := range buffer {
					q.out <- pending
				}
				return
			}
			buffer = append(buffer, item)
		case q.out <- buffer[0]:
			buffer = buffer[1:]
		}
	}
}
