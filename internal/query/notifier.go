package query

import "sync"

// notifier runs queued functions in order on its own goroutine, so callers
// holding locks never call out to user code.
type notifier struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newNotifier() *notifier {
	n := &notifier{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) enqueue(fn func()) {
	n.mu.Lock()
	n.queue = append(n.queue, fn)
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) run() {
	for {
		select {
		case <-n.done:
			return
		case <-n.wake:
		}
		for {
			n.mu.Lock()
			queue := n.queue
			n.queue = nil
			n.mu.Unlock()
			if len(queue) == 0 {
				break
			}
			for _, fn := range queue {
				fn()
			}
		}
	}
}

func (n *notifier) stop() {
	n.once.Do(func() { close(n.done) })
}
