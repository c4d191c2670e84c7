// internal/pipeline/events.go
package pipeline

import (
	"sync"
)

// Streamer fans job snapshots out to subscribers. Delivery is ordered per
// job and independent per subscriber: each subscriber owns a queue drained
// by its own goroutine, so a slow consumer never blocks the orchestrator or
// its peers. When a job publishes a terminal snapshot the stream delivers
// it and closes; subscribers attaching afterwards receive that final
// snapshot immediately.
type Streamer struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	latest map[string]Job
	done   map[string]bool
}

// NewStreamer returns an empty streamer.
func NewStreamer() *Streamer {
	return &Streamer{
		subs:   make(map[string]map[*subscriber]struct{}),
		latest: make(map[string]Job),
		done:   make(map[string]bool),
	}
}

// Publish delivers one snapshot to every active subscriber of the job. The
// orchestrator calls it after every registry update, in mutation order.
func (s *Streamer) Publish(snapshot Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done[snapshot.ID] {
		return
	}
	s.latest[snapshot.ID] = snapshot
	terminal := snapshot.Status.Terminal()
	if terminal {
		s.done[snapshot.ID] = true
	}

	for sub := range s.subs[snapshot.ID] {
		sub.push(snapshot)
		if terminal {
			sub.finish()
		}
	}
	if terminal {
		delete(s.subs, snapshot.ID)
	}
}

// Latest returns the most recently published snapshot for a job.
func (s *Streamer) Latest(jobID string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.latest[jobID]
	return job, ok
}

// Subscribe opens a snapshot stream for a job. The current snapshot, if one
// has been published, is delivered first; for a finished job that is the
// terminal snapshot and the stream closes right after it. The returned
// cancel function detaches the subscriber and must be called when the
// consumer goes away.
func (s *Streamer) Subscribe(jobID string) (<-chan Job, func()) {
	sub := newSubscriber()
	go sub.run()

	s.mu.Lock()
	if latest, ok := s.latest[jobID]; ok {
		sub.push(latest)
	}
	if s.done[jobID] {
		sub.finish()
		s.mu.Unlock()
		return sub.out, sub.cancel
	}
	if s.subs[jobID] == nil {
		s.subs[jobID] = make(map[*subscriber]struct{})
	}
	s.subs[jobID][sub] = struct{}{}
	s.mu.Unlock()

	return sub.out, func() {
		s.mu.Lock()
		if set, ok := s.subs[jobID]; ok {
			delete(set, sub)
		}
		s.mu.Unlock()
		sub.cancel()
	}
}

// subscriber buffers snapshots between the publisher and one consumer.
type subscriber struct {
	mu       sync.Mutex
	queue    []Job
	finished bool

	notify     chan struct{}
	out        chan Job
	done       chan struct{}
	cancelOnce sync.Once
}

func newSubscriber() *subscriber {
	return &subscriber{
		notify: make(chan struct{}, 1),
		out:    make(chan Job),
		done:   make(chan struct{}),
	}
}

func (s *subscriber) push(snapshot Job) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, snapshot)
	s.mu.Unlock()
	s.wake()
}

// finish marks the stream complete; queued snapshots still drain first.
func (s *subscriber) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) cancel() {
	s.cancelOnce.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			select {
			case s.out <- next:
			case <-s.done:
				return
			}
			continue
		}
		finished := s.finished
		s.mu.Unlock()
		if finished {
			return
		}
		select {
		case <-s.notify:
		case <-s.done:
			return
		}
	}
}
