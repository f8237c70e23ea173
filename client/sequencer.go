package client

import "sync"

// Sequencer orders overlapping refreshes of one piece of state. Each
// request takes a ticket; a response is applied only if no newer request
// has been issued since, so a slow early response can never overwrite a
// fresher one.
type Sequencer struct {
	mu     sync.Mutex
	issued uint64
}

// Next issues a ticket for a request about to start.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply runs fn if ticket is still the latest one and reports whether it
// ran. fn runs under the sequencer's lock.
func (s *Sequencer) Apply(ticket uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.issued {
		return false
	}
	fn()
	return true
}

// Invalidate discards every in-flight response, e.g. on logout.
func (s *Sequencer) Invalidate() {
	s.mu.Lock()
	s.issued++
	s.mu.Unlock()
}
