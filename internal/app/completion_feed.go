package app

import (
	"sync"

	"quiz-engine/internal/domain"
)

// CompletionFeed fans out freshly recorded completions to subscribers of the solving user.
type CompletionFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Completion]struct{}
}

func NewCompletionFeed() *CompletionFeed {
	return &CompletionFeed{subscribers: make(map[string]map[chan domain.Completion]struct{})}
}

// Subscribe registers a listener for email. The cancel function is idempotent.
func (f *CompletionFeed) Subscribe(email string) (<-chan domain.Completion, func()) {
	ch := make(chan domain.Completion, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[email]
	if !ok {
		subs = make(map[chan domain.Completion]struct{})
		f.subscribers[email] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[email]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, email)
		}
	}
	return ch, cancel
}

// Publish never blocks: a full subscriber buffer loses its oldest entry.
func (f *CompletionFeed) Publish(c domain.Completion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[c.UserEmail] {
		select {
		case ch <- c:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- c
		}
	}
}

// Subscribers reports how many listeners email currently has.
func (f *CompletionFeed) Subscribers(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[email])
}
