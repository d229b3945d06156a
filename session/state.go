package session

import (
	"sync"
	"time"

	"github.com/jrsteele09/farma-console/users"
)

// State is the authenticated-session record. The zero value is the logged-out default.
// LoggedIn is true iff User and AccessToken are both present.
type State struct {
	LoggedIn    bool
	User        *users.User
	AccessToken string
	ExpiresAt   time.Time // Zero when the backend didn't say
}

func loggedIn(user users.User, token string, expiresAt time.Time) State {
	return State{
		LoggedIn:    true,
		User:        &user,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}
}

// copyState detaches the user pointer so observers can't mutate the held value
func copyState(s State) State {
	s.User = s.User.Copy()
	return s
}

// holder is a current-value broadcaster: every Set is delivered synchronously,
// in subscription order, before Set returns; a new subscriber immediately
// receives the current value.
type holder struct {
	mu          sync.Mutex
	value       State
	nextID      int
	subscribers map[int]func(State)
	order       []int
}

func newHolder() *holder {
	return &holder{subscribers: make(map[int]func(State))}
}

func (h *holder) Get() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyState(h.value)
}

// Set publishes the new value. The lock is held while notifying so that two
// transitions are never observed out of order.
func (h *holder) Set(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.value = s
	for _, id := range h.order {
		h.subscribers[id](copyState(s))
	}
}

// Subscribe registers fn and calls it with the current value before returning.
// fn must not call back into the holder.
func (h *holder) Subscribe(fn func(State)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subscribers[id] = fn
	h.order = append(h.order, id)
	fn(copyState(h.value))

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers, id)
			for i, v := range h.order {
				if v == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Channel subscribes a latest-value channel of capacity one; a value not yet
// received is replaced by the newer one. The channel is closed on cancel.
func (h *holder) Channel() (<-chan State, func()) {
	ch := make(chan State, 1)
	var closed bool
	var chMu sync.Mutex

	cancelSub := h.Subscribe(func(s State) {
		chMu.Lock()
		defer chMu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- s
	})

	return ch, func() {
		cancelSub()
		chMu.Lock()
		defer chMu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}
