package session

import "sync"

// Holder owns a process-wide shared resource (typically the redis
// client) with lazy init-once semantics and explicit teardown.
// After Reset the next Get re-initializes, so a logout/login cycle
// gets a fresh connection instead of reusing ambient state.
type Holder[T any] struct {
	mu      sync.Mutex
	initFn  func() (T, error)
	closeFn func(T) error
	value   T
	ready   bool
}

// NewHolder creates a holder around an init function and an optional
// close function (nil means no teardown work).
func NewHolder[T any](initFn func() (T, error), closeFn func(T) error) *Holder[T] {
	return &Holder[T]{
		initFn:  initFn,
		closeFn: closeFn,
	}
}

// Get returns the held value, initializing it on first use.
// A failed init is not cached; the next Get retries.
func (h *Holder[T]) Get() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ready {
		return h.value, nil
	}

	value, err := h.initFn()
	if err != nil {
		var zero T
		return zero, err
	}

	h.value = value
	h.ready = true
	return h.value, nil
}

// Reset tears down the held value, if initialized. The holder stays
// usable: the next Get re-initializes.
func (h *Holder[T]) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready {
		return nil
	}

	var err error
	if h.closeFn != nil {
		err = h.closeFn(h.value)
	}
	var zero T
	h.value = zero
	h.ready = false
	return err
}
