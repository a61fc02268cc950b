package core

// Eligible carries a value computed only when a backend is eligible.
// The zero value is the not-eligible state.
type Eligible[T any] struct {
	value T
	ok    bool
}

// Some wraps a value produced by an eligible backend.
func Some[T any](v T) Eligible[T] {
	return Eligible[T]{value: v, ok: true}
}

// NotEligible is the fallback state.
func NotEligible[T any]() Eligible[T] {
	return Eligible[T]{}
}

// Get returns the value and whether the backend was eligible.
func (e Eligible[T]) Get() (T, bool) {
	return e.value, e.ok
}

// OrElse returns the value, or fallback() when not eligible.
func (e Eligible[T]) OrElse(fallback func() T) T {
	if e.ok {
		return e.value
	}
	return fallback()
}
