package model

// Filter is a predicate used for bulk queries over entity collections.
type Filter[T any] func(T) bool

func (f Filter[T]) And(other Filter[T]) Filter[T] {
	return func(e T) bool {
		return f(e) && other(e)
	}
}

func (f Filter[T]) Not() Filter[T] {
	return func(e T) bool {
		return !f(e)
	}
}

// IsNotEqual accepts every element except target.
func IsNotEqual[T comparable](target T) Filter[T] {
	return func(e T) bool {
		return e != target
	}
}

// Select returns the elements of items accepted by f.
func Select[T any](items []T, f Filter[T]) []T {
	var out []T
	for _, e := range items {
		if f(e) {
			out = append(out, e)
		}
	}
	return out
}
