package model

// Multiset counts how many times each element was added. Multiplicities only
// grow; there is no removal.
type Multiset[T comparable] struct {
	counts map[T]int
	order  []T
}

func NewMultiset[T comparable]() *Multiset[T] {
	return &Multiset[T]{counts: make(map[T]int)}
}

// Add increments the multiplicity of e by one.
func (m *Multiset[T]) Add(e T) {
	m.AddN(e, 1)
}

// AddN increments the multiplicity of e by n. Non-positive n is ignored.
func (m *Multiset[T]) AddN(e T, n int) {
	if n <= 0 {
		return
	}
	if m.counts == nil {
		m.counts = make(map[T]int)
	}
	if _, ok := m.counts[e]; !ok {
		m.order = append(m.order, e)
	}
	m.counts[e] += n
}

func (m *Multiset[T]) Contains(e T) bool {
	if m == nil {
		return false
	}
	_, ok := m.counts[e]
	return ok
}

// Multiplicity returns 0 for absent elements.
func (m *Multiset[T]) Multiplicity(e T) int {
	if m == nil {
		return 0
	}
	return m.counts[e]
}

// Len is the number of distinct elements.
func (m *Multiset[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Size is the sum of all multiplicities.
func (m *Multiset[T]) Size() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}

// Elements returns the distinct elements in first-insertion order.
func (m *Multiset[T]) Elements() []T {
	if m == nil {
		return nil
	}
	out := make([]T, len(m.order))
	copy(out, m.order)
	return out
}

// SuchThat returns the distinct elements accepted by f, in insertion order.
func (m *Multiset[T]) SuchThat(f Filter[T]) []T {
	if m == nil {
		return nil
	}
	var out []T
	for _, e := range m.order {
		if f == nil || f(e) {
			out = append(out, e)
		}
	}
	return out
}
