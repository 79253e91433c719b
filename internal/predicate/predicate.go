// Package predicate provides composable predicates and ordered dispatch
// tables resolved by first match.
package predicate

// Predicate reports whether a value satisfies a condition.
type Predicate[T any] func(T) bool

// Always matches every value.
func Always[T any]() Predicate[T] {
	return func(T) bool { return true }
}

// Never matches no value.
func Never[T any]() Predicate[T] {
	return func(T) bool { return false }
}

// And matches when both p and q match. q is not evaluated if p fails.
func (p Predicate[T]) And(q Predicate[T]) Predicate[T] {
	return func(v T) bool { return p(v) && q(v) }
}

// Or matches when either p or q matches.
func (p Predicate[T]) Or(q Predicate[T]) Predicate[T] {
	return func(v T) bool { return p(v) || q(v) }
}

// Not inverts p.
func (p Predicate[T]) Not() Predicate[T] {
	return func(v T) bool { return !p(v) }
}

// Any matches when at least one of ps matches.
func Any[T any](ps ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range ps {
			if p(v) {
				return true
			}
		}
		return false
	}
}
