package predicate

import "slices"

// Handler produces the output for an input accepted by a predicate.
// The argument a carries whatever context the caller needs to act
// (a navigator, a parent listing).
type Handler[P, A, O any] func(p P, a A) O

type alternative[P, A, O any] struct {
	matches Predicate[P]
	handle  Handler[P, A, O]
}

// Table is an ordered list of (predicate, handler) alternatives.
// The first alternative whose predicate matches handles the input.
//
// Tables are values: With, AppendFallback and Or return new tables and
// never modify their receivers.
type Table[P, A, O any] struct {
	alts []alternative[P, A, O]
}

// NewTable returns a table with a single alternative.
func NewTable[P, A, O any](matches Predicate[P], handle Handler[P, A, O]) Table[P, A, O] {
	return Table[P, A, O]{}.With(matches, handle)
}

// With returns a copy of t with one more alternative tried after the
// existing ones.
func (t Table[P, A, O]) With(matches Predicate[P], handle Handler[P, A, O]) Table[P, A, O] {
	alts := slices.Clone(t.alts)
	alts = append(alts, alternative[P, A, O]{matches: matches, handle: handle})
	return Table[P, A, O]{alts: alts}
}

// AppendFallback returns a table whose alternatives are those of t followed
// by those of other. Rules from other only apply if no rule of t matches.
func (t Table[P, A, O]) AppendFallback(other Table[P, A, O]) Table[P, A, O] {
	return Table[P, A, O]{alts: slices.Concat(t.alts, other.alts)}
}

// Or combines tables in order; equivalent to chaining AppendFallback.
func Or[P, A, O any](tables ...Table[P, A, O]) Table[P, A, O] {
	var alts []alternative[P, A, O]
	for _, t := range tables {
		alts = append(alts, t.alts...)
	}
	return Table[P, A, O]{alts: alts}
}

// Len returns the number of alternatives.
func (t Table[P, A, O]) Len() int {
	return len(t.alts)
}

// CanHandle reports whether any alternative matches p.
func (t Table[P, A, O]) CanHandle(p P) bool {
	_, ok := t.find(p)
	return ok
}

// Handle runs the first matching alternative. ok is false when none match.
func (t Table[P, A, O]) Handle(p P, a A) (out O, ok bool) {
	alt, ok := t.find(p)
	if !ok {
		return out, false
	}
	return alt.handle(p, a), true
}

// Matching returns a predicate that matches whatever t can handle.
func (t Table[P, A, O]) Matching() Predicate[P] {
	return t.CanHandle
}

func (t Table[P, A, O]) find(p P) (alternative[P, A, O], bool) {
	for _, alt := range t.alts {
		if alt.matches(p) {
			return alt, true
		}
	}
	return alternative[P, A, O]{}, false
}
