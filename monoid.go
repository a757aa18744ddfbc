package schedule

// Monoid is an associative merge with an identity element.
type Monoid[T any] interface {
	Empty() T
	Combine(a, b T) T
}

// Number is the set of types Sum can add.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

type monoidFunc[T any] struct {
	empty   func() T
	combine func(a, b T) T
}

func (m monoidFunc[T]) Empty() T { return m.empty() }

func (m monoidFunc[T]) Combine(a, b T) T { return m.combine(a, b) }

// MonoidOf builds a Monoid from an identity value and a merge function.
// The caller is responsible for combine being associative.
func MonoidOf[T any](empty T, combine func(a, b T) T) Monoid[T] {
	return monoidFunc[T]{
		empty:   func() T { return empty },
		combine: combine,
	}
}

// Sum adds numbers.
func Sum[T Number]() Monoid[T] {
	return MonoidOf(T(0), func(a, b T) T { return a + b })
}

// Concat appends slices. The result never aliases either argument.
func Concat[T any]() Monoid[[]T] {
	return MonoidOf[[]T](nil, func(a, b []T) []T {
		out := make([]T, 0, len(a)+len(b))
		out = append(out, a...)
		return append(out, b...)
	})
}

// UnitMonoid merges outputs that carry no information.
func UnitMonoid() Monoid[Unit] {
	return MonoidOf(Unit{}, func(Unit, Unit) Unit { return Unit{} })
}
