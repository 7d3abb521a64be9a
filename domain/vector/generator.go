package vector

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// MaxCombinations bounds the size of any generator.
const MaxCombinations = 1 << 26

// Generator enumerates the cartesian product of per-slot choices in mixed
// radix order: the last slot varies fastest, the first slot slowest. The
// order is fixed at construction so repeated enumeration is identical.
type Generator[T Symbol] struct {
	choices [][]T
	total   int
}

// NewGenerator creates a generator over the given per-slot choice lists.
func NewGenerator[T Symbol](choices ...[]T) (*Generator[T], error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: no slots", ErrEmptyChoices)
	}
	total := 1
	copied := make([][]T, len(choices))
	for i, c := range choices {
		if len(c) == 0 {
			return nil, fmt.Errorf("%w: slot %d", ErrEmptyChoices, i)
		}
		if total > math.MaxInt/len(c) || total*len(c) > MaxCombinations {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyCombinations, MaxCombinations)
		}
		total *= len(c)
		copied[i] = slices.Clone(c)
	}
	return &Generator[T]{choices: copied, total: total}, nil
}

// MustGenerator is like NewGenerator but panics on error.
func MustGenerator[T Symbol](choices ...[]T) *Generator[T] {
	g, err := NewGenerator(choices...)
	if err != nil {
		panic(err)
	}
	return g
}

// Len returns the number of vectors the generator produces.
func (g *Generator[T]) Len() int {
	return g.total
}

// Slots returns the number of slots in each generated vector.
func (g *Generator[T]) Slots() int {
	return len(g.choices)
}

// At returns the i-th vector in enumeration order.
func (g *Generator[T]) At(i int) Vector[T] {
	if i < 0 || i >= g.total {
		panic(fmt.Sprintf("vector: generator index %d out of range [0,%d)", i, g.total))
	}
	elems := make([]T, len(g.choices))
	for slot := len(g.choices) - 1; slot >= 0; slot-- {
		n := len(g.choices[slot])
		elems[slot] = g.choices[slot][i%n]
		i /= n
	}
	return Of(elems...)
}

// All streams every vector without materializing the full product.
func (g *Generator[T]) All() iter.Seq[Vector[T]] {
	return func(yield func(Vector[T]) bool) {
		idx := make([]int, len(g.choices))
		elems := make([]T, len(g.choices))
		for slot := range g.choices {
			elems[slot] = g.choices[slot][0]
		}
		for range g.total {
			if !yield(Of(elems...)) {
				return
			}
			for slot := len(idx) - 1; slot >= 0; slot-- {
				idx[slot]++
				if idx[slot] < len(g.choices[slot]) {
					elems[slot] = g.choices[slot][idx[slot]]
					break
				}
				idx[slot] = 0
				elems[slot] = g.choices[slot][0]
			}
		}
	}
}

// List returns every vector in enumeration order.
func (g *Generator[T]) List() []Vector[T] {
	out := make([]Vector[T], 0, g.total)
	for v := range g.All() {
		out = append(out, v)
	}
	return out
}
