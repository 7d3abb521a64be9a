// Package vector provides fixed-length joint vectors, one slot per agent,
// and a generator enumerating cartesian products of per-agent choices.
package vector

import (
	"encoding/json"
	"fmt"
	"strings"
)

const separator = "\x1f"

// Symbol constrains the element types a Vector can hold.
type Symbol interface {
	~string
}

// Vector is an ordered, non-empty tuple of symbols. Vectors are comparable
// values and can be used directly as map keys; equality is order sensitive.
type Vector[T Symbol] struct {
	key string
	n   int
}

// Of builds a vector from its elements. It panics if no element is given or
// if an element contains the reserved unit separator.
func Of[T Symbol](elems ...T) Vector[T] {
	if len(elems) == 0 {
		panic("vector: Of called with no elements")
	}
	var b strings.Builder
	for i, e := range elems {
		if strings.Contains(string(e), separator) {
			panic(fmt.Sprintf("vector: element %q contains the reserved separator", string(e)))
		}
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(string(e))
	}
	return Vector[T]{key: b.String(), n: len(elems)}
}

// Len returns the number of slots.
func (v Vector[T]) Len() int {
	return v.n
}

// IsZero reports whether v is the zero Vector.
func (v Vector[T]) IsZero() bool {
	return v.n == 0
}

// Elements returns a copy of the slots in order.
func (v Vector[T]) Elements() []T {
	if v.n == 0 {
		return nil
	}
	parts := strings.SplitN(v.key, separator, v.n)
	out := make([]T, len(parts))
	for i, p := range parts {
		out[i] = T(p)
	}
	return out
}

// At returns the element in slot i.
func (v Vector[T]) At(i int) T {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("vector: index %d out of range [0,%d)", i, v.n))
	}
	return v.Elements()[i]
}

// With returns a copy of v with slot i replaced by e.
func (v Vector[T]) With(i int, e T) Vector[T] {
	elems := v.Elements()
	if i < 0 || i >= len(elems) {
		panic(fmt.Sprintf("vector: index %d out of range [0,%d)", i, len(elems)))
	}
	elems[i] = e
	return Of(elems...)
}

// String renders the vector as (a, b, c).
func (v Vector[T]) String() string {
	return "(" + strings.ReplaceAll(v.key, separator, ", ") + ")"
}

// MarshalJSON encodes the vector as a JSON array of strings.
func (v Vector[T]) MarshalJSON() ([]byte, error) {
	elems := v.Elements()
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = string(e)
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a JSON array of strings.
func (v *Vector[T]) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	if len(names) == 0 {
		return ErrEmptyVector
	}
	elems := make([]T, len(names))
	for i, n := range names {
		if strings.Contains(n, separator) {
			return fmt.Errorf("vector element %q: reserved separator", n)
		}
		elems[i] = T(n)
	}
	*v = Of(elems...)
	return nil
}
