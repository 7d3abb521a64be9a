// Package distribution provides probability mass functions over comparable
// symbols. Support iteration follows insertion order so sampling and argmax
// are deterministic for a given construction sequence.
package distribution

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
)

// Tolerance is the allowed deviation of the total mass from one.
const Tolerance = 1e-12

// Entry pairs an item with its mass or weight.
type Entry[T comparable] struct {
	Item T       `json:"item"`
	Mass float64 `json:"mass"`
}

// E is shorthand for constructing an Entry.
func E[T comparable](item T, mass float64) Entry[T] {
	return Entry[T]{Item: item, Mass: mass}
}

// Distribution is a non-empty probability mass function. Every item in the
// support has positive mass and the masses sum to one within Tolerance.
type Distribution[T comparable] struct {
	keys []T
	mass map[T]float64
}

// FromEntries builds a distribution from masses that already sum to one.
// Duplicate items are merged and zero-mass entries are dropped.
func FromEntries[T comparable](entries ...Entry[T]) (*Distribution[T], error) {
	d, total, err := collect(entries)
	if err != nil {
		return nil, err
	}
	if math.Abs(total-1) > Tolerance {
		return nil, fmt.Errorf("%w: masses sum to %v", ErrInvalidDistribution, total)
	}
	d.scale(1 / total)
	return d, nil
}

// FromWeights builds a distribution by normalizing non-negative weights.
func FromWeights[T comparable](entries ...Entry[T]) (*Distribution[T], error) {
	d, total, err := collect(entries)
	if err != nil {
		return nil, err
	}
	d.scale(1 / total)
	return d, nil
}

// MustFromEntries is like FromEntries but panics on error.
func MustFromEntries[T comparable](entries ...Entry[T]) *Distribution[T] {
	d, err := FromEntries(entries...)
	if err != nil {
		panic(err)
	}
	return d
}

// Uniform spreads mass evenly across the distinct items.
func Uniform[T comparable](items []T) (*Distribution[T], error) {
	entries := make([]Entry[T], 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry[T]{Item: item, Mass: 1})
	}
	d, total, err := collect(dedupe(entries))
	if err != nil {
		return nil, err
	}
	d.scale(1 / total)
	return d, nil
}

// Single puts all mass on one item.
func Single[T comparable](item T) *Distribution[T] {
	return &Distribution[T]{
		keys: []T{item},
		mass: map[T]float64{item: 1},
	}
}

// Random draws normalized random masses for the distinct items.
func Random[T comparable](items []T, rng *rand.Rand) (*Distribution[T], error) {
	entries := make([]Entry[T], 0, len(items))
	for _, item := range dedupeItems(items) {
		// 1 - Float64 lies in (0, 1] so every item keeps positive mass.
		entries = append(entries, Entry[T]{Item: item, Mass: 1 - rng.Float64()})
	}
	return FromWeights(entries...)
}

// Mixture combines distributions weighted by the given non-negative weights.
func Mixture[T comparable](weights []float64, parts []*Distribution[T]) (*Distribution[T], error) {
	if len(weights) != len(parts) {
		return nil, fmt.Errorf("%w: %d weights for %d distributions", ErrInvalidDistribution, len(weights), len(parts))
	}
	var entries []Entry[T]
	for i, p := range parts {
		if weights[i] < 0 {
			return nil, fmt.Errorf("%w: negative weight %v", ErrInvalidDistribution, weights[i])
		}
		if weights[i] == 0 || p == nil {
			continue
		}
		for _, k := range p.keys {
			entries = append(entries, Entry[T]{Item: k, Mass: weights[i] * p.mass[k]})
		}
	}
	return FromWeights(entries...)
}

func collect[T comparable](entries []Entry[T]) (*Distribution[T], float64, error) {
	d := &Distribution[T]{mass: make(map[T]float64, len(entries))}
	for _, e := range entries {
		if e.Mass < 0 || math.IsNaN(e.Mass) || math.IsInf(e.Mass, 0) {
			return nil, 0, fmt.Errorf("%w: mass %v for %v", ErrInvalidDistribution, e.Mass, e.Item)
		}
		if e.Mass == 0 {
			continue
		}
		if _, ok := d.mass[e.Item]; !ok {
			d.keys = append(d.keys, e.Item)
		}
		d.mass[e.Item] += e.Mass
	}
	if len(d.keys) == 0 {
		return nil, 0, ErrEmptyDistribution
	}
	return d, d.total(), nil
}

func dedupe[T comparable](entries []Entry[T]) []Entry[T] {
	seen := make(map[T]bool, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if !seen[e.Item] {
			seen[e.Item] = true
			out = append(out, e)
		}
	}
	return out
}

func dedupeItems[T comparable](items []T) []T {
	seen := make(map[T]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func (d *Distribution[T]) total() float64 {
	var sum float64
	for _, k := range d.keys {
		sum += d.mass[k]
	}
	return sum
}

func (d *Distribution[T]) scale(f float64) {
	for _, k := range d.keys {
		d.mass[k] *= f
	}
}

// Prob returns the mass of item, zero when it is outside the support.
func (d *Distribution[T]) Prob(item T) float64 {
	return d.mass[item]
}

// Contains reports whether item has positive mass.
func (d *Distribution[T]) Contains(item T) bool {
	_, ok := d.mass[item]
	return ok
}

// Support returns the items with positive mass in insertion order.
func (d *Distribution[T]) Support() []T {
	return slices.Clone(d.keys)
}

// Len returns the size of the support.
func (d *Distribution[T]) Len() int {
	return len(d.keys)
}

// All iterates over (item, mass) pairs in insertion order.
func (d *Distribution[T]) All() iter.Seq2[T, float64] {
	return func(yield func(T, float64) bool) {
		for _, k := range d.keys {
			if !yield(k, d.mass[k]) {
				return
			}
		}
	}
}

// Expect returns the expectation of f under d.
func (d *Distribution[T]) Expect(f func(T) float64) float64 {
	var sum float64
	for _, k := range d.keys {
		sum += d.mass[k] * f(k)
	}
	return sum
}

// Sample draws an item by scanning cumulative mass in insertion order.
func (d *Distribution[T]) Sample(rng *rand.Rand) T {
	u := rng.Float64()
	var cum float64
	for _, k := range d.keys {
		cum += d.mass[k]
		if u < cum {
			return k
		}
	}
	return d.keys[len(d.keys)-1]
}

// Argmax returns the item with the highest mass. Ties go to the item
// inserted first.
func (d *Distribution[T]) Argmax() T {
	best := d.keys[0]
	for _, k := range d.keys[1:] {
		if d.mass[k] > d.mass[best] {
			best = k
		}
	}
	return best
}

// CloseTo reports whether every item's mass differs by at most tol. Items
// missing from one side count as zero mass.
func (d *Distribution[T]) CloseTo(other *Distribution[T], tol float64) bool {
	for _, k := range d.keys {
		if math.Abs(d.mass[k]-other.mass[k]) > tol {
			return false
		}
	}
	for _, k := range other.keys {
		if _, ok := d.mass[k]; !ok && other.mass[k] > tol {
			return false
		}
	}
	return true
}

// Equal reports whether both distributions have the same support and masses within Tolerance.
func (d *Distribution[T]) Equal(other *Distribution[T]) bool {
	return d.Len() == other.Len() && d.CloseTo(other, Tolerance)
}

// Clone returns a deep copy.
func (d *Distribution[T]) Clone() *Distribution[T] {
	c := &Distribution[T]{
		keys: slices.Clone(d.keys),
		mass: make(map[T]float64, len(d.mass)),
	}
	for k, m := range d.mass {
		c.mass[k] = m
	}
	return c
}

// ReplaceEntryWithDistribution moves the mass of item onto replacement's
// support, scaled by that mass. It mutates d in place and is a no-op when
// item is not in the support. Replacements that contain item, and results
// that break the unit-mass invariant, panic.
func (d *Distribution[T]) ReplaceEntryWithDistribution(item T, replacement *Distribution[T]) {
	if replacement.Contains(item) {
		panic(fmt.Sprintf("distribution: replacement for %v contains the item itself", item))
	}
	m, ok := d.mass[item]
	if !ok {
		return
	}
	delete(d.mass, item)
	d.keys = slices.DeleteFunc(d.keys, func(k T) bool { return k == item })
	for _, k := range replacement.keys {
		if _, ok := d.mass[k]; !ok {
			d.keys = append(d.keys, k)
		}
		d.mass[k] += m * replacement.mass[k]
	}

	total := d.total()
	if len(d.keys) == 0 || math.Abs(total-1) > Tolerance {
		panic(fmt.Sprintf("distribution: total mass %v after replacing %v", total, item))
	}
	d.scale(1 / total)
}

// String renders the distribution as {a: 0.5, b: 0.5}.
func (d *Distribution[T]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v: %.6g", k, d.mass[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Entries returns the support with masses in insertion order.
func (d *Distribution[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(d.keys))
	for i, k := range d.keys {
		out[i] = Entry[T]{Item: k, Mass: d.mass[k]}
	}
	return out
}

// MarshalJSON encodes the distribution as an ordered list of entries.
func (d *Distribution[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Entries())
}

// UnmarshalJSON decodes an ordered list of entries and validates it.
func (d *Distribution[T]) UnmarshalJSON(data []byte) error {
	var entries []Entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	decoded, err := FromEntries(entries...)
	if err != nil {
		return err
	}
	*d = *decoded
	return nil
}
